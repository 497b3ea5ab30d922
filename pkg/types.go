package pkg

// Role describes who authored a message in a simulated conversation.  The
// student plays the nurse ("user") and the model plays the patient
// ("assistant").  RoleSystem only appears in prompts sent upstream.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ScenarioSummary is the public listing entry for a loaded scenario.
type ScenarioSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// StatusResponse is returned by the root endpoint.
type StatusResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Scenarios int    `json:"scenarios"`
}

// ChatRequest carries a student message for the simulated patient.  The
// frontend also sends nurseMode and patientMode; they are accepted and
// ignored.  Required fields are pointers so an absent key can be told
// apart from an empty string.
type ChatRequest struct {
	SessionID   *string `json:"session_id"`
	Message     *string `json:"message"`
	Scenario    *string `json:"scenario"`
	NurseMode   any     `json:"nurseMode,omitempty"`
	PatientMode any     `json:"patientMode,omitempty"`
}

// ChatResponse contains the simulated patient's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// FeedbackRequest carries a client-side transcript to be reviewed.
type FeedbackRequest struct {
	SessionID *string   `json:"session_id"`
	Scenario  *string   `json:"scenario"`
	History   []Message `json:"history"`
}

// FeedbackResponse contains the reviewer's feedback text.
type FeedbackResponse struct {
	Feedback string `json:"feedback"`
}

// ScenarioRequest is the body shared by the physical exam and diagnostic
// tests endpoints.
type ScenarioRequest struct {
	SessionID *string `json:"session_id"`
	Scenario  *string `json:"scenario"`
}

// DiagnosticTestsResponse contains lab-report style free text.
type DiagnosticTestsResponse struct {
	DiagnosticTests string `json:"diagnostic_tests"`
}

// HistoryResponse exposes the server-side transcript of a conversation.
type HistoryResponse struct {
	SessionID string    `json:"session_id"`
	Scenario  string    `json:"scenario"`
	Messages  []Message `json:"messages"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
