package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-patient/internal/core"
	"ai-patient/internal/history"
	"ai-patient/internal/llm"
	"ai-patient/internal/logging"
	"ai-patient/internal/scenario"
	"ai-patient/pkg"
)

type testEnv struct {
	srv     *Server
	llm     *llm.MockClient
	history *history.Store
}

func newTestEnv(t *testing.T, opts Options, replies ...string) *testEnv {
	t.Helper()
	scenarios := scenario.NewStore(
		&scenario.Scenario{ID: "hip_fracture", Title: "Κάταγμα ισχίου", AIPrompt: "Είσαι η κυρία Μαρία."},
		&scenario.Scenario{ID: "blunt_trauma_case", AIPrompt: "Είσαι ο κύριος Νίκος."},
		&scenario.Scenario{ID: "no_prompt", Title: "Χωρίς persona"},
	)
	mock := llm.NewMockClient(replies...)
	hist := history.NewStore(0)
	logger := logging.Discard()

	srv := NewServer(
		scenarios,
		core.NewChatService(mock, scenarios, hist, logger),
		core.NewFeedbackService(mock, logger),
		core.NewExamService(mock, scenarios, logger),
		logger,
		opts,
	)
	return &testEnv{srv: srv, llm: mock, history: hist}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Detail
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"AI Patient API running."}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","scenarios":3}`, rec.Body.String())
}

func TestListScenarios(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []pkg.ScenarioSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []pkg.ScenarioSummary{
		{ID: "hip_fracture", Title: "Κάταγμα ισχίου"},
		{ID: "blunt_trauma_case", Title: "Blunt Trauma Case"},
		{ID: "no_prompt", Title: "Χωρίς persona"},
	}, got)
}

func TestChatAccumulatesHistory(t *testing.T) {
	env := newTestEnv(t, Options{}, "Πονάει το ισχίο μου.", "Από χθες το βράδυ.")

	rec := env.do(t, http.MethodPost, "/chat", `{"session_id":"s1","message":"Τι νιώθετε;","scenario":"hip_fracture","nurseMode":"calm"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"reply":"Πονάει το ισχίο μου."}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/chat", `{"session_id":"s1","message":"Από πότε;","scenario":"hip_fracture"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/sessions/s1/history?scenario=hip_fracture", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist pkg.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Equal(t, "s1", hist.SessionID)
	assert.Equal(t, []pkg.Message{
		{Role: pkg.RoleUser, Content: "Τι νιώθετε;"},
		{Role: pkg.RoleAssistant, Content: "Πονάει το ισχίο μου."},
		{Role: pkg.RoleUser, Content: "Από πότε;"},
		{Role: pkg.RoleAssistant, Content: "Από χθες το βράδυ."},
	}, hist.Messages)
}

func TestChatSessionIsolation(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.do(t, http.MethodPost, "/chat", `{"session_id":"s1","message":"one","scenario":"hip_fracture"}`)
	env.do(t, http.MethodPost, "/chat", `{"session_id":"s2","message":"two","scenario":"hip_fracture"}`)

	assert.Len(t, env.history.Read("s1", "hip_fracture"), 2)
	assert.Len(t, env.history.Read("s2", "hip_fracture"), 2)
	assert.Equal(t, "two", env.history.Read("s2", "hip_fracture")[0].Content)

	// the second session's prompt must not include the first session's turns
	last := env.llm.LastCall()
	require.Len(t, last.Messages, 2)
	assert.Equal(t, "two", last.Messages[1].Content)

	rec := env.do(t, http.MethodGet, "/sessions/s3/history?scenario=hip_fracture", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"s3","scenario":"hip_fracture","messages":[]}`, rec.Body.String())
}

func TestUnknownScenario(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/chat", "/physical_exam", "/diagnostic_tests"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, path, `{"session_id":"s1","message":"hi","scenario":"nope"}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Scenario 'nope' not found.", detailOf(t, rec))
		})
	}

	rec := env.do(t, http.MethodGet, "/sessions/s1/history?scenario=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.llm.Calls())
}

func TestEmptyScenarioIsUnknownNotMissing(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/chat", "/physical_exam", "/diagnostic_tests"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, path, `{"session_id":"s1","message":"hi","scenario":""}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Scenario '' not found.", detailOf(t, rec))
		})
	}

	rec := env.do(t, http.MethodGet, "/sessions/s1/history?scenario=", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Scenario '' not found.", detailOf(t, rec))
	assert.Empty(t, env.llm.Calls())
}

func TestEmptyStringsAreForwarded(t *testing.T) {
	env := newTestEnv(t, Options{}, "Ορίστε;")

	rec := env.do(t, http.MethodPost, "/chat", `{"session_id":"","message":"","scenario":"hip_fracture"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"reply":"Ορίστε;"}`, rec.Body.String())

	last := env.llm.LastCall()
	require.Len(t, last.Messages, 2)
	assert.Equal(t, pkg.Message{Role: pkg.RoleUser, Content: ""}, last.Messages[1])
	assert.Len(t, env.history.Read("", "hip_fracture"), 2)

	rec = env.do(t, http.MethodPost, "/feedback", `{"session_id":"","scenario":"","history":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatMissingPersona(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/chat", `{"session_id":"s1","message":"hi","scenario":"no_prompt"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Scenario 'no_prompt' missing 'ai_prompt'.", detailOf(t, rec))
	assert.Empty(t, env.llm.Calls())
}

func TestUpstreamFailures(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.llm.Err = &llm.CompletionError{Kind: llm.KindUnavailable, Err: errors.New("502")}

	tests := []struct {
		path   string
		body   string
		detail string
	}{
		{"/chat", `{"session_id":"s1","message":"hi","scenario":"hip_fracture"}`, "Internal server error."},
		{"/feedback", `{"session_id":"s1","scenario":"hip_fracture","history":[]}`, "Error generating feedback."},
		{"/physical_exam", `{"session_id":"s1","scenario":"hip_fracture"}`, "Error generating physical exam."},
		{"/diagnostic_tests", `{"session_id":"s1","scenario":"hip_fracture"}`, "Error generating diagnostic tests."},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.detail, detailOf(t, rec))
			assert.NotContains(t, rec.Body.String(), "502")
		})
	}

	assert.Equal(t, []pkg.Message{{Role: pkg.RoleUser, Content: "hi"}}, env.history.Read("s1", "hip_fracture"))
}

func TestFeedback(t *testing.T) {
	env := newTestEnv(t, Options{}, "Μίλησες με ευγένεια.")

	rec := env.do(t, http.MethodPost, "/feedback", `{"session_id":"s1","scenario":"anything","history":[{"role":"user","content":"Hello"},{"role":"assistant","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"feedback":"Μίλησες με ευγένεια."}`, rec.Body.String())

	msgs := env.llm.LastCall().Messages
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasSuffix(msgs[1].Content, "Νοσηλευτής: Hello\nΑσθενής: Hi"))
}

func TestPhysicalExam(t *testing.T) {
	env := newTestEnv(t, Options{},
		"```json\n{\"temperature_celsius\": 37.4, \"pulse_bpm\": 98}\n```",
		"Λυπάμαι, δεν μπορώ.",
	)

	rec := env.do(t, http.MethodPost, "/physical_exam", `{"session_id":"s1","scenario":"hip_fracture"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `{"temperature_celsius":37.4,"pulse_bpm":98}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = env.do(t, http.MethodPost, "/physical_exam", `{"session_id":"s1","scenario":"hip_fracture"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AI response JSON decode error.", detailOf(t, rec))
}

func TestDiagnosticTests(t *testing.T) {
	env := newTestEnv(t, Options{}, "Hb: 11.8 g/dL\nΗΚΓ: Φλεβοκομβικός ρυθμός")

	rec := env.do(t, http.MethodPost, "/diagnostic_tests", `{"session_id":"s1","scenario":"hip_fracture"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"diagnostic_tests":"Hb: 11.8 g/dL\nΗΚΓ: Φλεβοκομβικός ρυθμός"}`, rec.Body.String())
	assert.Contains(t, env.llm.LastCall().Messages[1].Content, "ai_prompt: Είσαι η κυρία Μαρία.")
}

func TestInvalidRequests(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name   string
		path   string
		body   string
		detail string
	}{
		{"malformed json", "/chat", `{"session_id":`, "Invalid request body."},
		{"missing message", "/chat", `{"session_id":"s1","scenario":"hip_fracture"}`, "Field required: message"},
		{"missing session", "/physical_exam", `{"scenario":"hip_fracture"}`, "Field required: session_id"},
		{"missing scenario", "/physical_exam", `{"session_id":"s1"}`, "Field required: scenario"},
		{"null scenario", "/diagnostic_tests", `{"session_id":"s1","scenario":null}`, "Field required: scenario"},
		{"missing scenario on chat", "/chat", `{"session_id":"s1","message":"hi"}`, "Field required: scenario"},
		{"missing history", "/feedback", `{"session_id":"s1","scenario":"hip_fracture"}`, "Field required: history"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.detail, detailOf(t, rec))
		})
	}

	rec := env.do(t, http.MethodGet, "/sessions/s1/history", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, env.llm.Calls())
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", detailOf(t, rec))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/scenarios", "", "Origin", "http://localhost:5173")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = env.do(t, http.MethodOptions, "/chat", "",
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "POST",
		"Access-Control-Request-Headers", "content-type")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	restricted := newTestEnv(t, Options{CORSOrigins: []string{"https://ward.example"}})
	rec = restricted.do(t, http.MethodGet, "/scenarios", "", "Origin", "http://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})
	body := `{"session_id":"s1","message":"hi","scenario":"hip_fracture"}`

	rec := env.do(t, http.MethodPost, "/chat", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/chat", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", detailOf(t, rec))

	rec = env.do(t, http.MethodGet, "/scenarios", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
