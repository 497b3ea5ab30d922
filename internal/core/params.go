package core

import "ai-patient/internal/llm"

// Sampling parameters per flow.  Role-play runs warm, structured output
// runs cold.
var (
	ChatParams            = llm.Params{MaxTokens: 500, Temperature: 0.8}
	FeedbackParams        = llm.Params{MaxTokens: 800, Temperature: 0.5}
	PhysicalExamParams    = llm.Params{MaxTokens: 800, Temperature: 0.3}
	DiagnosticTestsParams = llm.Params{MaxTokens: 800, Temperature: 0.3}
)
