package core

import (
	"context"
	"encoding/json"
	"log/slog"

	"ai-patient/internal/apperror"
	"ai-patient/internal/llm"
)

// ExamService generates physical examination findings and diagnostic test
// results for a scenario.
type ExamService struct {
	LLM       llm.Client
	Scenarios ScenarioSource
	Logger    *slog.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(client llm.Client, scenarios ScenarioSource, logger *slog.Logger) *ExamService {
	return &ExamService{LLM: client, Scenarios: scenarios, Logger: logger}
}

// PhysicalExam asks the model for exam findings and returns them as a JSON
// object.  Output that is not a JSON object, fenced or not, fails with an
// output parse error.
func (s *ExamService) PhysicalExam(ctx context.Context, scenarioID string) (json.RawMessage, error) {
	sc, ok := s.Scenarios.Get(scenarioID)
	if !ok {
		return nil, apperror.ScenarioNotFound(scenarioID)
	}
	msgs, err := PhysicalExamMessages(sc)
	if err != nil {
		return nil, err
	}

	raw, err := s.LLM.Complete(ctx, msgs, PhysicalExamParams)
	if err != nil {
		return nil, apperror.Upstream(err, apperror.DetailExamFailed)
	}
	text := StripCodeFence(raw)
	s.Logger.DebugContext(ctx, "cleaned exam output", slog.String("output", text))

	obj, err := ParseJSONObject(text)
	if err != nil {
		return nil, apperror.OutputParse(err)
	}
	return obj, nil
}

// DiagnosticTests asks the model for lab and imaging results.  The text is
// returned as-is.
func (s *ExamService) DiagnosticTests(ctx context.Context, scenarioID string) (string, error) {
	sc, ok := s.Scenarios.Get(scenarioID)
	if !ok {
		return "", apperror.ScenarioNotFound(scenarioID)
	}
	msgs, err := DiagnosticTestsMessages(sc)
	if err != nil {
		return "", err
	}

	result, err := s.LLM.Complete(ctx, msgs, DiagnosticTestsParams)
	if err != nil {
		return "", apperror.Upstream(err, apperror.DetailDiagnosticsFail)
	}
	s.Logger.DebugContext(ctx, "diagnostic tests generated", slog.Int("bytes", len(result)))
	return result, nil
}
