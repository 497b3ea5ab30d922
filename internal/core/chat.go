package core

import (
	"context"
	"log/slog"

	"ai-patient/internal/apperror"
	"ai-patient/internal/history"
	"ai-patient/internal/llm"
	"ai-patient/internal/scenario"
	"ai-patient/pkg"
)

// ScenarioSource looks up scenarios by id.  *scenario.Store implements it.
type ScenarioSource interface {
	Get(id string) (*scenario.Scenario, bool)
}

// ChatService runs the simulated patient conversation.  The model plays
// the patient described by the scenario's ai_prompt; the nurse's turns and
// the patient's replies accumulate in the history store.
type ChatService struct {
	LLM       llm.Client
	Scenarios ScenarioSource
	History   *history.Store
	Logger    *slog.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(client llm.Client, scenarios ScenarioSource, hist *history.Store, logger *slog.Logger) *ChatService {
	return &ChatService{LLM: client, Scenarios: scenarios, History: hist, Logger: logger}
}

// Reply appends the nurse message to the (session, scenario) transcript,
// asks the model for the patient's answer and appends that too.  If the
// model call fails the nurse message stays in the transcript and no reply
// is recorded.
func (s *ChatService) Reply(ctx context.Context, sessionID, scenarioID, message string) (string, error) {
	sc, ok := s.Scenarios.Get(scenarioID)
	if !ok {
		return "", apperror.ScenarioNotFound(scenarioID)
	}

	s.Logger.InfoContext(ctx, "student message", slog.String("message", message))

	msgs, err := ChatMessages(sc, s.History.Read(sessionID, scenarioID), message)
	if err != nil {
		return "", err
	}
	conv := s.History.GetOrCreate(sessionID, scenarioID)
	conv.Append(pkg.Message{Role: pkg.RoleUser, Content: message})

	reply, err := s.LLM.Complete(ctx, msgs, ChatParams)
	if err != nil {
		return "", apperror.Upstream(err, apperror.DetailInternal)
	}
	conv.Append(pkg.Message{Role: pkg.RoleAssistant, Content: reply})

	s.Logger.InfoContext(ctx, "patient reply", slog.String("reply", preview(reply, 60)))
	return reply, nil
}

// Transcript returns the stored conversation for a known scenario.
func (s *ChatService) Transcript(sessionID, scenarioID string) ([]pkg.Message, error) {
	if _, ok := s.Scenarios.Get(scenarioID); !ok {
		return nil, apperror.ScenarioNotFound(scenarioID)
	}
	return s.History.Read(sessionID, scenarioID), nil
}

// preview shortens s to at most n runes for log lines.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
