package core

import (
	"context"
	"log/slog"

	"ai-patient/internal/apperror"
	"ai-patient/internal/llm"
	"ai-patient/pkg"
)

// FeedbackService reviews a nurse/patient transcript and produces
// formative feedback for the student.  The transcript comes from the
// client, not from the history store, and the scenario id is not checked.
type FeedbackService struct {
	LLM    llm.Client
	Logger *slog.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(client llm.Client, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{LLM: client, Logger: logger}
}

// Review returns the model's feedback on transcript.
func (s *FeedbackService) Review(ctx context.Context, transcript []pkg.Message) (string, error) {
	s.Logger.DebugContext(ctx, "generating feedback", slog.Int("turns", len(transcript)))

	feedback, err := s.LLM.Complete(ctx, FeedbackMessages(transcript), FeedbackParams)
	if err != nil {
		return "", apperror.Upstream(err, apperror.DetailFeedbackFailed)
	}
	return feedback, nil
}
