package core

import (
	"strings"

	"ai-patient/internal/apperror"
	"ai-patient/internal/scenario"
	"ai-patient/pkg"
)

// ChatMessages builds the patient role-play request: the scenario persona
// as the system turn, the prior transcript, then the new nurse message.
func ChatMessages(sc *scenario.Scenario, history []pkg.Message, message string) ([]pkg.Message, error) {
	if sc.AIPrompt == "" {
		return nil, apperror.MissingField(sc.ID, "ai_prompt")
	}
	msgs := make([]pkg.Message, 0, len(history)+2)
	msgs = append(msgs, pkg.Message{Role: pkg.RoleSystem, Content: sc.AIPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, pkg.Message{Role: pkg.RoleUser, Content: message})
	return msgs, nil
}

// FormatTranscript renders a transcript as speaker-labelled lines.  Any
// role other than user is attributed to the patient.
func FormatTranscript(transcript []pkg.Message) string {
	lines := make([]string, len(transcript))
	for i, m := range transcript {
		label := PatientLabel
		if m.Role == pkg.RoleUser {
			label = NurseLabel
		}
		lines[i] = label + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// FeedbackMessages builds the review request for a client-supplied
// transcript.
func FeedbackMessages(transcript []pkg.Message) []pkg.Message {
	return []pkg.Message{
		{Role: pkg.RoleSystem, Content: FeedbackSystemPrompt},
		{Role: pkg.RoleUser, Content: FeedbackInstruction + FormatTranscript(transcript)},
	}
}

// PhysicalExamMessages builds the exam generation request for a scenario.
func PhysicalExamMessages(sc *scenario.Scenario) ([]pkg.Message, error) {
	return scenarioMessages(sc, PhysicalExamInstruction)
}

// DiagnosticTestsMessages builds the lab results request for a scenario.
func DiagnosticTestsMessages(sc *scenario.Scenario) ([]pkg.Message, error) {
	return scenarioMessages(sc, DiagnosticTestsInstruction)
}

func scenarioMessages(sc *scenario.Scenario, instruction string) ([]pkg.Message, error) {
	doc, err := sc.YAML()
	if err != nil {
		return nil, err
	}
	return []pkg.Message{
		{Role: pkg.RoleSystem, Content: AssistantSystemPrompt},
		{Role: pkg.RoleUser, Content: instruction + doc},
	}, nil
}
