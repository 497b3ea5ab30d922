package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"ai-patient/internal/apperror"
	"ai-patient/pkg"
)

const rootMessage = "AI Patient API running."

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, pkg.StatusResponse{Message: rootMessage})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, pkg.HealthResponse{Status: "ok", Scenarios: s.Scenarios.Len()})
}

// handleListScenarios returns every loaded scenario in load order.
func (s *Server) handleListScenarios(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Scenarios.List())
}

// handleChat forwards a student message to the simulated patient and
// returns the reply.
func (s *Server) handleChat(c echo.Context) error {
	var req pkg.ChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := requireFields(
		field{"session_id", req.SessionID},
		field{"message", req.Message},
		field{"scenario", req.Scenario},
	); err != nil {
		return err
	}
	annotateScenario(c, *req.SessionID, *req.Scenario)

	reply, err := s.Chat.Reply(c.Request().Context(), *req.SessionID, *req.Scenario, *req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkg.ChatResponse{Reply: reply})
}

// handleFeedback reviews the transcript supplied by the client.  The
// scenario id is only used for log correlation.
func (s *Server) handleFeedback(c echo.Context) error {
	var req pkg.FeedbackRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := requireFields(
		field{"session_id", req.SessionID},
		field{"scenario", req.Scenario},
	); err != nil {
		return err
	}
	if req.History == nil {
		return apperror.InvalidRequest("Field required: history", nil)
	}
	annotateScenario(c, *req.SessionID, *req.Scenario)

	feedback, err := s.Feedback.Review(c.Request().Context(), req.History)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkg.FeedbackResponse{Feedback: feedback})
}

// handlePhysicalExam returns the generated exam findings object as-is.
func (s *Server) handlePhysicalExam(c echo.Context) error {
	req, err := bindScenarioRequest(c)
	if err != nil {
		return err
	}
	exam, err := s.Exam.PhysicalExam(c.Request().Context(), *req.Scenario)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, exam)
}

func (s *Server) handleDiagnosticTests(c echo.Context) error {
	req, err := bindScenarioRequest(c)
	if err != nil {
		return err
	}
	result, err := s.Exam.DiagnosticTests(c.Request().Context(), *req.Scenario)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkg.DiagnosticTestsResponse{DiagnosticTests: result})
}

// handleHistory exposes the server-side transcript for one session and
// scenario.  Unknown sessions yield an empty list.
func (s *Server) handleHistory(c echo.Context) error {
	sessionID := c.Param("session_id")
	if !c.QueryParams().Has("scenario") {
		return apperror.InvalidRequest("Field required: scenario", nil)
	}
	scenarioID := c.QueryParam("scenario")
	annotateScenario(c, sessionID, scenarioID)

	msgs, err := s.Chat.Transcript(sessionID, scenarioID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkg.HistoryResponse{SessionID: sessionID, Scenario: scenarioID, Messages: msgs})
}

func bindScenarioRequest(c echo.Context) (pkg.ScenarioRequest, error) {
	var req pkg.ScenarioRequest
	if err := bind(c, &req); err != nil {
		return req, err
	}
	if err := requireFields(
		field{"session_id", req.SessionID},
		field{"scenario", req.Scenario},
	); err != nil {
		return req, err
	}
	annotateScenario(c, *req.SessionID, *req.Scenario)
	return req, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperror.InvalidRequest("Invalid request body.", err)
	}
	return nil
}

// field is a required body key.  A nil value means the key was absent or
// null; an empty string is a value and passes.
type field struct {
	name  string
	value *string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if f.value == nil {
			return apperror.InvalidRequest(fmt.Sprintf("Field required: %s", f.name), nil)
		}
	}
	return nil
}
