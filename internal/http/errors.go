package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"ai-patient/internal/apperror"
	"ai-patient/internal/llm"
	"ai-patient/pkg"
)

// handleError is the echo HTTPErrorHandler.  Every failure is rendered as
// {"detail": ...}; causes are logged, never returned.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := project(err)
	ctx := c.Request().Context()
	switch {
	case apperror.IsCode(err, apperror.CodeUpstream):
		s.Logger.ErrorContext(ctx, "completion failed",
			slog.String("kind", string(llm.KindOf(err))),
			slog.Any("error", err))
	case status >= http.StatusInternalServerError:
		s.Logger.ErrorContext(ctx, "request failed", slog.Any("error", err))
	default:
		s.Logger.DebugContext(ctx, "request rejected", slog.Int("status", status), slog.Any("error", err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, pkg.ErrorResponse{Detail: detail})
	}
	if err != nil {
		s.Logger.ErrorContext(ctx, "failed to write error response", slog.Any("error", err))
	}
}

// project maps an error to a status and client-facing detail.  Router and
// middleware errors keep their own status.
func project(err error) (int, string) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.Status(), appErr.Detail
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, apperror.DetailInternal
		}
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	}
	return apperror.Project(err)
}
