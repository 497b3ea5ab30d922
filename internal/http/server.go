package http

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"ai-patient/internal/core"
	"ai-patient/internal/logging"
	"ai-patient/internal/scenario"
)

// Options tune the HTTP surface.
type Options struct {
	// CORSOrigins lists allowed origins.  "*" reflects any origin, with
	// credentials allowed.
	CORSOrigins []string
	// RateLimitRPS limits requests per second per client IP on the routes
	// that call the model.  Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to an http.Server.
type Server struct {
	Scenarios *scenario.Store
	Chat      *core.ChatService
	Feedback  *core.FeedbackService
	Exam      *core.ExamService
	Logger    *slog.Logger

	echo *echo.Echo
}

// NewServer constructs a Server with its routes and middleware.
func NewServer(scenarios *scenario.Store, chat *core.ChatService, feedback *core.FeedbackService, exam *core.ExamService, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		Scenarios: scenarios,
		Chat:      chat,
		Feedback:  feedback,
		Exam:      exam,
		Logger:    logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:        uuid.NewString,
		RequestIDHandler: s.tagRequestID,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(corsConfig(opts.CORSOrigins)))

	e.GET("/", s.handleRoot)
	e.GET("/healthz", s.handleHealth)
	e.GET("/scenarios", s.handleListScenarios)
	e.GET("/sessions/:session_id/history", s.handleHistory)

	// Routes below call the model.
	var limit []echo.MiddlewareFunc
	if opts.RateLimitRPS > 0 {
		limit = append(limit, rateLimiter(opts.RateLimitRPS, opts.RateLimitBurst))
	}
	e.POST("/chat", s.handleChat, limit...)
	e.POST("/feedback", s.handleFeedback, limit...)
	e.POST("/physical_exam", s.handlePhysicalExam, limit...)
	e.POST("/diagnostic_tests", s.handleDiagnosticTests, limit...)

	s.echo = e
	return s
}

// ServeHTTP dispatches to the echo router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func corsConfig(origins []string) middleware.CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowCredentials: true,
		// with "*" the request origin is echoed back
		UnsafeWildcardOriginWithAllowCredentials: slices.Contains(origins, "*"),
	}
}

func rateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	if burst <= 0 {
		burst = 1
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiter(store)
}

// tagRequestID stores the request id in the request context so every log
// line emitted while serving it carries the id.
func (s *Server) tagRequestID(c echo.Context, rid string) {
	annotate(c, slog.String("request_id", rid))
}

func annotate(c echo.Context, attrs ...slog.Attr) {
	req := c.Request()
	c.SetRequest(req.WithContext(logging.WithAttrs(req.Context(), attrs...)))
}

// annotateScenario tags the request context with the session and scenario
// the request is about.
func annotateScenario(c echo.Context, sessionID, scenarioID string) {
	annotate(c, slog.String("session_id", sessionID), slog.String("scenario", scenarioID))
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	level := slog.LevelInfo
	if v.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	} else if v.Status >= http.StatusBadRequest {
		level = slog.LevelWarn
	}
	s.Logger.LogAttrs(c.Request().Context(), level, "request",
		slog.String("method", v.Method),
		slog.String("uri", v.URI),
		slog.Int("status", v.Status),
		slog.Duration("latency", v.Latency),
	)
	return nil
}
