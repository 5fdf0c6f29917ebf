package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/armi/internal/aierr"
	"github.com/hrygo/armi/internal/observability"
	"github.com/hrygo/armi/internal/profile"
	"github.com/hrygo/armi/plugin/ai/executor"
	"github.com/hrygo/armi/plugin/ai/interpreter"
	"github.com/hrygo/armi/plugin/ai/reminder"
	"github.com/hrygo/armi/plugin/ai/session"
	armimw "github.com/hrygo/armi/server/middleware"
	"github.com/hrygo/armi/store"
)

// APIV1Service serves the HTTP API.
type APIV1Service struct {
	Profile       *profile.Profile
	Store         *store.Store
	Interpreter   *interpreter.Interpreter
	Executor      *executor.Executor
	Sessions      *session.Registry
	Notifications *reminder.Service
	Metrics       *observability.Metrics

	limiter *armimw.RateLimiter
}

// NewAPIV1Service wires the API over already constructed components.
func NewAPIV1Service(p *profile.Profile, st *store.Store, interp *interpreter.Interpreter, exec *executor.Executor, sessions *session.Registry, notifications *reminder.Service) *APIV1Service {
	return &APIV1Service{
		Profile:       p,
		Store:         st,
		Interpreter:   interp,
		Executor:      exec,
		Sessions:      sessions,
		Notifications: notifications,
		Metrics:       observability.GlobalMetrics(),
		limiter:       armimw.NewRateLimiter(0, 0),
	}
}

// SetRateLimiter replaces the per-conversation rate limiter.
func (s *APIV1Service) SetRateLimiter(rl *armimw.RateLimiter) {
	if rl != nil {
		s.limiter = rl
	}
}

// RateLimiter returns the per-conversation rate limiter.
func (s *APIV1Service) RateLimiter() *armimw.RateLimiter {
	return s.limiter
}

// RegisterRoutes registers the API on echoServer.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.Healthz)

	api := echoServer.Group("/api/v1", middleware.CORS())
	limited := s.limiter.Echo(armimw.ConversationKey)

	api.POST("/interpret", s.Interpret, limited)
	api.POST("/reminder-responses", s.InterpretReminderResponse, limited)

	api.GET("/conversations", s.ListConversations)
	api.POST("/conversations", s.CreateConversationMessage, limited)
	api.POST("/conversations/:id/messages", s.CreateConversationMessage, limited)
	api.POST("/conversations/:id/reset", s.ResetConversation)
	api.DELETE("/conversations/:id", s.DeleteConversation)

	api.GET("/profiles", s.ListProfiles)
	api.GET("/profiles/:id", s.GetProfile)
	api.GET("/profiles/:id/interactions", s.ListInteractions)
	api.GET("/reminders", s.ListReminders)
	api.GET("/scheduled-texts", s.ListScheduledTexts)
	api.GET("/notifications", s.ListNotifications)

	api.GET("/system/metrics", s.GetMetricsOverview)
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string         `json:"error"`
	ErrorCode aierr.Code     `json:"errorCode,omitempty"`
	SubCause  aierr.SubCause `json:"subCause,omitempty"`
}

func errorJSON(c echo.Context, status int, err error) error {
	body := ErrorResponse{Error: err.Error()}
	if code := aierr.CodeOf(err, ""); code != "" {
		body.ErrorCode = code
		body.SubCause = aierr.SubCauseOf(err)
	}
	if status >= http.StatusInternalServerError {
		slog.Error("API request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
