package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/armi/internal/observability"
)

// MetricsOverviewResponse is the body of GET /api/v1/system/metrics.
type MetricsOverviewResponse struct {
	observability.Snapshot
	LiveConversations int  `json:"live_conversations"`
	LLMAvailable      bool `json:"llm_available"`
}

// GetMetricsOverview returns interpreter and executor counters.
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	resp := MetricsOverviewResponse{Snapshot: s.Metrics.Snapshot()}
	if s.Sessions != nil {
		resp.LiveConversations = s.Sessions.Len()
	}
	if s.Interpreter != nil {
		resp.LLMAvailable = s.Interpreter.Available()
	}
	return c.JSON(http.StatusOK, resp)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	Mode          string `json:"mode"`
	SchemaVersion string `json:"schemaVersion,omitempty"`
	Interpreter   string `json:"interpreter"`
}

// Healthz reports liveness and whether the store is reachable.
func (s *APIV1Service) Healthz(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Interpreter: "mock"}
	if s.Profile != nil {
		resp.Mode = s.Profile.Mode
	}
	if s.Interpreter != nil && s.Interpreter.Available() {
		resp.Interpreter = "llm"
	}
	if s.Store != nil {
		version, err := s.Store.GetSchemaVersion(c.Request().Context())
		if err != nil {
			resp.Status = "degraded"
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		resp.SchemaVersion = version
	}
	return c.JSON(http.StatusOK, resp)
}
