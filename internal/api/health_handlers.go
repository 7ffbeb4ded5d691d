package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with a store check",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Driver     string                     `json:"driver,omitempty" doc:"Active store driver"`
	Users      int                        `json:"users" doc:"Number of registered users"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	dbHealth, users := s.checkStore(ctx)

	resp := HealthResponse{
		Status:     dbHealth.Status,
		Users:      users,
		Components: map[string]ComponentHealth{"store": dbHealth},
	}
	if s.store != nil {
		resp.Driver = s.store.Driver()
	}

	return &HealthOutput{Body: resp}, nil
}

// checkStore verifies the store answers a cheap read.
func (s *Server) checkStore(ctx context.Context) (ComponentHealth, int) {
	if s.store == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "store not configured",
		}, 0
	}

	start := time.Now()
	users, err := s.store.CountUsers(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Error("Health check store read failed", "error", err)
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "store read failed",
		}, 0
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}, users
}
