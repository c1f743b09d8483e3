package rest

import (
	"net/http"
	"time"

	"github.com/heartmarshall/civic-client/internal/transport/middleware"
)

// HealthHandler serves the unauthenticated service endpoints.
type HealthHandler struct {
	version string
	started time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now()}
}

// HealthResponse is the JSON response for /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// Health always reports healthy; the backend has no external dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "Civic Issues API is running",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

// Root describes the API.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Civic Issues API",
		"version": h.version,
	})
}
