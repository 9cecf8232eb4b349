package controllers

import (
	"context"
	"net/http"
	"time"

	"meetupbot/internal/delivery/http/helpers"
)

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

type HealthController struct {
	DB      Pinger
	Timeout time.Duration
}

// NewHealthController returns a HealthController. db may be nil when the process
// runs on memory storage.
func NewHealthController(db Pinger) *HealthController {
	return &HealthController{DB: db, Timeout: 2 * time.Second}
}

// Health godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status: ok"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error (database unreachable)"
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if c.DB == nil {
		helpers.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), c.Timeout)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "database unreachable")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}
