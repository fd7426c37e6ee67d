package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports ok when every configured dependency answers a ping.
type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if check == nil {
			resp.Checks[name] = "disabled"
			resp.Status = "degraded"
			continue
		}
		if err := check.Ping(ctx); err != nil {
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httperrors.Write(w, status, resp)
}
