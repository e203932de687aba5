package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/giftgate/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Count  *int   `json:"count,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports 200 when ownership checks can be served. A Redis outage only
// degrades the service: the memory cache keeps working.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gifts := d.Gifts.Count()
		listings := d.Ledger.Count()

		components := map[string]componentStatus{
			"identity": checkIdentity(d),
			"redis":    checkRedis(r.Context(), d),
			"gift_cache": {
				OK:    true,
				Count: &gifts,
			},
			"ledger": {
				OK:    true,
				Count: &listings,
			},
		}

		resp := readyzResponse{
			Ready:      components["identity"].OK,
			Mode:       determineMode(components),
			Components: components,
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, status, resp)
	}
}

func determineMode(components map[string]componentStatus) string {
	if !components["identity"].OK {
		return "critical" // no ownership checks possible
	}
	if redis := components["redis"]; !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}
	return "operational"
}

func checkIdentity(d deps.Deps) componentStatus {
	if d.Identity == nil || !d.Identity.Ready() {
		return componentStatus{
			OK:     false,
			Impact: "ownership-checks-unavailable",
			Error:  "not connected",
		}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Redis == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "memory-cache-only",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Redis.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "memory-cache-only",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:   true,
		Mode: "mirrored",
	}
}
