package infra

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mandalnilabja/chatrelay/internal/version"
)

// RootStatus returns JSON status and version information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"name":    "chatrelay",
		"version": version.Version,
		"status":  "running",
		"chat":    "/api/chat/openrouter",
		"metrics": "/metrics",
	}
	writeJSON(w, response)
}

// HealthCheck handler returns the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":         "active",
		"app":            "chatrelay",
		"version":        version.Version,
		"uptime_seconds": int64(time.Since(h.StartTime).Seconds()),
	}
	writeJSON(w, response)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
