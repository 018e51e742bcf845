package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/rando-engine/internal/services/queue"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

type HealthHandler struct {
	storage storage.Storage
	queue   *queue.SeedQueue
	logger  *slog.Logger
}

func NewHealthHandler(store storage.Storage, seedQueue *queue.SeedQueue, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: store,
		queue:   seedQueue,
		logger:  logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]any)
	overallStatus := "healthy"

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	// A server without maps cannot generate anything.
	maps, err := h.storage.ListMaps(ctx)
	switch {
	case err != nil:
		h.logger.Warn("Map repository health check failed", "error", err)
		components["maps"] = map[string]any{"status": "unhealthy", "error": err.Error()}
		overallStatus = "degraded"
	case len(maps) == 0:
		components["maps"] = map[string]any{"status": "empty", "count": 0}
		overallStatus = "degraded"
	default:
		components["maps"] = map[string]any{"status": "healthy", "count": len(maps)}
	}

	if h.queue != nil {
		depth, err := h.queue.RequestQueueDepth(ctx)
		if err != nil {
			h.logger.Warn("Queue health check failed", "error", err)
			components["queue"] = map[string]any{"status": "unhealthy"}
			overallStatus = "degraded"
		} else {
			components["queue"] = map[string]any{"status": "healthy", "depth": depth}
		}
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "rando-engine",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
