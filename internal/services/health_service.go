package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// HealthService reports liveness and basic runtime statistics.
type HealthService struct {
	version   string
	startTime time.Time
	clients   func() int
	logger    *slog.Logger
}

// HealthStatus is the health check response body.
type HealthStatus struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Runtime   map[string]any `json:"runtime,omitempty"`
}

// NewHealthService creates the health service. clients reports the live
// websocket client count and may be nil.
func NewHealthService(version string, clients func() int, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		startTime: time.Now(),
		clients:   clients,
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns the service status snapshot.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	rt := map[string]any{
		"uptime_seconds": time.Since(s.startTime).Seconds(),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
	}
	if s.clients != nil {
		rt["websocket_clients"] = s.clients()
	}
	return HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Runtime:   rt,
	}
}
