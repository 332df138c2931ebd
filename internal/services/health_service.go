package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"hotspotcli/internal/store"
	ws "hotspotcli/internal/websocket"
)

// HealthService reports process and dependency health
type HealthService struct {
	version   string
	db        *store.DB
	hub       *ws.Hub
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health check response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a health service
func NewHealthService(version string, db *store.DB, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		db:        db,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// Check reports overall health. The database ping is the only hard
// dependency; a failed ping degrades the overall status.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(s.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
		Services: map[string]interface{}{},
	}

	dbStatus := "healthy"
	if s.db != nil {
		if err := s.db.Reader.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
			status.Status = "degraded"
			s.logger.ErrorContext(ctx, "database ping failed", slog.String("error", err.Error()))
		}
	}
	status.Services["database"] = dbStatus

	if s.hub != nil {
		status.Services["websocket_clients"] = s.hub.ClientCount()
	}

	return status
}
