package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type HealthChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

type HealthStatus struct {
	Status   string           `json:"status"`
	Database DependencyHealth `json:"database"`
	Redis    DependencyHealth `json:"redis"`
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// NewHealthChecker accepts nil for dependencies the server runs without
func NewHealthChecker(db *pgxpool.Pool, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient}
}

// CheckBasic pings each configured dependency. Redis only degrades the status,
// since the engine keeps working without its cache.
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "healthy"}

	if h.db != nil {
		status.Database = check(ctx, h.db.Ping)
		if status.Database.Status != "healthy" {
			status.Status = "unhealthy"
		}
	} else {
		status.Database = DependencyHealth{Status: "in-memory"}
	}

	if h.redis != nil {
		status.Redis = check(ctx, func(ctx context.Context) error { return h.redis.Ping(ctx).Err() })
		if status.Redis.Status != "healthy" && status.Status == "healthy" {
			status.Status = "degraded"
		}
	} else {
		status.Redis = DependencyHealth{Status: "disabled"}
	}

	return status
}

func check(ctx context.Context, ping func(context.Context) error) DependencyHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DependencyHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
