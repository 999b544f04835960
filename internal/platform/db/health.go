package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the connection pool snapshot reported by the health endpoint.
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
	AcquireCount  int64 `json:"acquire_count"`
}

// HealthStatus is the body returned by HealthHandler.
type HealthStatus struct {
	Status string     `json:"status"`
	Schema string     `json:"schema"`
	Error  string     `json:"error,omitempty"`
	Pool   *PoolStats `json:"pool,omitempty"`
}

// GetPoolStats returns connection counters for pool.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
		AcquireCount:  stat.AcquireCount(),
	}
}

// NewHealthStatus builds the response for a ping outcome.
func NewHealthStatus(schema string, pingErr error, stats *PoolStats) HealthStatus {
	hs := HealthStatus{Status: "healthy", Schema: schema, Pool: stats}
	if pingErr != nil {
		hs.Status = "unhealthy"
		hs.Error = pingErr.Error()
	}
	return hs
}

// HealthHandler pings the database the seeder writes to.
func HealthHandler(pool *pgxpool.Pool, schema string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		hs := NewHealthStatus(schema, pool.Ping(ctx), GetPoolStats(pool))
		if hs.Status != "healthy" {
			return c.JSON(http.StatusServiceUnavailable, hs)
		}
		return c.JSON(http.StatusOK, hs)
	}
}
