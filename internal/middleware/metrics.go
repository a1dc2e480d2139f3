package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "racketlog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StorageReleaseFailures counts media asset deletions that failed after a
	// successful database commit. These are degraded gracefully, never rolled back.
	StorageReleaseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "racketlog_storage_release_failures_total",
		Help: "Total number of failed media asset releases by entity type",
	}, []string{"entity"})

	// FavoriteToggles counts favorite add/remove operations.
	FavoriteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "racketlog_favorite_toggles_total",
		Help: "Total number of favorite toggle operations by direction",
	}, []string{"direction"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
