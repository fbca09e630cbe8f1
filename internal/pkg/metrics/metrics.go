package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gousers_http_requests_total",
			Help: "Total de requisições HTTP",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gousers_http_request_duration_seconds",
			Help:    "Duração das requisições HTTP (segundos)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gousers_database_operations_total",
			Help: "Total de operações no banco de dados",
		},
		[]string{"operation", "entity", "outcome"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gousers_database_operation_duration_seconds",
			Help:    "Duração das operações no banco de dados (segundos)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "entity"},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gousers_auth_events_total",
			Help: "Eventos de autenticação (registro, login, rejeição de token)",
		},
		[]string{"event", "result"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gousers_rate_limited_requests_total",
			Help: "Requisições bloqueadas pelo rate limiter",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gousers_cache_hits_total",
			Help: "Acertos no cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gousers_cache_misses_total",
			Help: "Falhas de cache (miss)",
		},
	)
)

func RecordHttpRequest(method, endpoint, status string, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDatabaseOperation registra a operação com outcome "ok" ou "error".
func RecordDatabaseOperation(operation, entity string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DatabaseOperationsTotal.WithLabelValues(operation, entity, outcome).Inc()
	DatabaseOperationDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

func RecordAuthEvent(event, result string) {
	AuthEventsTotal.WithLabelValues(event, result).Inc()
}

func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}
