package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omega_retrieval_duration_seconds",
			Help:    "Dataset retrieval duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"kind"},
	)

	RetrievalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omega_retrieval_total",
			Help: "Total dataset retrievals processed",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omega_cache_hits_total",
			Help: "Retrievals served from the warm dataset cache",
		},
		[]string{"kind"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omega_cache_misses_total",
			Help: "Retrievals that fell through to cold storage",
		},
		[]string{"kind"},
	)

	ColdPulls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omega_cold_pulls_total",
			Help: "Raw objects pulled from cold storage",
		},
		[]string{"kind"},
	)

	PopulateRaces = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "omega_cache_populate_races_total",
			Help: "Cache populations lost to a concurrent writer",
		},
	)

	UsersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "omega_users_registered_total",
			Help: "Total users registered",
		},
	)

	DatasetsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "omega_datasets_deleted_total",
			Help: "Cached datasets deleted",
		},
	)

	ObjectsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omega_objects_ingested_total",
			Help: "Raw objects written to cold storage",
		},
		[]string{"kind"},
	)

	TickerLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omega_ticker_lookups_total",
			Help: "Ticker symbol resolutions",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(RetrievalTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(ColdPulls)
	prometheus.MustRegister(PopulateRaces)
	prometheus.MustRegister(UsersRegistered)
	prometheus.MustRegister(DatasetsDeleted)
	prometheus.MustRegister(ObjectsIngested)
	prometheus.MustRegister(TickerLookups)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
