package regrid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	partitionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regrid_partition_cache_hits_total",
		Help: "The total number of partition lookups answered by the caller's leaf cache",
	})
	partitionCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regrid_partition_cache_misses_total",
		Help: "The total number of partition lookups that walked the tree",
	})
	estimatorPolynomialQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regrid_estimator_polynomial_queries_total",
		Help: "The total number of location queries answered by polynomial evaluation",
	})
	estimatorExactQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regrid_estimator_exact_queries_total",
		Help: "The total number of location queries that fell back to exact transforms",
	})
	pixelsResampled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regrid_pixels_resampled_total",
		Help: "The total number of destination pixels assigned a source value",
	})
	rectanglesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regrid_rectangles_skipped_total",
		Help: "The total number of source rectangles skipped for inconsistent orientation or failed fits",
	})
	mapCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regrid_map_cache_hits_total",
		Help: "The total number of hits on the resampling map cache",
	})
	mapCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regrid_map_cache_misses_total",
		Help: "The total number of misses on the resampling map cache",
	})
)
