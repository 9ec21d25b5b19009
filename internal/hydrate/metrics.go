package hydrate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintrace_hydrate_cache_hits_total",
		Help: "Chunk IDs skipped because they were already resolved or errored",
	})
	batchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintrace_hydrate_batch_fallbacks_total",
		Help: "Bulk fetches that failed and fell back to per-ID requests",
	})
	fetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintrace_hydrate_fetch_errors_total",
		Help: "Chunk IDs that ended in the error map after a fetch attempt",
	})
)
