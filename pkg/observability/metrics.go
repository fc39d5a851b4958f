// Package observability exposes Prometheus instrumentation for the cache-aside
// read path. Counters are labelled by key family so thread and user-list
// traffic can be told apart.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Key families used as metric label values.
const (
	KeyFamilyThread      = "thread"
	KeyFamilyUserThreads = "threads_user"
)

// CacheMetrics counts cache-aside outcomes. A nil *CacheMetrics is valid and
// records nothing, so services can be constructed without a registry in tests.
type CacheMetrics struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	errors        prometheus.Counter
	invalidations prometheus.Counter
	storeReads    prometheus.Counter
}

// NewCacheMetrics registers the cache counters with the given registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	factory := promauto.With(reg)
	return &CacheMetrics{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Subsystem: "thread_cache",
			Name:      "hits_total",
			Help:      "Reads served from cache.",
		}, []string{"family"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Subsystem: "thread_cache",
			Name:      "misses_total",
			Help:      "Reads that fell back to the store.",
		}, []string{"family"}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Subsystem: "thread_cache",
			Name:      "errors_total",
			Help:      "Cache operations that failed and were absorbed.",
		}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Subsystem: "thread_cache",
			Name:      "invalidations_total",
			Help:      "Cache entries deleted by mutating operations.",
		}),
		storeReads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Subsystem: "thread_cache",
			Name:      "store_reads_total",
			Help:      "Read sequences issued against the document store.",
		}),
	}
}

// Hit records a cache hit for the given key family.
func (m *CacheMetrics) Hit(family string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(family).Inc()
}

// Miss records a cache miss for the given key family.
func (m *CacheMetrics) Miss(family string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(family).Inc()
}

// Error records an absorbed cache failure.
func (m *CacheMetrics) Error() {
	if m == nil {
		return
	}
	m.errors.Inc()
}

// Invalidation records a deleted cache entry.
func (m *CacheMetrics) Invalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

// StoreRead records a read sequence against the store.
func (m *CacheMetrics) StoreRead() {
	if m == nil {
		return
	}
	m.storeReads.Inc()
}
