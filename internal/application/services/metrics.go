package services

import "github.com/prometheus/client_golang/prometheus"

var (
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_resolutions_total",
			Help: "Image URL resolutions by source",
		},
		[]string{"source"},
	)

	cacheEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_cache_events_total",
			Help: "Cache hits and misses by namespace",
		},
		[]string{"namespace", "event"},
	)
)

func init() {
	prometheus.MustRegister(resolutionsTotal)
	prometheus.MustRegister(cacheEventsTotal)
}

func recordCacheHit(namespace string)  { cacheEventsTotal.WithLabelValues(namespace, "hit").Inc() }
func recordCacheMiss(namespace string) { cacheEventsTotal.WithLabelValues(namespace, "miss").Inc() }
