package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for one server instance. Each
// server owns its registry so tests can run several side by side.
type metrics struct {
	registry *prometheus.Registry

	lookupsTotal    prometheus.Counter
	lookupNoMatch   prometheus.Counter
	uploadsTotal    prometheus.Counter
	moviesSearched  prometheus.Counter
	enrichBatchSize prometheus.Histogram
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		lookupsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crewlink_lookups_total",
			Help: "Identity lookups requested through the API.",
		}),
		lookupNoMatch: factory.NewCounter(prometheus.CounterOpts{
			Name: "crewlink_lookup_no_match_total",
			Help: "Identity lookups that resolved to no match.",
		}),
		uploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crewlink_uploads_total",
			Help: "Spreadsheet uploads processed.",
		}),
		moviesSearched: factory.NewCounter(prometheus.CounterOpts{
			Name: "crewlink_movies_searched_total",
			Help: "Movie searches served.",
		}),
		enrichBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crewlink_enrich_batch_size",
			Help:    "Crew records per enrichment batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}
