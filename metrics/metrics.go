// Package metrics exposes Prometheus collectors for the recommendation service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recommendation outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

var (
	RecommendationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "property",
		Name:      "recommendation_duration_seconds",
		Help:      "Time spent vectorising the dataset and ranking candidates.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"outcome"})

	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "property",
		Name:      "recommendations_total",
		Help:      "Recommendation requests by outcome.",
	}, []string{"outcome"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "property",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route template and status code.",
	}, []string{"route", "status"})

	DatasetListings = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "property",
		Name:      "dataset_listings",
		Help:      "Listings in the currently served dataset snapshot.",
	})
)

// ObserveRecommendation records one engine call.
func ObserveRecommendation(outcome string, elapsed time.Duration) {
	RecommendationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	RecommendationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTP counts one served request.
func ObserveHTTP(route string, status int) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
