// Package metrics holds the Prometheus collectors of the link card service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes, one per classification the fetcher can produce.
const (
	OutcomeOK                 = "ok"
	OutcomeCredentialRequired = "credential_required"
	OutcomeFetchFailed        = "fetch_failed"
	OutcomeParseFailed        = "parse_failed"
	OutcomeUnknown            = "unknown"
)

// Metrics bundles Prometheus collectors for fetching and extraction.
type Metrics struct {
	Registry      *prometheus.Registry
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	TierTotal     *prometheus.CounterVec
	CardsTotal    prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkcard_fetch_total",
			Help: "Product page fetches by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkcard_fetch_duration_seconds",
			Help:    "Time to fetch and extract one product page.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)
	tierTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkcard_extract_tier_total",
			Help: "Which fallback tier produced each field. Tier 0 means the field was not found.",
		},
		[]string{"field", "tier"},
	)
	cardsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "linkcard_cards_rendered_total",
			Help: "Total number of link cards rendered.",
		},
	)

	registry.MustRegister(fetchTotal, fetchDuration, tierTotal, cardsTotal)

	return &Metrics{
		Registry:      registry,
		FetchTotal:    fetchTotal,
		FetchDuration: fetchDuration,
		TierTotal:     tierTotal,
		CardsTotal:    cardsTotal,
	}
}

// IncFetch increments the fetch counter for an outcome label.
func (m *Metrics) IncFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records how long one fetch took on engine.
func (m *Metrics) ObserveFetch(engine string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// IncTier records that tier located field.
func (m *Metrics) IncTier(field string, tier int) {
	if m == nil {
		return
	}
	m.TierTotal.WithLabelValues(field, strconv.Itoa(tier)).Inc()
}

// IncCards increments the rendered cards counter.
func (m *Metrics) IncCards() {
	if m == nil {
		return
	}
	m.CardsTotal.Inc()
}
