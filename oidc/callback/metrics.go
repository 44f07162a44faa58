// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"time"

	"github.com/hashicorp/capflow/oidc/flow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records the outcomes of the requests handled by Authenticate.
type Metrics struct {
	Outcomes *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates Metrics registered with the registerer.  A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capflow_authentication_outcomes_total",
			Help: "Total number of authentication requests by outcome",
		}, []string{"outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capflow_authentication_duration_seconds",
			Help:    "Duration of authentication requests by outcome",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}),
	}
}

// Observe records a request with the outcome k which started at start.
func (m *Metrics) Observe(k flow.Kind, start time.Time) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(k.String()).Inc()
	m.Duration.WithLabelValues(k.String()).Observe(time.Since(start).Seconds())
}
