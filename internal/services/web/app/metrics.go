package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	calculations *prometheus.CounterVec
	volume       prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		calculations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fertigation_calculations_total",
			Help: "Form submissions by growth stage and outcome.",
		}, []string{"stage", "outcome"}),
		volume: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fertigation_tank_volume_liters",
			Help:    "Tank volume of successful calculations.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8), // 10 L .. ~160 m3
		}),
	}
}
