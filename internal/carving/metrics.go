package carving

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const modeLabel = "mode"

var (
	voxelsExamined = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carve_voxels_examined_total",
		Help: "The number of voxels projected by a carve.",
	}, []string{
		modeLabel,
	})

	voxelsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carve_voxels_removed_total",
		Help: "The number of voxels removed by a carve.",
	}, []string{
		modeLabel,
	})

	carveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carve_latency_seconds",
		Help:    "The time to carve a grid with one view.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{
		modeLabel,
	})
)

func instrumentCarve(r Result, start time.Time) {
	labels := prometheus.Labels{modeLabel: string(r.Mode)}
	voxelsExamined.With(labels).Add(float64(r.Examined))
	voxelsRemoved.With(labels).Add(float64(r.Removed))
	carveLatency.With(labels).Observe(time.Since(start).Seconds())
}
