package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		uploadsTotal,
		uploadLatencyMs,
		uploadBytes,
	)
}

var (
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgbb_uploads_total",
			Help: "Upload attempts by result and failure kind.",
		},
		[]string{"success", "kind"},
	)

	uploadLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgbb_upload_latency_ms",
			Help:    "Upload round-trip latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"success"},
	)

	uploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imgbb_upload_bytes",
			Help:    "Size of uploaded images in bytes.",
			Buckets: prometheus.ExponentialBuckets(16<<10, 4, 7), // 16KiB .. 64MiB
		},
	)
)

func ObserveUpload(success bool, kind string, size int, elapsed time.Duration) {
	ok := strconv.FormatBool(success)
	uploadsTotal.WithLabelValues(ok, norm(kind)).Inc()
	uploadLatencyMs.WithLabelValues(ok).Observe(float64(elapsed.Milliseconds()))
	uploadBytes.Observe(float64(size))
}
