package plugin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	detectRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_plugin_detect_requests_total",
			Help: "Total number of text detection calls",
		},
		[]string{"status"}, // status: success, error, not_initialized
	)

	detectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ocr_plugin_detect_duration_seconds",
			Help:    "Text detection duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		},
	)

	regionsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ocr_plugin_regions_returned",
			Help:    "Number of text regions returned per call",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	regionsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ocr_plugin_regions_discarded_total",
			Help: "Total number of engine detections dropped as too small",
		},
	)

	unsupportedCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_plugin_unsupported_calls_total",
			Help: "Total number of calls to capabilities the plugin does not provide",
		},
		[]string{"operation"},
	)
)
