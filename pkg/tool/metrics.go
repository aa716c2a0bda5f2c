package tool

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/fluxcd/kubeingest/metrics"
)

var (
	runDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "kubeingest",
		Subsystem: "tool",
		Name:      "run_duration_seconds",
		Help:      "Duration of running external tools, in seconds.",
		Buckets:   stdprometheus.ExponentialBuckets(0.05, 3, 8),
	}, []string{metrics.LabelTool, metrics.LabelSuccess})
)
