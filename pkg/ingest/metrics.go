package ingest

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/fluxcd/kubeingest/metrics"
)

var (
	ingestDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "kubeingest",
		Subsystem: "ingest",
		Name:      "duration_seconds",
		Help:      "Duration of ingesting a batch of manifests, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{metrics.LabelSuccess})
	resourcesTotal = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "kubeingest",
		Subsystem: "ingest",
		Name:      "resources_total",
		Help:      "Count of resources constructed, by kind.",
	}, []string{metrics.LabelKind})
)
