package plugin

import "github.com/prometheus/client_golang/prometheus"

// Collectors are package-level and resolved up front: Inc on a plain counter is a
// single atomic add, which is what the audio thread can afford.
var (
	loadsRequested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "plugin",
		Name:      "load_requests_total",
		Help:      "Model load requests handed to the worker",
	})

	scheduleDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "plugin",
		Name:      "schedule_dropped_total",
		Help:      "Load requests dropped because the worker queue was full",
	})

	swapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "plugin",
		Name:      "swaps_total",
		Help:      "Model swaps performed on the audio side",
	})

	switchesDeferred = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "plugin",
		Name:      "switches_deferred_total",
		Help:      "Switch deliveries postponed because no replaced model could be retired",
	})

	freesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "plugin",
		Name:      "frees_total",
		Help:      "Replaced models destroyed by the worker",
	})

	loadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "plugin",
		Name:      "load_failures_total",
		Help:      "Model loads that failed and kept the previous model",
	})

	loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "namd",
		Subsystem: "plugin",
		Name:      "load_duration_seconds",
		Help:      "Time spent loading and priming a model in the worker",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

func init() {
	prometheus.MustRegister(loadsRequested, scheduleDropped, swapsTotal, switchesDeferred, freesTotal, loadFailures, loadDuration)
}
