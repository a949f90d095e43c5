package host

import "github.com/prometheus/client_golang/prometheus"

var (
	blocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "host",
		Name:      "blocks_total",
		Help:      "Audio blocks processed",
	})

	overrunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "host",
		Name:      "overruns_total",
		Help:      "Blocks that exceeded their real-time budget",
	})

	workerQueueFull = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "host",
		Name:      "worker_queue_full_total",
		Help:      "Messages refused because a worker ring was full",
	})

	reloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "namd",
		Subsystem: "host",
		Name:      "model_reloads_total",
		Help:      "Reloads triggered by a change of the active model file",
	})
)

func init() {
	prometheus.MustRegister(blocksTotal, overrunsTotal, workerQueueFull, reloadsTotal)
}
