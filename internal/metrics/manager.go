package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterWrites      *prometheus.CounterVec
	CounterRetries     *prometheus.CounterVec
	CounterPacePauses  prometheus.Counter
	CounterGenerations *prometheus.CounterVec
	CounterSetLogs     *prometheus.CounterVec

	// gauges
	GaugeInFlight prometheus.Gauge

	// histograms
	HistogramWriteDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("trainplan", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("trainplan", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterWrites := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_writes",
		Help:      "The total number of finished store writes",
	}, []string{"collection", "op", "outcome"})
	counterRetries := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_retries",
		Help:      "The total number of retries after a rate limited response",
	}, []string{"collection"})
	counterPacePauses := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "writer_pace_pauses",
		Help:      "The total number of proactive pacing pauses",
	})
	counterGenerations := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plan_generations",
		Help:      "The total number of plan generation runs",
	}, []string{"outcome"})
	counterSetLogs := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "set_logs",
		Help:      "The total number of upserted set logs",
	}, []string{"result"})

	gaugeInFlight := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "writer_in_flight",
		Help:      "Current number of store requests being executed by the writer",
	})

	histogramWriteDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_write_duration_seconds",
		Help:      "Duration of a store write including retries",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"collection", "op"})

	return &Manager{
		CounterWrites:          counterWrites,
		CounterRetries:         counterRetries,
		CounterPacePauses:      counterPacePauses,
		CounterGenerations:     counterGenerations,
		CounterSetLogs:         counterSetLogs,
		GaugeInFlight:          gaugeInFlight,
		HistogramWriteDuration: histogramWriteDuration,
	}
}
