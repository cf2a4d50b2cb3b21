package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "headless"

// Metrics holds the console pipeline collectors.
type Metrics struct {
	LinesReceived   prometheus.Counter
	LinesRejected   prometheus.Counter
	CommandsEntered *prometheus.CounterVec
	UnknownCommands prometheus.Counter
	ParseErrors     *prometheus.CounterVec
	OutputLines     prometheus.Counter
	Cycles          prometheus.Counter
	CommandsSkipped prometheus.Counter
	Registered      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_received_total",
			Help:      "Total number of lines drained from line sources",
		}),
		LinesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_rejected_total",
			Help:      "Total number of lines rejected by input sanitation",
		}),
		CommandsEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_entered_total",
			Help:      "Total number of routed commands",
		}, []string{"command"}),
		UnknownCommands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_commands_total",
			Help:      "Total number of lines naming an unregistered command",
		}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Total number of argument parse failures",
		}, []string{"command"}),
		OutputLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_lines_total",
			Help:      "Total number of output lines emitted",
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of completed pipeline cycles",
		}),
		CommandsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_phase_skipped_total",
			Help:      "Total number of cycles whose Commands phase was skipped",
		}),
		Registered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_commands",
			Help:      "Number of commands in the registry",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.LinesReceived, m.LinesRejected, m.CommandsEntered, m.UnknownCommands,
			m.ParseErrors, m.OutputLines, m.Cycles, m.CommandsSkipped, m.Registered,
		)
	}
	return m
}

func (m *Metrics) LineReceived() {
	if m != nil {
		m.LinesReceived.Inc()
	}
}

func (m *Metrics) LineRejected() {
	if m != nil {
		m.LinesRejected.Inc()
	}
}

func (m *Metrics) CommandEntered(name string) {
	if m != nil {
		m.CommandsEntered.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) UnknownCommand() {
	if m != nil {
		m.UnknownCommands.Inc()
	}
}

func (m *Metrics) ParseError(name string) {
	if m != nil {
		m.ParseErrors.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) Output() {
	if m != nil {
		m.OutputLines.Inc()
	}
}

func (m *Metrics) Cycle() {
	if m != nil {
		m.Cycles.Inc()
	}
}

func (m *Metrics) Skipped() {
	if m != nil {
		m.CommandsSkipped.Inc()
	}
}

func (m *Metrics) SetRegistered(n int) {
	if m != nil {
		m.Registered.Set(float64(n))
	}
}
