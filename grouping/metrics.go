package grouping

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Passes          prometheus.Counter
	Runs            *prometheus.CounterVec
	SummaryRows     *prometheus.CounterVec
	ReconciledCells prometheus.Counter
}

// NewMetrics creates the engine collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grouptable",
			Name:      "passes_total",
			Help:      "Number of grouping passes run.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grouptable",
			Name:      "runs_total",
			Help:      "Number of runs collapsed, by nesting level.",
		}, []string{"level"}),
		SummaryRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grouptable",
			Name:      "synthesized_rows_total",
			Help:      "Number of marker, header, footer and page summary rows synthesized.",
		}, []string{"kind"}),
		ReconciledCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grouptable",
			Name:      "reconciled_cells_total",
			Help:      "Number of spans and footer cells corrected by reconciliation.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Passes, m.Runs, m.SummaryRows, m.ReconciledCells)
	}
	return m
}

func (m *Metrics) pass() {
	if m == nil {
		return
	}
	m.Passes.Inc()
}

func (m *Metrics) run(level int) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(strconv.Itoa(level)).Inc()
}

func (m *Metrics) summaryRow(kind RowKind) {
	if m == nil {
		return
	}
	m.SummaryRows.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) reconciled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReconciledCells.Add(float64(n))
}
