package grouping

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	opts := DefaultOptions()
	opts.PageSummary = &SummarySpec{Content: map[int]ContentSpec{2: {Source: "sum"}}}
	footer := &SummarySpec{Content: map[int]ContentSpec{2: {Source: "sum"}}}
	e := newTestEngine(opts)
	e.Metrics = m
	e.Process(salesRows(regionCitySales, nil, footer))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues("0")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Runs.WithLabelValues("1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SummaryRows.WithLabelValues("footer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryRows.WithLabelValues("page_summary")))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Positive(t, n)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.pass()
		m.run(0)
		m.summaryRow(ROW_KIND_FOOTER)
		m.reconciled(3)
	})
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"default", DefaultOptions(), false},
		{"zero value", Options{}, false},
		{"negative levels", Options{MaxLevels: -1}, true},
		{"same separators", Options{DecimalSeparator: ",", ThousandSeparator: ","}, true},
		{"reversed merge", Options{PageSummary: &SummarySpec{MergeColumns: [][2]int{{3, 1}}}}, true},
		{"unknown format", Options{PageSummary: &SummarySpec{Content: map[int]ContentSpec{0: {Source: "sum", Format: "pct"}}}}, true},
		{"callback without func", Options{PageSummary: &SummarySpec{Content: map[int]ContentSpec{0: {Format: FORMAT_CALLBACK}}}}, true},
		{"negative decimals", Options{PageSummary: &SummarySpec{Content: map[int]ContentSpec{0: {Source: "sum", Decimals: -2}}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.opts.Validate()
			if tt.wantErr {
				assert.NotNil(t, res)
			} else {
				assert.Nil(t, res)
			}
		})
	}
}

func TestOptionsMaybeDefault(t *testing.T) {
	o := Options{ThousandSeparator: ""}
	o.MaybeDefault()
	assert.Equal(t, DEFAULT_MAX_LEVELS, o.MaxLevels)
	assert.Equal(t, DEFAULT_RECONCILE_LEVELS, o.ReconcileFromLevels)
	assert.Equal(t, DEFAULT_DECIMAL_SEPARATOR, o.DecimalSeparator)
	assert.Equal(t, "", o.ThousandSeparator)
}
