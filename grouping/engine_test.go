package grouping

import (
	"fmt"
	"testing"

	"github.com/soderasen-au/go-common/loggers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

type sale struct {
	region string
	city   string
	sales  float64
}

var regionCitySales = []sale{
	{"East", "NY", 100},
	{"East", "NY", 150},
	{"East", "Boston", 50},
	{"West", "LA", 200},
}

// salesRows builds region(0) / city(1) / sales(2) rows. header and footer go
// on the region cells.
func salesRows(data []sale, header, footer *SummarySpec) []*Row {
	rows := make([]*Row, 0, len(data))
	for i, d := range data {
		rows = append(rows, NewRow(fmt.Sprintf("r%d", i),
			&Cell{Seq: 0, Text: d.region, GroupKey: "region", Header: header, Footer: footer},
			&Cell{Seq: 1, Text: d.city, GroupKey: "city", SubGroupOf: ptr(0)},
			&Cell{Seq: 2, Text: FormatNumber(d.sales, 0, ".", ","), Raw: ptr(d.sales)},
		))
	}
	return rows
}

func newTestEngine(opts Options) *Engine {
	return NewEngine(opts, NewRegistry(), loggers.CoreDebugLogger)
}

func kinds(t *Table) []RowKind {
	ret := make([]RowKind, 0, len(t.Rows))
	for _, r := range t.Rows {
		ret = append(ret, r.Kind)
	}
	return ret
}

func texts(r *Row) map[int]string {
	ret := make(map[int]string)
	for _, c := range r.VisibleCells() {
		ret[c.Seq] = c.Text
	}
	return ret
}

func TestProcessRegionCity(t *testing.T) {
	opts := DefaultOptions()
	opts.PageSummary = &SummarySpec{Content: map[int]ContentSpec{2: {Source: "sum"}}}
	footer := &SummarySpec{Content: map[int]ContentSpec{2: {Source: "sum"}}}
	input := salesRows(regionCitySales, nil, footer)

	e := newTestEngine(opts)
	tbl := e.Process(input)

	require.Equal(t, []RowKind{
		ROW_KIND_DATA, ROW_KIND_DATA, ROW_KIND_DATA, ROW_KIND_FOOTER,
		ROW_KIND_DATA, ROW_KIND_FOOTER,
		ROW_KIND_PAGE_SUMMARY,
	}, kinds(tbl))
	assert.Equal(t, 2, tbl.Levels)
	assert.Equal(t, []int{0, 1, 2}, tbl.Columns)

	r0 := tbl.Rows[0]
	assert.Equal(t, 4, r0.Cell(0).RowSpan, "East spans its three rows and its footer")
	assert.Equal(t, 2, r0.Cell(1).RowSpan, "NY")
	assert.True(t, tbl.Rows[1].Cell(0).Hidden)
	assert.True(t, tbl.Rows[1].Cell(1).Hidden)
	assert.False(t, tbl.Rows[2].Cell(1).Hidden)
	assert.Equal(t, 1, tbl.Rows[2].Cell(1).RowSpan, "Boston")

	assert.Equal(t, map[int]string{1: "", 2: "300"}, texts(tbl.Rows[3]))
	assert.Equal(t, 2, tbl.Rows[4].Cell(0).RowSpan, "West spans its row and its footer")
	assert.Equal(t, map[int]string{1: "", 2: "200"}, texts(tbl.Rows[5]))
	assert.Equal(t, map[int]string{0: "", 1: "", 2: "500"}, texts(tbl.Rows[6]))

	assert.True(t, tbl.Rows[4].IsLastDataRow)
	assert.False(t, tbl.Rows[0].IsLastDataRow)

	require.Len(t, tbl.Groups[0], 2)
	assert.Equal(t, 3, tbl.Groups[0][0].Size)
	assert.Equal(t, "East", tbl.Groups[0][0].Key)
	assert.Equal(t, ODD_CLASS, r0.Cell(0).Class)
	assert.Equal(t, EVEN_CLASS, tbl.Rows[4].Cell(0).Class)

	// the snapshot passed in is not touched
	assert.False(t, input[1].Cell(0).Hidden)
	assert.Equal(t, 0, input[0].Cell(0).RowSpan)
	assert.Len(t, input, 4)
}

func TestProcessIsRepeatable(t *testing.T) {
	opts := DefaultOptions()
	opts.PageSummary = &SummarySpec{Content: map[int]ContentSpec{2: {Source: "sum"}}}
	header := &SummarySpec{Content: map[int]ContentSpec{1: {Source: "Region"}, 2: {Source: "count"}}}
	footer := &SummarySpec{Content: map[int]ContentSpec{2: {Source: "sum"}}}

	e := newTestEngine(opts)
	first := e.Process(salesRows(regionCitySales, header, footer))
	second := e.Process(first.Rows)

	assert.Equal(t, 2, e.Passes())
	require.Equal(t, kinds(first), kinds(second), "stale summary rows are replaced, not duplicated")
	for i := range first.Rows {
		assert.Equal(t, texts(first.Rows[i]), texts(second.Rows[i]), "row %d", i)
	}
}

func TestProcessKeepsCallerEngine(t *testing.T) {
	e := &Engine{Options: DefaultOptions()}
	tbl := e.Process(salesRows(regionCitySales, nil, nil))

	assert.NotEmpty(t, tbl.Rows)
	assert.Nil(t, e.Logger, "a pass logs through a local fallback")
	assert.Equal(t, 1, e.Passes())
}

func TestProcessHeaderTakesRunCell(t *testing.T) {
	header := &SummarySpec{Content: map[int]ContentSpec{1: {Source: "Cities"}, 2: {Source: "count"}}}
	tbl := newTestEngine(DefaultOptions()).Process(salesRows(regionCitySales, header, nil))

	require.Equal(t, []RowKind{
		ROW_KIND_HEADER, ROW_KIND_DATA, ROW_KIND_DATA, ROW_KIND_DATA,
		ROW_KIND_HEADER, ROW_KIND_DATA,
	}, kinds(tbl))

	h := tbl.Rows[0]
	east := h.Cell(0)
	require.NotNil(t, east, "the region cell moves up into the header")
	assert.Equal(t, "East", east.Text)
	assert.Equal(t, 4, east.RowSpan)
	assert.Nil(t, tbl.Rows[1].Cell(0))
	assert.Equal(t, "Cities", h.Cell(1).Text)
	assert.Equal(t, "3", h.Cell(2).Text, "count of sales cells in the run")
	assert.Equal(t, "1", tbl.Rows[4].Cell(2).Text)
}

func TestProcessWithoutGroups(t *testing.T) {
	opts := DefaultOptions()
	opts.PageSummary = &SummarySpec{Content: map[int]ContentSpec{0: {Source: "Total"}, 1: {Source: "avg", Decimals: 1}}}
	rows := []*Row{
		NewRow("a", &Cell{Seq: 0, Text: "x"}, &Cell{Seq: 1, Text: "1"}),
		NewRow("b", &Cell{Seq: 0, Text: "x"}, &Cell{Seq: 1, Text: "2"}),
	}
	tbl := newTestEngine(opts).Process(rows)

	assert.Equal(t, 0, tbl.Levels)
	require.Equal(t, []RowKind{ROW_KIND_DATA, ROW_KIND_DATA, ROW_KIND_PAGE_SUMMARY}, kinds(tbl))
	assert.False(t, tbl.Rows[1].Cell(0).Hidden, "plain columns are never collapsed")
	assert.Equal(t, map[int]string{0: "Total", 1: "1.5"}, texts(tbl.Rows[2]))
}

func TestProcessEmpty(t *testing.T) {
	opts := DefaultOptions()
	opts.PageSummary = &SummarySpec{Content: map[int]ContentSpec{0: {Source: "sum"}}}
	tbl := newTestEngine(opts).Process(nil)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, 0, tbl.Levels)
}

func TestProcessEmptyAndZero(t *testing.T) {
	footer := &SummarySpec{Content: map[int]ContentSpec{1: {Source: "sum"}, 2: {Source: "count"}}}
	rows := []*Row{
		NewRow("a", &Cell{Seq: 0, Text: "Zero", GroupKey: "g", Footer: footer}, &Cell{Seq: 1, Text: "0", Raw: ptr(0.0)}),
		NewRow("b", &Cell{Seq: 0, Text: "Missing", GroupKey: "g", Footer: footer}),
		NewRow("c", &Cell{Seq: 0, Text: "Missing", GroupKey: "g", Footer: footer}, &Cell{Seq: 2, Text: "x"}),
	}
	tbl := newTestEngine(DefaultOptions()).Process(rows)
	footers := tbl.RowsOfKind(ROW_KIND_FOOTER)
	require.Len(t, footers, 2)
	assert.Equal(t, "0", footers[0].Cell(1).Text)
	assert.Equal(t, "", footers[0].Cell(2).Text)
	assert.Equal(t, "", footers[1].Cell(1).Text, "no values is not zero")
	assert.Equal(t, "1", footers[1].Cell(2).Text)
}

func TestProcessIgnoresExtraGroupColumns(t *testing.T) {
	rows := []*Row{
		NewRow("a", &Cell{Seq: 0, Text: "A", GroupKey: "g"}, &Cell{Seq: 1, Text: "X", GroupKey: "h"}),
		NewRow("b", &Cell{Seq: 0, Text: "A", GroupKey: "g"}, &Cell{Seq: 1, Text: "X", GroupKey: "h"}),
	}
	tbl := newTestEngine(DefaultOptions()).Process(rows)
	assert.Equal(t, 1, tbl.Levels)
	assert.True(t, tbl.Rows[1].Cell(0).Hidden)
	assert.False(t, tbl.Rows[1].Cell(1).Hidden, "second top level column is left alone")
}

func TestProcessMaxLevels(t *testing.T) {
	rows := []*Row{
		NewRow("a",
			&Cell{Seq: 0, Text: "A", GroupKey: "g"},
			&Cell{Seq: 1, Text: "B", GroupKey: "g", SubGroupOf: ptr(0)},
			&Cell{Seq: 2, Text: "C", GroupKey: "g", SubGroupOf: ptr(1)},
		),
		NewRow("b",
			&Cell{Seq: 0, Text: "A", GroupKey: "g"},
			&Cell{Seq: 1, Text: "B", GroupKey: "g", SubGroupOf: ptr(0)},
			&Cell{Seq: 2, Text: "C", GroupKey: "g", SubGroupOf: ptr(1)},
		),
	}
	opts := DefaultOptions()
	opts.MaxLevels = 2
	tbl := newTestEngine(opts).Process(rows)
	assert.Equal(t, 2, tbl.Levels)
	assert.True(t, tbl.Rows[1].Cell(1).Hidden)
	assert.False(t, tbl.Rows[1].Cell(2).Hidden)
}

func TestProcessRunClassFromCss(t *testing.T) {
	rows := []*Row{
		NewRow("a", &Cell{Seq: 0, Text: "A", GroupKey: "g", OddCss: "o", EvenCss: "e"}),
		NewRow("b", &Cell{Seq: 0, Text: "B", GroupKey: "g", OddCss: "o", EvenCss: "e"}),
		NewRow("c", &Cell{Seq: 0, Text: "C", GroupKey: "g", OddCss: "o", EvenCss: "e"}),
	}
	tbl := newTestEngine(DefaultOptions()).Process(rows)
	assert.Equal(t, "o", tbl.Rows[0].Cell(0).Class)
	assert.Equal(t, "e", tbl.Rows[1].Cell(0).Class)
	assert.Equal(t, "o", tbl.Rows[2].Cell(0).Class)
}

func TestProcessThreeLevels(t *testing.T) {
	regionFooter := &SummarySpec{Content: map[int]ContentSpec{3: {Source: "sum"}}}
	countryFooter := &SummarySpec{Content: map[int]ContentSpec{1: {Source: "Total"}, 3: {Source: "sum"}}}
	data := []struct {
		country, region, city string
		v                     float64
	}{
		{"A", "X", "p", 1},
		{"A", "X", "q", 2},
		{"A", "Y", "p", 3},
		{"B", "X", "p", 4},
	}
	rows := make([]*Row, 0, len(data))
	for i, d := range data {
		rows = append(rows, NewRow(fmt.Sprintf("r%d", i),
			&Cell{Seq: 0, Text: d.country, GroupKey: "country", Footer: countryFooter},
			&Cell{Seq: 1, Text: d.region, GroupKey: "region", SubGroupOf: ptr(0), Footer: regionFooter},
			&Cell{Seq: 2, Text: d.city, GroupKey: "city", SubGroupOf: ptr(1)},
			&Cell{Seq: 3, Text: fmt.Sprint(d.v), Raw: ptr(d.v)},
		))
	}
	tbl := newTestEngine(DefaultOptions()).Process(rows)

	require.Equal(t, 3, tbl.Levels)
	require.Equal(t, []RowKind{
		ROW_KIND_DATA, ROW_KIND_DATA, ROW_KIND_FOOTER,
		ROW_KIND_DATA, ROW_KIND_FOOTER, ROW_KIND_FOOTER,
		ROW_KIND_DATA, ROW_KIND_FOOTER, ROW_KIND_FOOTER,
	}, kinds(tbl))

	assert.Equal(t, map[int]string{2: "", 3: "3"}, texts(tbl.Rows[2]))
	assert.Equal(t, map[int]string{2: "", 3: "3"}, texts(tbl.Rows[4]))
	assert.Equal(t, map[int]string{1: "Total", 2: "", 3: "6"}, texts(tbl.Rows[5]))
	assert.Equal(t, map[int]string{2: "", 3: "4"}, texts(tbl.Rows[7]))
	assert.Equal(t, map[int]string{1: "Total", 2: "", 3: "4"}, texts(tbl.Rows[8]))

	assert.Equal(t, 6, tbl.Rows[0].Cell(0).RowSpan, "A")
	assert.Equal(t, 3, tbl.Rows[0].Cell(1).RowSpan, "A/X")
	assert.Equal(t, 2, tbl.Rows[3].Cell(1).RowSpan, "A/Y")
	assert.Equal(t, 3, tbl.Rows[6].Cell(0).RowSpan, "B")
	assert.Equal(t, 2, tbl.Rows[6].Cell(1).RowSpan, "B/X")
	assert.False(t, tbl.Rows[3].Cell(2).Hidden, "p under A/Y starts a new run")
}

func TestProcessGroupedRow(t *testing.T) {
	footer := &SummarySpec{Content: map[int]ContentSpec{1: {Source: "sum"}}}
	rows := []*Row{
		NewRow("a", &Cell{Seq: 0, Text: "East", GroupKey: "g", GroupedRow: true, Footer: footer}, &Cell{Seq: 1, Text: "100"}),
		NewRow("b", &Cell{Seq: 0, Text: "East", GroupKey: "g", GroupedRow: true, Footer: footer}, &Cell{Seq: 1, Text: "150"}),
		NewRow("c", &Cell{Seq: 0, Text: "West", GroupKey: "g", GroupedRow: true, Footer: footer}, &Cell{Seq: 1, Text: "200"}),
	}
	tbl := newTestEngine(DefaultOptions()).Process(rows)

	require.Equal(t, []RowKind{
		ROW_KIND_MARKER, ROW_KIND_DATA, ROW_KIND_DATA, ROW_KIND_FOOTER,
		ROW_KIND_MARKER, ROW_KIND_DATA, ROW_KIND_FOOTER,
	}, kinds(tbl))
	assert.Equal(t, []int{1}, tbl.Columns, "grouped row columns are not rendered as columns")

	m := tbl.Rows[0]
	assert.Equal(t, 0, m.GroupSeq)
	require.Len(t, m.Cells, 1)
	assert.Equal(t, "East", m.Cells[0].Text)
	assert.Equal(t, 1, m.Cells[0].ColSpan)
	assert.True(t, tbl.Rows[1].Cell(0).Hidden)
	assert.True(t, tbl.Rows[2].Cell(0).Hidden)
	assert.Equal(t, map[int]string{1: "250"}, texts(tbl.Rows[3]))
	assert.Equal(t, map[int]string{1: "200"}, texts(tbl.Rows[6]))
}

func TestProcessGroupedRowUnderSpanningRun(t *testing.T) {
	header := &SummarySpec{Content: map[int]ContentSpec{2: {Source: "sum"}}}
	rows := make([]*Row, 0)
	for i, d := range regionCitySales[:3] {
		rows = append(rows, NewRow(fmt.Sprintf("r%d", i),
			&Cell{Seq: 0, Text: d.region, GroupKey: "region"},
			&Cell{Seq: 1, Text: d.city, GroupKey: "city", SubGroupOf: ptr(0), GroupedRow: true, Header: header},
			&Cell{Seq: 2, Text: fmt.Sprint(d.sales)},
		))
	}
	tbl := newTestEngine(DefaultOptions()).Process(rows)

	require.Equal(t, []RowKind{
		ROW_KIND_MARKER, ROW_KIND_HEADER, ROW_KIND_DATA, ROW_KIND_DATA,
		ROW_KIND_MARKER, ROW_KIND_HEADER, ROW_KIND_DATA,
	}, kinds(tbl))
	assert.Equal(t, []int{0, 2}, tbl.Columns)

	first := tbl.Rows[0]
	east := first.Cell(0)
	require.NotNil(t, east, "the spanning region cell sits on the first marker")
	assert.Equal(t, 7, east.RowSpan)
	ny := first.Cell(1)
	require.NotNil(t, ny)
	assert.Equal(t, "NY", ny.Text)
	assert.Equal(t, 1, ny.ColSpan, "region column is already covered")

	assert.Equal(t, map[int]string{2: "250"}, texts(tbl.Rows[1]))
	assert.Equal(t, map[int]string{2: "50"}, texts(tbl.Rows[5]))
	assert.Equal(t, "Boston", tbl.Rows[4].Cell(1).Text)
}

func TestProcessMergeColumns(t *testing.T) {
	footer := &SummarySpec{
		Content:        map[int]ContentSpec{1: {Source: "Total "}, 2: {Source: "count"}, 3: {Source: "sum", Decimals: 2}},
		MergeColumns:   [][2]int{{1, 2}},
		ContentOptions: map[int]map[string]string{3: {"bold": "true"}},
		RowOptions:     map[string]string{"bg_color": "#eeeeee"},
	}
	rows := []*Row{
		NewRow("a", &Cell{Seq: 0, Text: "A", GroupKey: "g", Footer: footer}, &Cell{Seq: 1, Text: "x"}, &Cell{Seq: 2, Text: "y"}, &Cell{Seq: 3, Text: "1.5"}),
		NewRow("b", &Cell{Seq: 0, Text: "A", GroupKey: "g", Footer: footer}, &Cell{Seq: 1, Text: "x"}, &Cell{Seq: 2, Text: "y"}, &Cell{Seq: 3, Text: "2"}),
	}
	tbl := newTestEngine(DefaultOptions()).Process(rows)
	f := tbl.RowsOfKind(ROW_KIND_FOOTER)
	require.Len(t, f, 1)

	require.Len(t, f[0].Cells, 2)
	assert.Equal(t, "Total 2", f[0].Cell(1).Text)
	assert.Equal(t, 2, f[0].Cell(1).ColSpan)
	assert.Nil(t, f[0].Cell(2))
	assert.Equal(t, "3.50", f[0].Cell(3).Text)
	assert.Equal(t, "true", f[0].Cell(3).Options["bold"])
	assert.Equal(t, "#eeeeee", f[0].Options["bg_color"])
}

func TestProcessCustomAggregator(t *testing.T) {
	reg := NewRegistry().Register("median", func(values []float64) string {
		return fmt.Sprint(values[len(values)/2])
	})
	footer := &SummarySpec{Content: map[int]ContentSpec{1: {Format: FORMAT_CALLBACK, Func: "median"}}}
	rows := []*Row{
		NewRow("a", &Cell{Seq: 0, Text: "A", GroupKey: "g", Footer: footer}, &Cell{Seq: 1, Text: "1"}),
		NewRow("b", &Cell{Seq: 0, Text: "A", GroupKey: "g", Footer: footer}, &Cell{Seq: 1, Text: "5"}),
		NewRow("c", &Cell{Seq: 0, Text: "A", GroupKey: "g", Footer: footer}, &Cell{Seq: 1, Text: "9"}),
	}
	tbl := NewEngine(DefaultOptions(), reg, nil).Process(rows)
	f := tbl.RowsOfKind(ROW_KIND_FOOTER)
	require.Len(t, f, 1)
	assert.Equal(t, "5", f[0].Cell(1).Text)
}
