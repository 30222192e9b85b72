package grouping

import (
	"fmt"
	"strings"
)

// summaryRef ties a synthesized row back to the run and spec it was built from.
type summaryRef struct {
	group *Group
	spec  *SummarySpec
}

// valueCollector returns the numeric values of column seq that feed a summary cell.
type valueCollector func(seq int, cs ContentSpec) []float64

func (p *pass) insertHeader(g *Group) {
	at := p.t.start(g)
	if at == nil {
		return
	}
	row := p.buildSummary(g, g.Header, ROW_KIND_HEADER, p.runCollector(g))
	p.t.insertBefore(at, row)
}

func (p *pass) insertFooter(g *Group) {
	at := p.t.terminal(g)
	if at == nil {
		return
	}
	row := p.buildSummary(g, g.Footer, ROW_KIND_FOOTER, p.runCollector(g))
	p.t.insertAfter(at, row)
}

func (p *pass) appendPageSummary(spec *SummarySpec) {
	row := p.buildSummary(nil, spec, ROW_KIND_PAGE_SUMMARY, p.pageCollector())
	p.t.Rows = append(p.t.Rows, row)
}

// buildSummary synthesizes a header, footer or page summary row. g is nil for
// the page summary.
func (p *pass) buildSummary(g *Group, spec *SummarySpec, kind RowKind, collect valueCollector) *Row {
	row := &Row{
		Kind:     kind,
		GroupSeq: NO_GROUP_SEQ,
		summary:  &summaryRef{group: g, spec: spec},
	}
	if g != nil {
		row.Key = fmt.Sprintf("%s:%s:%d:%s", g.First.Key, kind, g.Level, g.Key)
		row.GroupSeq = g.Level
		row.groups = p.membership(g)
	} else {
		row.Key = kind.String()
	}
	if len(spec.RowOptions) > 0 {
		row.Options = make(map[string]string, len(spec.RowOptions))
		for k, v := range spec.RowOptions {
			row.Options[k] = v
		}
	}
	row.Cells = p.summaryCells(g, spec, collect)
	p.m.summaryRow(kind)
	return row
}

// summaryCells builds one cell per visible column not already covered by the
// rowspan of g or one of its ancestors, then applies the merge ranges.
func (p *pass) summaryCells(g *Group, spec *SummarySpec, collect valueCollector) []*Cell {
	covered := make(map[int]bool)
	if g != nil {
		covered[g.seq] = true
		for _, x := range g.chain() {
			if x.spans() {
				covered[x.seq] = true
			}
		}
	}

	cells := make([]*Cell, 0, len(p.t.Columns))
	for _, seq := range p.t.Columns {
		if covered[seq] {
			continue
		}
		c := &Cell{Seq: seq, RowSpan: 1, ColSpan: 1, summary: true}
		if cs, ok := spec.Content[seq]; ok {
			var values []float64
			if cs.IsComputed() {
				values = collect(seq, cs)
			}
			c.Text = Summarize(values, cs, p.opts, p.reg)
		}
		if opts, ok := spec.ContentOptions[seq]; ok && len(opts) > 0 {
			c.Options = make(map[string]string, len(opts))
			for k, v := range opts {
				c.Options[k] = v
			}
		}
		cells = append(cells, c)
	}
	return mergeColumns(cells, spec.MergeColumns)
}

// mergeColumns folds every cell of an inclusive [from, to] range into the
// first cell of the range: texts are concatenated and colspans summed.
func mergeColumns(cells []*Cell, ranges [][2]int) []*Cell {
	for _, m := range ranges {
		from, to := m[0], m[1]
		if from > to {
			continue
		}
		var anchor *Cell
		var texts []string
		out := make([]*Cell, 0, len(cells))
		for _, c := range cells {
			if c.Seq < from || c.Seq > to {
				out = append(out, c)
				continue
			}
			texts = append(texts, c.Text)
			if anchor == nil {
				anchor = c
				out = append(out, c)
				continue
			}
			anchor.ColSpan = anchor.Cols() + c.Cols()
		}
		if anchor != nil {
			anchor.Text = strings.Join(texts, "")
		}
		cells = out
	}
	return cells
}

// runCollector reads the visible cells of the run's data rows in arena order.
// Deeper markers and summaries inside the run are skipped; a marker or summary
// at the run's own level or above ends it.
func (p *pass) runCollector(g *Group) valueCollector {
	return func(seq int, cs ContentSpec) []float64 {
		dec, thou := cs.separators(p.opts)
		values := make([]float64, 0, g.Size)
		ix := p.t.indexOf(g.First)
		if ix < 0 {
			return values
		}
		for _, r := range p.t.Rows[ix:] {
			if !r.belongsTo(g) {
				break
			}
			if !r.IsDataRow() {
				if r.GroupSeq > g.Level {
					continue
				}
				break
			}
			c := r.Cell(seq)
			if c == nil || c.Hidden {
				continue
			}
			values = append(values, ParseValue(c, dec, thou))
		}
		return values
	}
}

func (p *pass) pageCollector() valueCollector {
	return func(seq int, cs ContentSpec) []float64 {
		dec, thou := cs.separators(p.opts)
		values := make([]float64, 0, len(p.data))
		for _, r := range p.data {
			c := r.Cell(seq)
			if c == nil || c.Hidden {
				continue
			}
			values = append(values, ParseValue(c, dec, thou))
		}
		return values
	}
}
