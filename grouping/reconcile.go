package grouping

// reconcile runs the layout fixes after all summary rows are inserted.
func (p *pass) reconcile() {
	p.adjustLastRow()
	if p.t.Levels > 0 && p.t.Levels >= p.opts.ReconcileFromLevels {
		p.adjustFooterGroups()
	}
	p.dedupe()
}

// adjustLastRow keeps footers that landed after the last data row ahead of the
// page summary, and prunes page summary cells to the columns the first data
// row renders.
func (p *pass) adjustLastRow() {
	lastIx := -1
	for i, r := range p.t.Rows {
		if r.IsDataRow() && r.IsLastDataRow {
			lastIx = i
		}
	}
	if lastIx < 0 {
		return
	}

	tail := p.t.Rows[lastIx+1:]
	footers := make([]*Row, 0, len(tail))
	rest := make([]*Row, 0, len(tail))
	for _, r := range tail {
		if r.IsFooterRow() {
			footers = append(footers, r)
		} else {
			rest = append(rest, r)
		}
	}
	rows := make([]*Row, 0, len(p.t.Rows))
	rows = append(rows, p.t.Rows[:lastIx+1]...)
	rows = append(rows, footers...)
	rows = append(rows, rest...)
	p.t.Rows = rows

	if len(p.data) == 0 {
		return
	}
	allowed := make(map[int]bool)
	for _, c := range p.data[0].source {
		if !p.isGroupedRowColumn(c.Seq) {
			allowed[c.Seq] = true
		}
	}
	for _, r := range p.t.RowsOfKind(ROW_KIND_PAGE_SUMMARY) {
		kept := r.Cells[:0]
		for _, c := range r.Cells {
			if allowed[c.Seq] {
				kept = append(kept, c)
			} else {
				p.logger.Debug().Int("seq", c.Seq).Msg("pruned page summary cell")
			}
		}
		r.Cells = kept
	}
}

// adjustFooterGroups recomputes the rowspan of every run cell from the arena
// and re-derives footer aggregates from the source cells of the rows above
// each footer, so that cells hidden or moved by collapsing are still counted.
func (p *pass) adjustFooterGroups() {
	fixed := 0
	for _, groups := range p.t.Groups {
		for _, g := range groups {
			if !g.spans() {
				continue
			}
			top := p.t.start(g)
			if top == nil {
				continue
			}
			if g.Top != top {
				if g.Top != nil {
					g.Top.removeCell(g.Cell)
				}
				top.addCell(g.Cell)
				g.Top = top
				fixed++
			}
			n := 0
			for _, r := range p.t.Rows[p.t.indexOf(top):] {
				if !r.belongsTo(g) {
					break
				}
				n++
			}
			if n != g.Cell.Rows() {
				p.logger.Debug().Int("level", g.Level).Str("key", g.Key).Msgf("rowspan %d corrected to %d", g.Cell.Rows(), n)
				g.Cell.RowSpan = n
				fixed++
			}
		}
	}

	for _, r := range p.t.RowsOfKind(ROW_KIND_FOOTER) {
		if r.summary == nil || r.summary.group == nil {
			continue
		}
		g, spec := r.summary.group, r.summary.spec
		cells := p.summaryCells(g, spec, p.footerCollector(r, g))
		old := make(map[int]string)
		for _, c := range r.Cells {
			if c.summary {
				old[c.Seq] = c.Text
			}
		}
		for _, c := range cells {
			if t, ok := old[c.Seq]; !ok || t != c.Text {
				fixed++
			}
		}
		for _, c := range r.Cells {
			if !c.summary {
				cells = append(cells, c)
			}
		}
		r.Cells = cells
		r.sortCells()
	}
	if fixed > 0 {
		p.logger.Debug().Msgf("reconciled %d cells", fixed)
	}
	p.m.reconciled(fixed)
}

// footerCollector walks backward from footer through the data rows of g and
// reads their source cells, restoring arena order.
func (p *pass) footerCollector(footer *Row, g *Group) valueCollector {
	return func(seq int, cs ContentSpec) []float64 {
		dec, thou := cs.separators(p.opts)
		var values []float64
		ix := p.t.indexOf(footer)
		for i := ix - 1; i >= 0; i-- {
			r := p.t.Rows[i]
			if !r.belongsTo(g) {
				break
			}
			if !r.IsDataRow() {
				continue
			}
			c := r.SourceCell(seq)
			if c == nil {
				continue
			}
			values = append(values, ParseValue(c, dec, thou))
		}
		for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
			values[i], values[j] = values[j], values[i]
		}
		return values
	}
}

// dedupe drops repeated marker and header rows of the same run.
func (p *pass) dedupe() {
	type runKind struct {
		g    *Group
		kind RowKind
	}
	seen := make(map[runKind]bool)
	var dups []*Row
	for _, r := range p.t.Rows {
		if !r.IsGroupMarkerRow() && !r.IsHeaderRow() {
			continue
		}
		id := runKind{g: r.Group(r.GroupSeq), kind: r.Kind}
		if id.g == nil {
			continue
		}
		if seen[id] {
			dups = append(dups, r)
			continue
		}
		seen[id] = true
	}
	for _, r := range dups {
		p.logger.Debug().Str("row", r.Key).Msgf("removing duplicate %s row", r.Kind)
		p.t.remove(r)
	}
}
