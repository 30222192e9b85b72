package grouping

import (
	"fmt"
)

const (
	ODD_CLASS  = "odd"
	EVEN_CLASS = "even"
)

// collapse walks the data rows in order and merges adjacent cells of the
// level's grouping column that share a composite key and the same parent run.
// The first cell of a run survives with a rowspan covering the run; the rest
// are hidden. A grouped-row cell is moved into a marker row above the run.
func (p *pass) collapse(level int) {
	col := p.chain[level]
	var prev *Group
	for _, r := range p.data {
		cell := r.Cell(col.seq)
		if cell == nil {
			prev = nil
			continue
		}
		var parent *Group
		if level > 0 {
			parent = r.groups[level-1]
		}

		key := p.cls.CellKey(cell)
		if prev != nil && prev.Key == key && prev.Parent == parent {
			prev.Size++
			r.groups[level] = prev
			cell.Hidden = true
			if prev.spans() {
				prev.Cell.RowSpan = prev.Cell.Rows() + 1
			}
			continue
		}

		g := &Group{
			Level:   level,
			Key:     key,
			Ordinal: len(p.t.Groups[level]),
			Size:    1,
			Parent:  parent,
			Cell:    cell,
			First:   r,
			Top:     r,
			Header:  cell.Header,
			Footer:  cell.Footer,
			seq:     col.seq,
		}
		cell.RowSpan = 1
		applyRunClass(cell, g.Ordinal)
		r.groups[level] = g
		p.t.Groups[level] = append(p.t.Groups[level], g)
		p.m.run(level)
		if cell.GroupedRow {
			p.relocate(g, r)
		}
		prev = g
	}
	p.logger.Debug().Msgf("level %d: column %d collapsed into %d runs", level, col.seq, len(p.t.Groups[level]))
}

// applyRunClass sets the odd or even class of a surviving cell by run ordinal.
func applyRunClass(c *Cell, ordinal int) {
	class, css := ODD_CLASS, c.OddCss
	if ordinal%2 == 1 {
		class, css = EVEN_CLASS, c.EvenCss
	}
	if css != "" {
		class = css
	}
	c.Class = class
}

// relocate moves the run's cell into a marker row inserted above r and hides
// the original. The marker cell spans every column not already covered by an
// ancestor run's cell.
func (p *pass) relocate(g *Group, r *Row) {
	mc := g.Cell.clone()
	mc.RowSpan = 1
	mc.ColSpan = p.markerSpan(g.Level)
	g.Cell.Hidden = true

	marker := &Row{
		Key:      fmt.Sprintf("%s:%s:%d:%s", r.Key, ROW_KIND_MARKER, g.Level, g.Key),
		Cells:    []*Cell{mc},
		Kind:     ROW_KIND_MARKER,
		GroupSeq: g.Level,
		groups:   p.membership(g),
	}
	g.Cell = mc
	g.Top = marker
	p.t.insertBefore(r, marker)
	p.m.summaryRow(ROW_KIND_MARKER)
}

func (p *pass) markerSpan(level int) int {
	n := len(p.t.Columns)
	for l := 0; l < level; l++ {
		if !p.chain[l].groupedRow {
			n--
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}
