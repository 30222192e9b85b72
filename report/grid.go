package report

import (
	"github.com/soderasen-au/go-grouptable/grouping"
)

// Placement is a visible cell anchored on the output grid. Row and Col are
// zero based; spans are clipped to the grid height.
type Placement struct {
	Row     int
	Col     int
	RowSpan int
	ColSpan int
	Cell    *grouping.Cell
}

type Grid struct {
	Width      int
	Height     int
	Kinds      []grouping.RowKind
	Placements [][]Placement
}

// NewGrid lays out the visible cells of t the way an HTML table does: each
// cell takes the next column of its row not covered by a row-spanned cell from
// above.
func NewGrid(t *grouping.Table) *Grid {
	g := &Grid{
		Width:      len(t.Columns),
		Height:     len(t.Rows),
		Kinds:      make([]grouping.RowKind, 0, len(t.Rows)),
		Placements: make([][]Placement, 0, len(t.Rows)),
	}
	occupied := make(map[[2]int]bool)
	for ri, r := range t.Rows {
		g.Kinds = append(g.Kinds, r.Kind)
		row := make([]Placement, 0, len(r.Cells))
		col := 0
		for _, c := range r.VisibleCells() {
			for occupied[[2]int{ri, col}] {
				col++
			}
			pl := Placement{
				Row:     ri,
				Col:     col,
				RowSpan: min(c.Rows(), g.Height-ri),
				ColSpan: c.Cols(),
				Cell:    c,
			}
			for dr := 0; dr < pl.RowSpan; dr++ {
				for dc := 0; dc < pl.ColSpan; dc++ {
					occupied[[2]int{ri + dr, col + dc}] = true
				}
			}
			row = append(row, pl)
			col += pl.ColSpan
			if col > g.Width {
				g.Width = col
			}
		}
		g.Placements = append(g.Placements, row)
	}
	return g
}

// Records flattens the grid into text records. Slots covered by a span stay empty.
func (g *Grid) Records() [][]string {
	ret := make([][]string, g.Height)
	for ri := range ret {
		ret[ri] = make([]string, g.Width)
	}
	for _, row := range g.Placements {
		for _, pl := range row {
			ret[pl.Row][pl.Col] = pl.Cell.Text
		}
	}
	return ret
}
