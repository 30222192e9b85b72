package grouping

import (
	"strings"
)

// KEY_SEPARATOR joins the texts of a composite group key so that ("A", "BC")
// and ("AB", "C") stay distinct.
const KEY_SEPARATOR = "\x1f"

type cellPos struct {
	row int
	seq int
}

// classifier derives composite group keys. The parent lookup index is filled
// in one scan over the data rows: for each (row, parent seq) it holds the
// nearest cell with that seq in the same row or the rows before it.
type classifier struct {
	maxLevels int
	rowIx     map[*Cell]int
	parents   map[cellPos]*Cell
	keys      map[*Cell]string
}

func newClassifier(rows []*Row, maxLevels int) *classifier {
	c := &classifier{
		maxLevels: maxLevels,
		rowIx:     make(map[*Cell]int),
		parents:   make(map[cellPos]*Cell),
		keys:      make(map[*Cell]string),
	}

	lastSeen := make(map[int]*Cell)
	for i, r := range rows {
		for _, cell := range r.Cells {
			c.rowIx[cell] = i
			lastSeen[cell.Seq] = cell
		}
		for _, cell := range r.Cells {
			if cell.SubGroupOf == nil {
				continue
			}
			pos := cellPos{row: i, seq: *cell.SubGroupOf}
			if _, ok := c.parents[pos]; ok {
				continue
			}
			if p, ok := lastSeen[pos.seq]; ok {
				c.parents[pos] = p
			}
		}
	}
	return c
}

// ParentGroup returns the nearest cell whose seq equals cell.SubGroupOf, or nil.
func (c *classifier) ParentGroup(cell *Cell) *Cell {
	if cell == nil || cell.SubGroupOf == nil {
		return nil
	}
	ix, ok := c.rowIx[cell]
	if !ok {
		return nil
	}
	p := c.parents[cellPos{row: ix, seq: *cell.SubGroupOf}]
	if p == cell {
		return nil
	}
	return p
}

// CellKey is the cell text prefixed by the keys of its ancestors. The walk
// stops after maxLevels ancestors.
func (c *classifier) CellKey(cell *Cell) string {
	if cell == nil {
		return ""
	}
	if k, ok := c.keys[cell]; ok {
		return k
	}
	parts := []string{cell.Text}
	for p, depth := c.ParentGroup(cell), 1; p != nil && depth <= c.maxLevels; p, depth = c.ParentGroup(p), depth+1 {
		parts = append([]string{p.Text}, parts...)
	}
	k := strings.Join(parts, KEY_SEPARATOR)
	c.keys[cell] = k
	return k
}
