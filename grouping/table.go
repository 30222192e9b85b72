package grouping

import (
	"fmt"
	"sort"
)

type RowKind int

const (
	ROW_KIND_DATA RowKind = iota
	ROW_KIND_MARKER
	ROW_KIND_HEADER
	ROW_KIND_FOOTER
	ROW_KIND_PAGE_SUMMARY

	NO_GROUP_SEQ int = -1
)

func (k RowKind) String() string {
	switch k {
	case ROW_KIND_DATA:
		return "data"
	case ROW_KIND_MARKER:
		return "marker"
	case ROW_KIND_HEADER:
		return "header"
	case ROW_KIND_FOOTER:
		return "footer"
	case ROW_KIND_PAGE_SUMMARY:
		return "page_summary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Cell is one rendered table cell. Seq is the column sequence and stays stable
// while the cell is collapsed, relocated or merged.
type Cell struct {
	Seq        int      `json:"seq" yaml:"seq"`
	Text       string   `json:"text" yaml:"text"`
	Raw        *float64 `json:"raw,omitempty" yaml:"raw,omitempty"`
	GroupKey   string   `json:"group_key,omitempty" yaml:"group_key,omitempty"`
	SubGroupOf *int     `json:"sub_group_of,omitempty" yaml:"sub_group_of,omitempty"`
	GroupedRow bool     `json:"grouped_row,omitempty" yaml:"grouped_row,omitempty"`
	OddCss     string   `json:"odd_css,omitempty" yaml:"odd_css,omitempty"`
	EvenCss    string   `json:"even_css,omitempty" yaml:"even_css,omitempty"`

	// summary specs of the group this cell starts; read from the first cell of each run
	Header *SummarySpec `json:"header,omitempty" yaml:"header,omitempty"`
	Footer *SummarySpec `json:"footer,omitempty" yaml:"footer,omitempty"`

	RowSpan int               `json:"row_span,omitempty" yaml:"row_span,omitempty"`
	ColSpan int               `json:"col_span,omitempty" yaml:"col_span,omitempty"`
	Hidden  bool              `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Class   string            `json:"class,omitempty" yaml:"class,omitempty"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`

	summary bool
}

func (c *Cell) IsGroupCell() bool {
	return c != nil && c.GroupKey != ""
}

func (c *Cell) Rows() int {
	if c.RowSpan < 1 {
		return 1
	}
	return c.RowSpan
}

func (c *Cell) Cols() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

func (c *Cell) clone() *Cell {
	n := *c
	if c.Raw != nil {
		v := *c.Raw
		n.Raw = &v
	}
	if c.SubGroupOf != nil {
		v := *c.SubGroupOf
		n.SubGroupOf = &v
	}
	if c.Options != nil {
		n.Options = make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			n.Options[k] = v
		}
	}
	return &n
}

type Row struct {
	Key           string            `json:"key" yaml:"key"`
	Cells         []*Cell           `json:"cells" yaml:"cells"`
	Kind          RowKind           `json:"kind" yaml:"kind"`
	GroupSeq      int               `json:"group_seq" yaml:"group_seq"`
	IsLastDataRow bool              `json:"is_last_data_row,omitempty" yaml:"is_last_data_row,omitempty"`
	Options       map[string]string `json:"options,omitempty" yaml:"options,omitempty"`

	// run membership, indexed by level
	groups []*Group
	// the row's cells as built by the input collaborator, kept for re-aggregation
	source  []*Cell
	summary *summaryRef
}

// NewRow builds a data row. Cells are ordered by Seq.
func NewRow(key string, cells ...*Cell) *Row {
	r := &Row{Key: key, Cells: cells, Kind: ROW_KIND_DATA, GroupSeq: NO_GROUP_SEQ}
	r.sortCells()
	return r
}

func (r *Row) IsDataRow() bool        { return r.Kind == ROW_KIND_DATA }
func (r *Row) IsGroupMarkerRow() bool { return r.Kind == ROW_KIND_MARKER }
func (r *Row) IsHeaderRow() bool      { return r.Kind == ROW_KIND_HEADER }
func (r *Row) IsFooterRow() bool      { return r.Kind == ROW_KIND_FOOTER }
func (r *Row) IsPageSummaryRow() bool { return r.Kind == ROW_KIND_PAGE_SUMMARY }

// Cell returns the cell with column sequence seq, hidden or not.
func (r *Row) Cell(seq int) *Cell {
	for _, c := range r.Cells {
		if c.Seq == seq {
			return c
		}
	}
	return nil
}

// SourceCell returns the cell with column sequence seq as it was before grouping.
func (r *Row) SourceCell(seq int) *Cell {
	for _, c := range r.source {
		if c.Seq == seq {
			return c
		}
	}
	return r.Cell(seq)
}

func (r *Row) VisibleCells() []*Cell {
	ret := make([]*Cell, 0, len(r.Cells))
	for _, c := range r.Cells {
		if !c.Hidden {
			ret = append(ret, c)
		}
	}
	return ret
}

// Group returns the run this row belongs to at level, or nil.
func (r *Row) Group(level int) *Group {
	if level < 0 || level >= len(r.groups) {
		return nil
	}
	return r.groups[level]
}

func (r *Row) belongsTo(g *Group) bool {
	return g != nil && r.Group(g.Level) == g
}

func (r *Row) addCell(c *Cell) {
	r.Cells = append(r.Cells, c)
	r.sortCells()
}

func (r *Row) removeCell(c *Cell) bool {
	for i, x := range r.Cells {
		if x == c {
			r.Cells = append(r.Cells[:i], r.Cells[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Row) sortCells() {
	sort.SliceStable(r.Cells, func(i, j int) bool {
		return r.Cells[i].Seq < r.Cells[j].Seq
	})
}

func (r *Row) clone() *Row {
	n := &Row{
		Key:           r.Key,
		Kind:          r.Kind,
		GroupSeq:      r.GroupSeq,
		IsLastDataRow: r.IsLastDataRow,
		Cells:         make([]*Cell, 0, len(r.Cells)),
	}
	if r.Options != nil {
		n.Options = make(map[string]string, len(r.Options))
		for k, v := range r.Options {
			n.Options[k] = v
		}
	}
	for _, c := range r.Cells {
		n.Cells = append(n.Cells, c.clone())
	}
	n.sortCells()
	return n
}

// Group is a Run: the maximal contiguous sequence of data rows sharing one
// composite key at Level.
type Group struct {
	Level   int    `json:"level"`
	Key     string `json:"key"`
	Ordinal int    `json:"ordinal"`
	Size    int    `json:"size"`
	Parent  *Group `json:"-"`
	// Cell is the surviving cell: row-spanned, or the marker cell of a grouped row
	Cell  *Cell `json:"-"`
	First *Row  `json:"-"`
	// Top is the row currently holding a spanning Cell
	Top    *Row         `json:"-"`
	Header *SummarySpec `json:"-"`
	Footer *SummarySpec `json:"-"`
	seq    int
}

func (g *Group) Seq() int { return g.seq }

func (g *Group) spans() bool {
	return g != nil && g.Cell != nil && !g.Cell.GroupedRow
}

// chain returns g and its ancestors, shallowest first.
func (g *Group) chain() []*Group {
	ret := make([]*Group, 0, g.Level+1)
	for x := g; x != nil; x = x.Parent {
		ret = append([]*Group{x}, ret...)
	}
	return ret
}

// Table is the row arena of one pass.
type Table struct {
	Rows    []*Row     `json:"rows"`
	Columns []int      `json:"columns"`
	Groups  [][]*Group `json:"-"`
	Levels  int        `json:"levels"`
}

func (t *Table) DataRows() []*Row {
	ret := make([]*Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.IsDataRow() {
			ret = append(ret, r)
		}
	}
	return ret
}

func (t *Table) RowsOfKind(kind RowKind) []*Row {
	ret := make([]*Row, 0)
	for _, r := range t.Rows {
		if r.Kind == kind {
			ret = append(ret, r)
		}
	}
	return ret
}

func (t *Table) indexOf(r *Row) int {
	for i, x := range t.Rows {
		if x == r {
			return i
		}
	}
	return -1
}

func (t *Table) insertAt(ix int, r *Row) {
	t.Rows = append(t.Rows, nil)
	copy(t.Rows[ix+1:], t.Rows[ix:])
	t.Rows[ix] = r
}

// insertBefore places nr above at. Every spanning run nr belongs to grows by
// one row; a run whose cell sits on at moves that cell up to nr.
func (t *Table) insertBefore(at, nr *Row) {
	ix := t.indexOf(at)
	if ix < 0 {
		t.Rows = append(t.Rows, nr)
		return
	}
	t.insertAt(ix, nr)
	for _, g := range nr.groups {
		if !g.spans() {
			continue
		}
		g.Cell.RowSpan = g.Cell.Rows() + 1
		if g.Top == at {
			at.removeCell(g.Cell)
			nr.addCell(g.Cell)
			g.Top = nr
		}
	}
}

// insertAfter places nr below at; spanning runs nr belongs to grow by one row.
func (t *Table) insertAfter(at, nr *Row) {
	ix := t.indexOf(at)
	if ix < 0 {
		t.Rows = append(t.Rows, nr)
		return
	}
	t.insertAt(ix+1, nr)
	for _, g := range nr.groups {
		if !g.spans() {
			continue
		}
		g.Cell.RowSpan = g.Cell.Rows() + 1
	}
}

// remove drops r from the arena, handing any run cell it holds to the next
// row of that run.
func (t *Table) remove(r *Row) {
	ix := t.indexOf(r)
	if ix < 0 {
		return
	}
	t.Rows = append(t.Rows[:ix], t.Rows[ix+1:]...)
	for _, g := range r.groups {
		if !g.spans() {
			continue
		}
		g.Cell.RowSpan = g.Cell.Rows() - 1
		if g.Top != r {
			continue
		}
		r.removeCell(g.Cell)
		g.Top = nil
		for _, next := range t.Rows[ix:] {
			if next.belongsTo(g) {
				next.addCell(g.Cell)
				g.Top = next
				break
			}
		}
	}
}

// start returns the first arena row of g, skipping g's own marker row.
func (t *Table) start(g *Group) *Row {
	ix := t.indexOf(g.First)
	if ix < 0 {
		return nil
	}
	for ix > 0 {
		prev := t.Rows[ix-1]
		if !prev.belongsTo(g) {
			break
		}
		if prev.IsGroupMarkerRow() && prev.GroupSeq == g.Level {
			break
		}
		ix--
	}
	return t.Rows[ix]
}

// terminal scans forward from g's first row until the run changes or the last
// row marker is reached.
func (t *Table) terminal(g *Group) *Row {
	ix := t.indexOf(g.First)
	if ix < 0 {
		return nil
	}
	last := t.Rows[ix]
	for _, r := range t.Rows[ix+1:] {
		if r.IsPageSummaryRow() || !r.belongsTo(g) {
			break
		}
		last = r
	}
	return last
}
