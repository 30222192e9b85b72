package grouping

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
)

// Engine groups a snapshot of rows and synthesizes summary rows. An Engine
// runs one pass at a time; every Process call rebuilds from scratch.
type Engine struct {
	Options  Options
	Registry *Registry
	Logger   *zerolog.Logger
	Metrics  *Metrics
	passes   int
}

func NewEngine(opts Options, reg *Registry, logger *zerolog.Logger) *Engine {
	opts.MaybeDefault()
	if reg == nil {
		reg = NewRegistry()
	}
	if logger == nil {
		logger = loggers.NullLogger
	}
	return &Engine{
		Options:  opts,
		Registry: reg,
		Logger:   logger,
	}
}

// Passes returns the number of completed Process calls.
func (e *Engine) Passes() int {
	return e.passes
}

type groupColumn struct {
	seq        int
	level      int
	parent     int
	groupedRow bool
}

// pass owns the row arena for the duration of one Process call.
type pass struct {
	opts   Options
	reg    *Registry
	logger zerolog.Logger
	m      *Metrics

	t     *Table
	data  []*Row
	chain []groupColumn
	cls   *classifier
}

// Process clones rows into a new arena and runs classification, collapsing,
// summary insertion and reconciliation over it. rows is left untouched.
// Non-data rows in the input are leftovers of an earlier render and are dropped.
func (e *Engine) Process(rows []*Row) *Table {
	p := e.newPass()
	p.run(rows)
	return p.t
}

func (e *Engine) newPass() *pass {
	opts := e.Options
	opts.MaybeDefault()
	logger := e.Logger
	if logger == nil {
		logger = loggers.NullLogger
	}
	e.passes++
	return &pass{
		opts:   opts,
		reg:    e.Registry,
		logger: logger.With().Int("pass", e.passes).Logger(),
		m:      e.Metrics,
		t:      &Table{},
	}
}

func (p *pass) run(rows []*Row) {
	p.load(rows)
	p.discoverLevels()
	p.logger.Debug().Msgf("%d data rows, %d columns, %d levels", len(p.data), len(p.t.Columns), p.t.Levels)

	if p.t.Levels > 0 {
		p.cls = newClassifier(p.data, p.opts.MaxLevels)
		for level := 0; level < p.t.Levels; level++ {
			p.collapse(level)
		}
	}
	if p.opts.PageSummary != nil && len(p.data) > 0 {
		p.appendPageSummary(p.opts.PageSummary)
	}
	for level := 0; level < p.t.Levels; level++ {
		for _, g := range p.t.Groups[level] {
			if g.Header != nil {
				p.insertHeader(g)
			}
		}
	}
	for level := p.t.Levels - 1; level >= 0; level-- {
		for _, g := range p.t.Groups[level] {
			if g.Footer != nil {
				p.insertFooter(g)
			}
		}
	}
	p.reconcile()

	p.m.pass()
	p.logger.Debug().Msgf("done: %d rows rendered", len(p.t.Rows))
}

func (p *pass) load(rows []*Row) {
	for _, r := range rows {
		if r == nil {
			continue
		}
		if !r.IsDataRow() {
			p.logger.Debug().Str("row", r.Key).Msgf("dropping stale %s row", r.Kind)
			continue
		}
		// a row from an earlier pass may have lost cells to markers or headers
		if len(r.source) > 0 {
			r = &Row{Key: r.Key, Cells: r.source, Kind: r.Kind, Options: r.Options}
		}
		n := r.clone()
		n.IsLastDataRow = false
		n.GroupSeq = NO_GROUP_SEQ
		n.source = append([]*Cell(nil), n.Cells...)
		for _, c := range n.Cells {
			c.Hidden = false
			c.RowSpan, c.ColSpan = 1, 1
		}
		p.t.Rows = append(p.t.Rows, n)
		p.data = append(p.data, n)
	}
	if len(p.data) > 0 {
		p.data[len(p.data)-1].IsLastDataRow = true
	}
}

// discoverLevels picks one grouping column per nesting level. A column's
// level is the length of its SubGroupOf chain through other grouping columns.
func (p *pass) discoverLevels() {
	cols := make(map[int]*groupColumn)
	seqs := make(map[int]bool)
	for _, r := range p.data {
		for _, c := range r.Cells {
			seqs[c.Seq] = true
			if !c.IsGroupCell() {
				continue
			}
			if _, ok := cols[c.Seq]; ok {
				continue
			}
			gc := &groupColumn{seq: c.Seq, parent: -1, groupedRow: c.GroupedRow}
			if c.SubGroupOf != nil {
				gc.parent = *c.SubGroupOf
			}
			cols[c.Seq] = gc
		}
	}

	for _, gc := range cols {
		depth := 0
		for cur := gc; depth <= p.opts.MaxLevels; depth++ {
			parent, ok := cols[cur.parent]
			if !ok || parent == gc {
				break
			}
			cur = parent
		}
		gc.level = depth
	}

	ordered := make([]*groupColumn, 0, len(cols))
	for _, gc := range cols {
		ordered = append(ordered, gc)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].level != ordered[j].level {
			return ordered[i].level < ordered[j].level
		}
		return ordered[i].seq < ordered[j].seq
	})
	for _, gc := range ordered {
		switch {
		case gc.level >= p.opts.MaxLevels:
			p.logger.Warn().Int("seq", gc.seq).Msgf("grouping column nested %d levels deep exceeds max levels %d, ignored", gc.level+1, p.opts.MaxLevels)
		case gc.level > len(p.chain):
			p.logger.Warn().Int("seq", gc.seq).Msgf("grouping column at level %d has no parent level, ignored", gc.level)
		case gc.level < len(p.chain):
			p.logger.Warn().Int("seq", gc.seq).Msgf("level %d is already grouped by column %d, ignored", gc.level, p.chain[gc.level].seq)
		default:
			p.chain = append(p.chain, *gc)
		}
	}

	groupedRow := make(map[int]bool)
	for _, gc := range p.chain {
		if gc.groupedRow {
			groupedRow[gc.seq] = true
		}
	}
	for seq := range seqs {
		if !groupedRow[seq] {
			p.t.Columns = append(p.t.Columns, seq)
		}
	}
	sort.Ints(p.t.Columns)

	p.t.Levels = len(p.chain)
	p.t.Groups = make([][]*Group, p.t.Levels)
	for _, r := range p.data {
		r.groups = make([]*Group, p.t.Levels)
	}
}

func (p *pass) isGroupedRowColumn(seq int) bool {
	for _, gc := range p.chain {
		if gc.seq == seq {
			return gc.groupedRow
		}
	}
	return false
}

// membership returns the run chain of g sized for the table levels.
func (p *pass) membership(g *Group) []*Group {
	ret := make([]*Group, p.t.Levels)
	for x := g; x != nil; x = x.Parent {
		ret[x.Level] = x
	}
	return ret
}
