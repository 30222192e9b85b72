package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-grouptable/grouping"
)

// Value is one source field: its display text and, when numeric, its number.
type Value struct {
	Text string
	Num  *float64
}

// Snapshot is a table ready for the grouping engine.
type Snapshot struct {
	Name    string
	Labels  []string
	Rows    []*grouping.Row
	Options grouping.Options
}

// NewSnapshot turns records, one Value per layout column, into data rows.
// Records shorter than the layout leave the trailing cells out.
func (l *Layout) NewSnapshot(name string, records [][]Value, logger *zerolog.Logger) *Snapshot {
	if logger == nil {
		logger = loggers.NullLogger
	}
	if l.Presort {
		l.presort(records)
		logger.Debug().Msgf("presorted %d records by grouping columns", len(records))
	}

	b := l.newBuilder()
	s := &Snapshot{
		Name:    name,
		Labels:  l.Labels(),
		Rows:    make([]*grouping.Row, 0, len(records)),
		Options: l.EngineOptions(),
	}
	for _, rec := range records {
		s.Rows = append(s.Rows, b.row(rec))
	}
	logger.Debug().Msgf("snapshot %s: %d rows, %d columns", name, len(s.Rows), len(s.Labels))
	return s
}

type builder struct {
	l       *Layout
	keySeq  int
	parents []*int
	headers []*grouping.SummarySpec
	footers []*grouping.SummarySpec
}

func (l *Layout) newBuilder() *builder {
	b := &builder{
		l:       l,
		keySeq:  -1,
		parents: make([]*int, len(l.Columns)),
		headers: make([]*grouping.SummarySpec, len(l.Columns)),
		footers: make([]*grouping.SummarySpec, len(l.Columns)),
	}
	if l.KeyColumn != "" {
		b.keySeq = l.Seq(l.KeyColumn)
	}
	for seq, c := range l.Columns {
		if !c.Group {
			continue
		}
		if c.SubGroupOf != "" {
			if p := l.Seq(c.SubGroupOf); p >= 0 {
				b.parents[seq] = &p
			}
		}
		b.headers[seq] = l.summarySpec(c.GroupHeader)
		b.footers[seq] = l.summarySpec(c.GroupFooter)
	}
	return b
}

func (b *builder) row(rec []Value) *grouping.Row {
	cells := make([]*grouping.Cell, 0, len(b.l.Columns))
	for seq, col := range b.l.Columns {
		if seq >= len(rec) {
			break
		}
		v := rec[seq]
		c := &grouping.Cell{
			Seq:  seq,
			Text: cellText(col, v),
			Raw:  v.Num,
		}
		if col.Group {
			c.GroupKey = col.Name
			c.SubGroupOf = b.parents[seq]
			c.GroupedRow = col.GroupedRow
			c.OddCss = col.OddCss
			c.EvenCss = col.EvenCss
			c.Header = b.headers[seq]
			c.Footer = b.footers[seq]
		}
		cells = append(cells, c)
	}

	key := ""
	if b.keySeq >= 0 && b.keySeq < len(rec) {
		key = rec[b.keySeq].Text
	}
	if key == "" {
		key = uuid.NewString()
	}
	return grouping.NewRow(key, cells...)
}

func cellText(col Column, v Value) string {
	if v.Num == nil {
		return v.Text
	}
	switch {
	case col.DateFormat != "":
		return grouping.FormatDate(*v.Num, col.DateFormat)
	case col.NumFormat != "":
		if s, res := grouping.FormatNum(*v.Num, col.NumFormat); res == nil {
			return s
		}
	}
	if v.Text != "" {
		return v.Text
	}
	return strconv.FormatFloat(*v.Num, 'f', -1, 64)
}

// GroupChain returns the grouping column sequences in nesting order: the first
// top level grouping column, then the first column grouped under it, and so on.
func (l *Layout) GroupChain() []int {
	chain := make([]int, 0)
	parent := ""
	for {
		next := -1
		for seq, c := range l.Columns {
			if c.Group && c.SubGroupOf == parent && (parent == "" || c.Name != parent) {
				next = seq
				break
			}
		}
		if next < 0 || len(chain) == len(l.Columns) {
			return chain
		}
		chain = append(chain, next)
		parent = l.Columns[next].Name
	}
}

// presort makes every group contiguous: records are stably ordered by the
// first appearance of their group prefix at each level.
func (l *Layout) presort(records [][]Value) {
	chain := l.GroupChain()
	if len(chain) == 0 {
		return
	}
	ranks := make([]map[string]int, len(chain))
	for i := range ranks {
		ranks[i] = make(map[string]int)
	}
	keys := make([][]int, len(records))
	for ri, rec := range records {
		keys[ri] = make([]int, len(chain))
		parts := make([]string, 0, len(chain))
		for level, seq := range chain {
			text := ""
			if seq < len(rec) {
				text = rec[seq].Text
			}
			parts = append(parts, text)
			prefix := strings.Join(parts, grouping.KEY_SEPARATOR)
			rank, ok := ranks[level][prefix]
			if !ok {
				rank = len(ranks[level])
				ranks[level][prefix] = rank
			}
			keys[ri][level] = rank
		}
	}

	ix := make([]int, len(records))
	for i := range ix {
		ix[i] = i
	}
	sort.SliceStable(ix, func(a, b int) bool {
		ka, kb := keys[ix[a]], keys[ix[b]]
		for level := range ka {
			if ka[level] != kb[level] {
				return ka[level] < kb[level]
			}
		}
		return false
	})
	sorted := make([][]Value, len(records))
	for i, from := range ix {
		sorted[i] = records[from]
	}
	copy(records, sorted)
}

func numValue(text string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
