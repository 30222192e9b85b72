package dataset

import (
	"fmt"

	"github.com/soderasen-au/go-common/util"
	"github.com/soderasen-au/go-grouptable/grouping"
)

// SummaryContent is one cell of a group header, footer or page summary,
// addressed by column name.
type SummaryContent struct {
	Column            string            `json:"column" yaml:"column"`
	Source            string            `json:"source" yaml:"source"`
	Format            string            `json:"format,omitempty" yaml:"format,omitempty"`
	Func              string            `json:"func,omitempty" yaml:"func,omitempty"`
	Decimals          int               `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	NumFormat         string            `json:"num_format,omitempty" yaml:"num_format,omitempty"`
	DecimalSeparator  *string           `json:"decimal_separator,omitempty" yaml:"decimal_separator,omitempty"`
	ThousandSeparator *string           `json:"thousand_separator,omitempty" yaml:"thousand_separator,omitempty"`
	Options           map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

type SummaryLayout struct {
	Content    []SummaryContent  `json:"content,omitempty" yaml:"content,omitempty"`
	Merge      [][2]string       `json:"merge,omitempty" yaml:"merge,omitempty"`
	RowOptions map[string]string `json:"row_options,omitempty" yaml:"row_options,omitempty"`
}

type Column struct {
	Name       string `json:"name" yaml:"name"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	Group      bool   `json:"group,omitempty" yaml:"group,omitempty"`
	SubGroupOf string `json:"sub_group_of,omitempty" yaml:"sub_group_of,omitempty"`
	GroupedRow bool   `json:"grouped_row,omitempty" yaml:"grouped_row,omitempty"`
	OddCss     string `json:"odd_css,omitempty" yaml:"odd_css,omitempty"`
	EvenCss    string `json:"even_css,omitempty" yaml:"even_css,omitempty"`
	// NumFormat is an Excel style pattern (`#,##0.00`) applied to numeric values
	NumFormat string `json:"num_format,omitempty" yaml:"num_format,omitempty"`
	// DateFormat renders numeric values as dates (`YYYY-MM-DD`)
	DateFormat  string         `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	GroupHeader *SummaryLayout `json:"group_header,omitempty" yaml:"group_header,omitempty"`
	GroupFooter *SummaryLayout `json:"group_footer,omitempty" yaml:"group_footer,omitempty"`
}

func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// Layout maps source fields to table columns. Column order is the column
// sequence handed to the grouping engine.
type Layout struct {
	Columns     []Column          `json:"columns" yaml:"columns"`
	KeyColumn   string            `json:"key_column,omitempty" yaml:"key_column,omitempty"`
	Presort     bool              `json:"presort,omitempty" yaml:"presort,omitempty"`
	PageSummary *SummaryLayout    `json:"page_summary,omitempty" yaml:"page_summary,omitempty"`
	Options     *grouping.Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// Seq returns the column sequence of name, or -1.
func (l *Layout) Seq(name string) int {
	for i, c := range l.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (l *Layout) Labels() []string {
	ret := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		ret[i] = c.Title()
	}
	return ret
}

func (l *Layout) Validate() *util.Result {
	if l == nil || len(l.Columns) == 0 {
		return util.MsgError("Columns", "layout has no columns")
	}
	seen := make(map[string]bool)
	for i, c := range l.Columns {
		if c.Name == "" {
			return util.MsgError("Columns", fmt.Sprintf("column[%d] has no name", i))
		}
		if seen[c.Name] {
			return util.MsgError("Columns", fmt.Sprintf("duplicate column `%s`", c.Name))
		}
		seen[c.Name] = true
	}
	for _, c := range l.Columns {
		if c.SubGroupOf != "" {
			if !c.Group {
				return util.MsgError(c.Name, "sub_group_of set on a column that does not group")
			}
			p := l.Seq(c.SubGroupOf)
			if p < 0 || !l.Columns[p].Group {
				return util.MsgError(c.Name, fmt.Sprintf("sub_group_of `%s` is not a grouping column", c.SubGroupOf))
			}
			if c.SubGroupOf == c.Name {
				return util.MsgError(c.Name, "column is its own parent group")
			}
		}
		if c.GroupedRow && !c.Group {
			return util.MsgError(c.Name, "grouped_row set on a column that does not group")
		}
		if c.NumFormat != "" {
			if _, _, _, res := grouping.ParseNumFormat(c.NumFormat); res != nil {
				return res.With(c.Name)
			}
		}
		if res := l.validateSummary(c.GroupHeader); res != nil {
			return res.With(c.Name).With("GroupHeader")
		}
		if res := l.validateSummary(c.GroupFooter); res != nil {
			return res.With(c.Name).With("GroupFooter")
		}
	}
	if l.KeyColumn != "" && l.Seq(l.KeyColumn) < 0 {
		return util.MsgError("KeyColumn", fmt.Sprintf("unknown column `%s`", l.KeyColumn))
	}
	if res := l.validateSummary(l.PageSummary); res != nil {
		return res.With("PageSummary")
	}
	if l.Options != nil {
		if res := l.Options.Validate(); res != nil {
			return res.With("Options")
		}
	}
	return nil
}

func (l *Layout) validateSummary(s *SummaryLayout) *util.Result {
	if s == nil {
		return nil
	}
	for _, c := range s.Content {
		if l.Seq(c.Column) < 0 {
			return util.MsgError("Content", fmt.Sprintf("unknown column `%s`", c.Column))
		}
		if c.NumFormat != "" {
			if _, _, _, res := grouping.ParseNumFormat(c.NumFormat); res != nil {
				return res.With(c.Column)
			}
		}
	}
	for _, m := range s.Merge {
		from, to := l.Seq(m[0]), l.Seq(m[1])
		if from < 0 || to < 0 {
			return util.MsgError("Merge", fmt.Sprintf("unknown column in (%s, %s)", m[0], m[1]))
		}
		if from > to {
			return util.MsgError("Merge", fmt.Sprintf("(%s, %s) is reversed", m[0], m[1]))
		}
	}
	spec := l.summarySpec(s)
	if res := spec.Validate(); res != nil {
		return res
	}
	return nil
}

// summarySpec converts a name keyed summary layout into the engine's
// sequence keyed spec.
func (l *Layout) summarySpec(s *SummaryLayout) *grouping.SummarySpec {
	if s == nil {
		return nil
	}
	spec := &grouping.SummarySpec{
		Content:    make(map[int]grouping.ContentSpec, len(s.Content)),
		RowOptions: s.RowOptions,
	}
	for _, c := range s.Content {
		seq := l.Seq(c.Column)
		if seq < 0 {
			continue
		}
		cs := grouping.ContentSpec{
			Source:            c.Source,
			Format:            c.Format,
			Func:              c.Func,
			Decimals:          c.Decimals,
			DecimalSeparator:  c.DecimalSeparator,
			ThousandSeparator: c.ThousandSeparator,
		}
		if c.NumFormat != "" {
			applyNumFormat(&cs, c.NumFormat)
		}
		spec.Content[seq] = cs
		if len(c.Options) > 0 {
			if spec.ContentOptions == nil {
				spec.ContentOptions = make(map[int]map[string]string)
			}
			spec.ContentOptions[seq] = c.Options
		}
	}
	for _, m := range s.Merge {
		from, to := l.Seq(m[0]), l.Seq(m[1])
		if from < 0 || to < 0 {
			continue
		}
		spec.MergeColumns = append(spec.MergeColumns, [2]int{from, to})
	}
	return spec
}

func applyNumFormat(cs *grouping.ContentSpec, pattern string) {
	decimals, dec, thou, res := grouping.ParseNumFormat(pattern)
	if res != nil {
		return
	}
	cs.Decimals = decimals
	cs.DecimalSeparator = util.Ptr(dec)
	cs.ThousandSeparator = util.Ptr(thou)
}

// EngineOptions merges the layout's engine options with its page summary.
func (l *Layout) EngineOptions() grouping.Options {
	opts := grouping.DefaultOptions()
	if l.Options != nil {
		opts = *l.Options
		opts.MaybeDefault()
	}
	if l.PageSummary != nil {
		opts.PageSummary = l.summarySpec(l.PageSummary)
	}
	return opts
}
