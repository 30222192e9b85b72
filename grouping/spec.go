package grouping

import (
	"fmt"

	"github.com/soderasen-au/go-common/util"
)

const (
	FORMAT_NUMBER   string = "number"
	FORMAT_CALLBACK string = "callback"

	DEFAULT_MAX_LEVELS         int    = 3
	DEFAULT_RECONCILE_LEVELS   int    = 3
	DEFAULT_DECIMAL_SEPARATOR  string = "."
	DEFAULT_THOUSAND_SEPARATOR string = ","
)

// ContentSpec describes one summary cell. Source is either static text or an
// aggregate function name (count, sum, avg, max, min, custom).
type ContentSpec struct {
	Source            string  `json:"source" yaml:"source"`
	Format            string  `json:"format,omitempty" yaml:"format,omitempty"`
	Func              string  `json:"func,omitempty" yaml:"func,omitempty"`
	Decimals          int     `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	DecimalSeparator  *string `json:"decimal_separator,omitempty" yaml:"decimal_separator,omitempty"`
	ThousandSeparator *string `json:"thousand_separator,omitempty" yaml:"thousand_separator,omitempty"`
}

// IsComputed reports whether the content is aggregated rather than static text.
func (c ContentSpec) IsComputed() bool {
	if c.Format == FORMAT_CALLBACK {
		return true
	}
	_, ok := ParseAggFunc(c.Source)
	return ok
}

func (c ContentSpec) separators(o Options) (string, string) {
	dec, thou := o.DecimalSeparator, o.ThousandSeparator
	if c.DecimalSeparator != nil {
		dec = *c.DecimalSeparator
	}
	if c.ThousandSeparator != nil {
		thou = *c.ThousandSeparator
	}
	return dec, thou
}

// SummarySpec configures one header or footer row of a group, keyed by column sequence.
type SummarySpec struct {
	Content        map[int]ContentSpec       `json:"content,omitempty" yaml:"content,omitempty"`
	MergeColumns   [][2]int                  `json:"merge_columns,omitempty" yaml:"merge_columns,omitempty"`
	ContentOptions map[int]map[string]string `json:"content_options,omitempty" yaml:"content_options,omitempty"`
	RowOptions     map[string]string         `json:"row_options,omitempty" yaml:"row_options,omitempty"`
}

func (s *SummarySpec) Validate() *util.Result {
	if s == nil {
		return nil
	}
	for i, m := range s.MergeColumns {
		if m[0] > m[1] {
			return util.MsgError("MergeColumns", fmt.Sprintf("range[%d] (%d, %d) is reversed", i, m[0], m[1]))
		}
	}
	for seq, c := range s.Content {
		if c.Format != "" && c.Format != FORMAT_NUMBER && c.Format != FORMAT_CALLBACK {
			return util.MsgError("Content", fmt.Sprintf("column %d: unknown format `%s`", seq, c.Format))
		}
		if c.Format == FORMAT_CALLBACK && c.Func == "" {
			return util.MsgError("Content", fmt.Sprintf("column %d: callback format without func", seq))
		}
		if c.Decimals < 0 {
			return util.MsgError("Content", fmt.Sprintf("column %d: negative decimals", seq))
		}
	}
	return nil
}

type Options struct {
	// MaxLevels bounds nesting depth and the parent walk of key derivation
	MaxLevels int `json:"max_levels,omitempty" yaml:"max_levels,omitempty"`
	// ReconcileFromLevels is the nesting depth from which footer aggregates are re-derived
	ReconcileFromLevels int          `json:"reconcile_from_levels,omitempty" yaml:"reconcile_from_levels,omitempty"`
	DecimalSeparator    string       `json:"decimal_separator,omitempty" yaml:"decimal_separator,omitempty"`
	ThousandSeparator   string       `json:"thousand_separator,omitempty" yaml:"thousand_separator,omitempty"`
	PageSummary         *SummarySpec `json:"page_summary,omitempty" yaml:"page_summary,omitempty"`
}

func DefaultOptions() Options {
	return Options{
		MaxLevels:           DEFAULT_MAX_LEVELS,
		ReconcileFromLevels: DEFAULT_RECONCILE_LEVELS,
		DecimalSeparator:    DEFAULT_DECIMAL_SEPARATOR,
		ThousandSeparator:   DEFAULT_THOUSAND_SEPARATOR,
	}
}

// MaybeDefault fills unset fields. ThousandSeparator may stay empty on purpose.
func (o *Options) MaybeDefault() {
	if o.MaxLevels <= 0 {
		o.MaxLevels = DEFAULT_MAX_LEVELS
	}
	if o.ReconcileFromLevels <= 0 {
		o.ReconcileFromLevels = DEFAULT_RECONCILE_LEVELS
	}
	if o.DecimalSeparator == "" {
		o.DecimalSeparator = DEFAULT_DECIMAL_SEPARATOR
	}
}

func (o Options) Validate() *util.Result {
	if o.MaxLevels < 0 {
		return util.MsgError("MaxLevels", "must not be negative")
	}
	if o.DecimalSeparator != "" && o.DecimalSeparator == o.ThousandSeparator {
		return util.MsgError("Separators", fmt.Sprintf("decimal and thousand separators are both `%s`", o.DecimalSeparator))
	}
	if res := o.PageSummary.Validate(); res != nil {
		return res.With("PageSummary")
	}
	return nil
}
