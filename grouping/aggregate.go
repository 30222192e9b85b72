package grouping

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

type AggFunc string

const (
	AGG_COUNT  AggFunc = "count"
	AGG_SUM    AggFunc = "sum"
	AGG_AVG    AggFunc = "avg"
	AGG_MAX    AggFunc = "max"
	AGG_MIN    AggFunc = "min"
	AGG_CUSTOM AggFunc = "custom"
)

// ParseAggFunc accepts the plain names and the `f_` prefixed variants.
func ParseAggFunc(s string) (AggFunc, bool) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "f_")
	switch fn := AggFunc(name); fn {
	case AGG_COUNT, AGG_SUM, AGG_AVG, AGG_MAX, AGG_MIN, AGG_CUSTOM:
		return fn, true
	}
	return "", false
}

// ParseValue prefers the raw numeric value, then the display text with
// separators normalised. Anything unparseable counts as 0.
func ParseValue(c *Cell, decimalSep, thousandSep string) float64 {
	if c == nil {
		return 0
	}
	if c.Raw != nil {
		if math.IsNaN(*c.Raw) || math.IsInf(*c.Raw, 0) {
			return 0
		}
		return *c.Raw
	}
	text := strings.TrimSpace(c.Text)
	if thousandSep != "" {
		text = strings.ReplaceAll(text, thousandSep, "")
	}
	if decimalSep != "" && decimalSep != "." {
		text = strings.ReplaceAll(text, decimalSep, ".")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Aggregate reduces values with fn. ok is false when there is nothing to
// report: no values, or a function that is not numeric.
func Aggregate(values []float64, fn AggFunc) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	switch fn {
	case AGG_COUNT:
		return float64(len(values)), true
	case AGG_SUM, AGG_AVG:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		if fn == AGG_AVG {
			return sum / float64(len(values)), true
		}
		return sum, true
	case AGG_MAX:
		ret := values[0]
		for _, v := range values[1:] {
			ret = math.Max(ret, v)
		}
		return ret, true
	case AGG_MIN:
		ret := values[0]
		for _, v := range values[1:] {
			ret = math.Min(ret, v)
		}
		return ret, true
	}
	return 0, false
}

// AggregatorFunc computes a pre-formatted summary from raw collected values.
type AggregatorFunc func(values []float64) string

// Registry maps custom aggregator names to functions. It is handed to the
// engine explicitly.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]AggregatorFunc
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]AggregatorFunc)}
}

func (r *Registry) Register(name string, fn AggregatorFunc) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
	return r
}

func (r *Registry) Lookup(name string) (AggregatorFunc, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok && fn != nil
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	return names
}

// Summarize renders a content spec over collected values. Static content is
// returned as is; zero values yield "".
func Summarize(values []float64, spec ContentSpec, opts Options, reg *Registry) string {
	fn, computed := ParseAggFunc(spec.Source)
	if spec.Format == FORMAT_CALLBACK || fn == AGG_CUSTOM {
		name := spec.Func
		if name == "" && !computed {
			name = spec.Source
		}
		custom, ok := reg.Lookup(name)
		if !ok || len(values) == 0 {
			return ""
		}
		return custom(values)
	}
	if !computed {
		return spec.Source
	}
	v, ok := Aggregate(values, fn)
	if !ok {
		return ""
	}
	dec, thou := spec.separators(opts)
	return FormatNumber(v, spec.Decimals, dec, thou)
}
