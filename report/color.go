package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"
)

const (
	OPTION_BG_COLOR = "bg_color"
	OPTION_BOLD     = "bold"
)

type ARGBColor struct {
	A int
	R int
	G int
	B int
}

var (
	PredefinedColorMap = map[string]*ARGBColor{
		"yellow":       {R: 255, G: 255, B: 0},
		"white":        {R: 255, G: 255, B: 255},
		"red":          {R: 128, G: 0, B: 0},
		"magenta":      {R: 128, G: 0, B: 128},
		"lightred":     {R: 255, G: 0, B: 0},
		"lightmagenta": {R: 255, G: 0, B: 255},
		"lightgreen":   {R: 0, G: 255, B: 0},
		"lightgray":    {R: 192, G: 192, B: 192},
		"lightcyan":    {R: 0, G: 255, B: 255},
		"lightblue":    {R: 0, G: 0, B: 255},
		"green":        {R: 0, G: 238, B: 0},
		"darkgray":     {R: 128, G: 128, B: 128},
		"cyan":         {R: 0, G: 128, B: 128},
		"brown":        {R: 128, G: 128, B: 0},
		"blue":         {R: 0, G: 0, B: 128},
		"black":        {R: 0, G: 0, B: 0},
	}
)

func (c ARGBColor) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// AssignBgStyle fills the cell with c and picks a black or white font by luminance.
func (c ARGBColor) AssignBgStyle(excelStyle *excelize.Style) {
	excelStyle.Fill.Type = "pattern"
	excelStyle.Fill.Pattern = 1
	excelStyle.Fill.Color = []string{c.Hex()}
	c.AssignLuminanceFont(excelStyle)
}

func (c ARGBColor) AssignLuminanceFont(excelStyle *excelize.Style) {
	luminance := (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255.0
	d := 255
	if luminance > 0.5 {
		d = 0
	}
	textCode := fmt.Sprintf("#%02X%02X%02X", d, d, d)
	if excelStyle.Font == nil {
		excelStyle.Font = &excelize.Font{}
	}
	excelStyle.Font.Color = textCode
}

// ParseColor accepts `#RRGGBB`, `rgb(r,g,b)`, `argb(a,r,g,b)` or a predefined name.
func ParseColor(t string) (*ARGBColor, *util.Result) {
	t = strings.ToLower(strings.ReplaceAll(t, " ", ""))

	switch {
	case strings.HasPrefix(t, "#"):
		code := t[1:]
		if len(code) != 6 {
			return nil, util.MsgError("ParseColor", "invalid hex color: "+t)
		}
		v, err := strconv.ParseUint(code, 16, 32)
		if err != nil {
			return nil, util.Error("ParseHex", err)
		}
		return &ARGBColor{A: 255, R: int(v >> 16 & 0xFF), G: int(v >> 8 & 0xFF), B: int(v & 0xFF)}, nil
	case strings.HasPrefix(t, "argb(") && strings.HasSuffix(t, ")"):
		parts, res := parseComponents(t[5:len(t)-1], 4)
		if res != nil {
			return nil, res.With("argb")
		}
		return &ARGBColor{A: parts[0], R: parts[1], G: parts[2], B: parts[3]}, nil
	case strings.HasPrefix(t, "rgb(") && strings.HasSuffix(t, ")"):
		parts, res := parseComponents(t[4:len(t)-1], 3)
		if res != nil {
			return nil, res.With("rgb")
		}
		return &ARGBColor{A: 255, R: parts[0], G: parts[1], B: parts[2]}, nil
	}

	if c, ok := PredefinedColorMap[t]; ok {
		ret := *c
		ret.A = 255
		return &ret, nil
	}
	return nil, util.MsgError("ParseColor", "unknown color: "+t)
}

func parseComponents(s string, n int) ([]int, *util.Result) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, util.MsgError("parseComponents", fmt.Sprintf("expect %d components, got %d", n, len(fields)))
	}
	ret := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, util.Error("Atoi", err)
		}
		if v < 0 || v > 255 {
			return nil, util.MsgError("parseComponents", fmt.Sprintf("component %d out of range", v))
		}
		ret[i] = v
	}
	return ret, nil
}
