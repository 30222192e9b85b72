package report

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input    string
		expected *ARGBColor
	}{
		{"#FF8000", &ARGBColor{A: 255, R: 255, G: 128, B: 0}},
		{"#ff8000", &ARGBColor{A: 255, R: 255, G: 128, B: 0}},
		{"rgb(1, 2, 3)", &ARGBColor{A: 255, R: 1, G: 2, B: 3}},
		{"ARGB(10,20,30,40)", &ARGBColor{A: 10, R: 20, G: 30, B: 40}},
		{"LightGray", &ARGBColor{A: 255, R: 192, G: 192, B: 192}},
		{"black", &ARGBColor{A: 255}},
		{"#FFF", nil},
		{"#GGGGGG", nil},
		{"rgb(1,2)", nil},
		{"rgb(1,2,300)", nil},
		{"chartreuse", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, res := ParseColor(tt.input)
			if tt.expected == nil {
				if res == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if res != nil {
				t.Fatalf("unexpected error: %v", res)
			}
			if *got != *tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestAssignBgStyle(t *testing.T) {
	tests := []struct {
		color ARGBColor
		fill  string
		font  string
	}{
		{ARGBColor{R: 255, G: 255, B: 0}, "#FFFF00", "#000000"},
		{ARGBColor{R: 0, G: 0, B: 128}, "#000080", "#FFFFFF"},
	}
	for _, tt := range tests {
		t.Run(tt.fill, func(t *testing.T) {
			style := excelize.Style{Font: &excelize.Font{Bold: true}}
			tt.color.AssignBgStyle(&style)
			if len(style.Fill.Color) != 1 || style.Fill.Color[0] != tt.fill {
				t.Errorf("expected fill %s, got %v", tt.fill, style.Fill.Color)
			}
			if style.Font.Color != tt.font {
				t.Errorf("expected font %s, got %s", tt.font, style.Font.Color)
			}
			if !style.Font.Bold {
				t.Error("bold must survive the font colour")
			}
		})
	}
}
