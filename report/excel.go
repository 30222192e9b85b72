package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qlik-oss/enigma-go/v4"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"

	"github.com/soderasen-au/go-grouptable/grouping"
)

const (
	ROW_LIMIT_PER_SHEET int = 1048576
	SHEET_NAME_MAX_LEN  int = 31
)

type ExcelReportPrinter struct {
	ReportPrinterBase
	styles map[string]int
}

func NewExcelReportPrinter() *ExcelReportPrinter {
	p := &ExcelReportPrinter{}
	p.ReportResults = make(map[string]*ReportResult)
	return p
}

// CheckRowsLimit fails when rows more rows at the given top row would run past the sheet.
func (p *ExcelReportPrinter) CheckRowsLimit(top, rows int) *util.Result {
	if rows > ROW_LIMIT_PER_SHEET || top-1+rows > ROW_LIMIT_PER_SHEET {
		errRes := fmt.Errorf("table rows(%d) from row(%d) exceeding excel sheet limit(%d)", rows, top, ROW_LIMIT_PER_SHEET)
		return util.Error("CheckRowsLimit", errRes)
	}
	return nil
}

func (p *ExcelReportPrinter) Print(r Report) *util.Result {
	if res := r.Validate(); res != nil {
		return res.With("Validate")
	}
	if !r.OutputFormat.IsExcel() {
		return util.MsgError("OutputFormat", "ExcelReportPrinter only support xlsx format")
	}

	rResult, res := NewReportResult(r)
	if res != nil {
		return res.With("NewReportResult")
	}
	p.ReportResults[*r.ID] = rResult
	logger := rResult.Logger.With().Str("report", *r.ID).Logger()
	p.Logger = &logger
	p.R = r

	excel := excelize.NewFile()
	defer excel.Close()

	rect := enigma.Rect{Top: 1, Left: 1}
	if r.OutputOffset != nil {
		rect = *r.OutputOffset
		rect.Top = util.Max(1, rect.Top)
		rect.Left = util.Max(1, rect.Left)
	}

	sheet := p.sheetName(r)
	if _, err := excel.NewSheet(sheet); err != nil {
		return util.LogError(&logger, "NewSheet", err)
	}
	area, res := p.PrintSheet(excel, sheet, r, rect, &logger)
	if res != nil {
		rResult.Result = res
		return res.LogWith(&logger, "PrintSheet")
	}
	rResult.PrintedRows = area.Height

	if sheet != "Sheet1" {
		if err := excel.DeleteSheet("Sheet1"); err != nil {
			logger.Warn().Err(err).Msg("DeleteSheet")
		}
	}
	if err := excel.SaveAs(*rResult.ReportFile); err != nil {
		return util.LogError(&logger, "SaveAs", err)
	}

	logger.Info().Msgf("report is saved as [%s]", *rResult.ReportFile)
	return nil
}

func (p *ExcelReportPrinter) sheetName(r Report) string {
	name := strings.TrimSpace(r.Title)
	if name == "" {
		name = util.MaybeNil(r.Name)
	}
	if name == "" {
		name = "Sheet1"
	}
	name = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_").Replace(name)
	if len(name) > SHEET_NAME_MAX_LEN {
		name = name[:SHEET_NAME_MAX_LEN]
	}
	return name
}

// PrintSheet writes the label row and the grouped table at rect.Top/rect.Left
// (1 based) and returns the printed area.
func (p *ExcelReportPrinter) PrintSheet(excel *excelize.File, sheet string, r Report, rect enigma.Rect, _logger *zerolog.Logger) (*enigma.Rect, *util.Result) {
	if r.Table == nil {
		return nil, util.MsgError("PrintSheet", "nil table")
	}
	if p.styles == nil {
		p.styles = make(map[string]int)
	}
	logger := _logger.With().Str("sheet", sheet).Logger()

	grid := NewGrid(r.Table)
	if res := p.CheckRowsLimit(rect.Top, grid.Height+1); res != nil {
		return nil, res.LogWith(&logger, "CheckRowsLimit")
	}

	for ci, label := range r.HeaderLabels() {
		cellName, err := excelize.CoordinatesToCellName(rect.Left+ci, rect.Top)
		if err != nil {
			return nil, util.LogError(&logger, "CoordinatesToCellName", err)
		}
		if err := excel.SetCellStr(sheet, cellName, label); err != nil {
			return nil, util.LogError(&logger, "SetCellStr", err)
		}
		if res := p.applyStyle(excel, sheet, cellName, cellName, excelize.Style{Font: &excelize.Font{Bold: true}}); res != nil {
			return nil, res.LogWith(&logger, "HeaderStyle")
		}
	}

	top := rect.Top + 1
	for ri, row := range grid.Placements {
		src := r.Table.Rows[ri]
		for _, pl := range row {
			if res := p.printCell(excel, sheet, top, rect.Left, src, pl, &logger); res != nil {
				return nil, res.With(fmt.Sprintf("row[%d]", ri))
			}
		}
	}

	ret := &enigma.Rect{Top: rect.Top, Left: rect.Left, Width: grid.Width, Height: grid.Height + 1}
	logger.Debug().Msgf("printed area: (%d, %d) %dx%d", ret.Top, ret.Left, ret.Height, ret.Width)
	return ret, nil
}

func (p *ExcelReportPrinter) printCell(excel *excelize.File, sheet string, top, left int, src *grouping.Row, pl Placement, _logger *zerolog.Logger) *util.Result {
	r0, c0 := top+pl.Row, left+pl.Col
	hCell, err := excelize.CoordinatesToCellName(c0, r0)
	if err != nil {
		return util.LogError(_logger, "CoordinatesToCellName", err)
	}
	cellLogger := _logger.With().Str("name", hCell).Logger()

	if isPlainNumber(pl.Cell) {
		err = excel.SetCellFloat(sheet, hCell, *pl.Cell.Raw, -1, 64)
	} else {
		err = excel.SetCellStr(sheet, hCell, pl.Cell.Text)
	}
	if err != nil {
		return util.LogError(&cellLogger, "SetCell", err)
	}
	cellLogger.Trace().Msgf("content: %s", pl.Cell.Text)

	vCell := hCell
	if pl.RowSpan > 1 || pl.ColSpan > 1 {
		vCell, err = excelize.CoordinatesToCellName(c0+pl.ColSpan-1, r0+pl.RowSpan-1)
		if err != nil {
			return util.LogError(&cellLogger, "vCoordinatesToCellName", err)
		}
		cellLogger.Debug().Msgf("merge cells %s:%s", hCell, vCell)
		if err := excel.MergeCell(sheet, hCell, vCell); err != nil {
			return util.LogError(&cellLogger, "MergeCell", err)
		}
	}

	style, ok := cellStyle(src, pl, &cellLogger)
	if !ok {
		return nil
	}
	if res := p.applyStyle(excel, sheet, hCell, vCell, style); res != nil {
		return res.LogWith(&cellLogger, "applyStyle")
	}
	return nil
}

// applyStyle registers each distinct style once per printer.
func (p *ExcelReportPrinter) applyStyle(excel *excelize.File, sheet, hCell, vCell string, style excelize.Style) *util.Result {
	key := styleKey(style)
	styleId, ok := p.styles[key]
	if !ok {
		id, err := excel.NewStyle(&style)
		if err != nil {
			return util.Error("NewStyle", err)
		}
		styleId = id
		p.styles[key] = id
	}
	if err := excel.SetCellStyle(sheet, hCell, vCell, styleId); err != nil {
		return util.Error("SetCellStyle", err)
	}
	return nil
}

func styleKey(s excelize.Style) string {
	parts := make([]string, 0, 4)
	if s.Font != nil {
		parts = append(parts, fmt.Sprintf("font:%v:%s", s.Font.Bold, s.Font.Color))
	}
	parts = append(parts, fmt.Sprintf("fill:%s:%d:%v", s.Fill.Type, s.Fill.Pattern, s.Fill.Color))
	if s.Alignment != nil {
		parts = append(parts, "align:"+s.Alignment.Vertical)
	}
	return strings.Join(parts, "|")
}

// cellStyle derives the style of a placed cell: row-spanned cells are
// vertically centred; summary and marker cells are bold and honour `bg_color`.
// Run cells carried up into a summary row keep the data style.
func cellStyle(src *grouping.Row, pl Placement, logger *zerolog.Logger) (excelize.Style, bool) {
	style := excelize.Style{}
	styled := false
	if pl.RowSpan > 1 {
		style.Alignment = &excelize.Alignment{Vertical: "center"}
		styled = true
	}

	summaryCell := !src.IsDataRow() && pl.RowSpan == 1
	if summaryCell {
		bold := true
		if v, ok := option(src, pl.Cell, OPTION_BOLD); ok {
			if b, err := strconv.ParseBool(v); err != nil {
				logger.Warn().Msgf("ignore bold `%s`: %s", v, err.Error())
			} else {
				bold = b
			}
		}
		if bold {
			style.Font = &excelize.Font{Bold: true}
			styled = true
		}
	}

	v, ok := pl.Cell.Options[OPTION_BG_COLOR]
	if !ok && summaryCell {
		v, ok = src.Options[OPTION_BG_COLOR]
	}
	if ok {
		c, res := ParseColor(v)
		if res != nil {
			logger.Warn().Msgf("ignore bg_color `%s`: %s", v, res.Error())
		} else {
			c.AssignBgStyle(&style)
			styled = true
		}
	}
	return style, styled
}

// option reads a cell option first, then the row option.
func option(r *grouping.Row, c *grouping.Cell, name string) (string, bool) {
	if v, ok := c.Options[name]; ok {
		return v, true
	}
	v, ok := r.Options[name]
	return v, ok
}

// isPlainNumber reports whether the cell text is the bare rendering of its
// raw value, so that writing the number loses nothing.
func isPlainNumber(c *grouping.Cell) bool {
	if c.Raw == nil {
		return false
	}
	return strconv.FormatFloat(*c.Raw, 'f', -1, 64) == strings.TrimSpace(c.Text)
}
