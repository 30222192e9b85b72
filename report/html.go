package report

import (
	"embed"
	"io"
	"os"

	"github.com/google/safehtml/template"
	"github.com/soderasen-au/go-common/util"
)

//go:embed templates/*
var templateFS embed.FS

var tableTemplate = template.Must(template.New("table.html").ParseFS(template.TrustedFSFromEmbed(templateFS), "templates/table.html"))

type htmlCell struct {
	Text    string
	RowSpan int
	ColSpan int
	Class   string
}

type htmlRow struct {
	Class string
	Cells []htmlCell
}

type htmlTable struct {
	Title  string
	Labels []string
	Rows   []htmlRow
}

type HtmlReportPrinter struct {
	ReportPrinterBase
}

func NewHtmlReportPrinter() *HtmlReportPrinter {
	p := &HtmlReportPrinter{}
	p.ReportResults = make(map[string]*ReportResult)
	return p
}

func newHtmlTable(r Report) htmlTable {
	title := r.Title
	if title == "" {
		title = util.MaybeNil(r.Name)
	}
	v := htmlTable{Title: title, Labels: r.HeaderLabels()}
	grid := NewGrid(r.Table)
	for ri, row := range grid.Placements {
		hr := htmlRow{Class: grid.Kinds[ri].String(), Cells: make([]htmlCell, 0, len(row))}
		for _, pl := range row {
			hr.Cells = append(hr.Cells, htmlCell{
				Text:    pl.Cell.Text,
				RowSpan: pl.RowSpan,
				ColSpan: pl.ColSpan,
				Class:   pl.Cell.Class,
			})
		}
		v.Rows = append(v.Rows, hr)
	}
	return v
}

// PrintTo renders the table as a standalone HTML page with rowspan/colspan
// attributes; row classes name the row kind.
func (p *HtmlReportPrinter) PrintTo(w io.Writer, r Report) *util.Result {
	if r.Table == nil {
		return util.MsgError("PrintTo", "nil table")
	}
	if err := tableTemplate.Execute(w, newHtmlTable(r)); err != nil {
		return util.Error("Execute", err)
	}
	return nil
}

func (p *HtmlReportPrinter) Print(r Report) *util.Result {
	if res := r.Validate(); res != nil {
		return res.With("Validate")
	}
	if !r.OutputFormat.IsHtml() {
		return util.MsgError("OutputFormat", "HtmlReportPrinter only support html format")
	}

	rResult, res := NewReportResult(r)
	if res != nil {
		return res.With("NewReportResult")
	}
	p.ReportResults[*r.ID] = rResult
	logger := rResult.Logger.With().Str("report", *r.ID).Logger()
	p.Logger = &logger
	p.R = r

	ofs, err := os.OpenFile(util.MaybeNil(rResult.ReportFile), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return util.LogError(&logger, "OpenFile: "+util.MaybeNil(rResult.ReportFile), err)
	}
	defer ofs.Close()

	if res := p.PrintTo(ofs, r); res != nil {
		rResult.Result = res
		return res.LogWith(&logger, "PrintTo")
	}
	rResult.PrintedRows = len(r.Table.Rows) + 1

	logger.Info().Msgf("report is saved as [%s]", *rResult.ReportFile)
	return nil
}
