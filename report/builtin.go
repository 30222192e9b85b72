package report

import "github.com/soderasen-au/go-common/util"

// BuiltInReportPrinter routes each report to the printer of its output
// format and remembers which format printed which report id.
type BuiltInReportPrinter struct {
	ExcelPrinter *ExcelReportPrinter
	CsvPrinter   *CsvReportPrinter
	HtmlPrinter  *HtmlReportPrinter

	printed map[string]ReportFormat
}

func NewBuiltInReportPrinter() *BuiltInReportPrinter {
	return &BuiltInReportPrinter{
		ExcelPrinter: NewExcelReportPrinter(),
		CsvPrinter:   NewCsvReportPrinter(),
		HtmlPrinter:  NewHtmlReportPrinter(),
		printed:      make(map[string]ReportFormat),
	}
}

// PrinterFor returns the printer serving f. tsv shares the csv printer.
func (p *BuiltInReportPrinter) PrinterFor(f ReportFormat) (IReportPrinter, *util.Result) {
	switch {
	case f.IsExcel():
		return p.ExcelPrinter, nil
	case f.IsCsv():
		return p.CsvPrinter, nil
	case f.IsHtml():
		return p.HtmlPrinter, nil
	}
	return nil, util.MsgError("PrinterFor", "built_in printer doesn't support output format: "+string(f))
}

func (p *BuiltInReportPrinter) GetReportResult(id string) (*ReportResult, *util.Result) {
	if f, ok := p.printed[id]; ok {
		if printer, res := p.PrinterFor(f); res == nil {
			return printer.GetReportResult(id)
		}
	}
	for _, printer := range []IReportPrinter{p.ExcelPrinter, p.CsvPrinter, p.HtmlPrinter} {
		if result, res := printer.GetReportResult(id); res == nil {
			return result, nil
		}
	}
	return nil, util.MsgError("ReportFiles", "report id doesn't exists")
}

func (p *BuiltInReportPrinter) Print(r Report) *util.Result {
	if r.OutputFormat == nil {
		r.OutputFormat = util.Ptr(REPORT_FORMAT_XLSX)
	}
	format := *r.OutputFormat
	printer, res := p.PrinterFor(format)
	if res != nil {
		return res
	}
	if res := printer.Print(r); res != nil {
		return res.With(string(format))
	}
	if r.ID != nil {
		p.printed[*r.ID] = format
	}
	return nil
}
