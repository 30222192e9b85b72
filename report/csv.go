package report

import (
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/soderasen-au/go-common/util"
)

type CsvReportPrinter struct {
	ReportPrinterBase
	Writer *gocsv.SafeCSVWriter
	ColCnt int
	RowCnt int
}

func NewCsvReportPrinter() *CsvReportPrinter {
	p := &CsvReportPrinter{}
	p.ReportResults = make(map[string]*ReportResult)
	return p
}

// PrintTo writes the label row and one record per table row. Cells spanning
// several rows or columns print their text once, in their top-left slot.
func (p *CsvReportPrinter) PrintTo(w io.Writer, r Report) *util.Result {
	if r.Table == nil {
		return util.MsgError("PrintTo", "nil table")
	}
	p.Writer = gocsv.DefaultCSVWriter(w)
	if r.OutputFormat != nil && r.OutputFormat.IsTsv() {
		p.Writer.Comma = '\t'
	}
	p.ColCnt, p.RowCnt = 0, 0

	grid := NewGrid(r.Table)
	header := r.HeaderLabels()
	for len(header) < grid.Width {
		header = append(header, "")
	}
	if err := p.Writer.Write(header); err != nil {
		return util.Error("WriteHeader", err)
	}
	p.ColCnt = len(header)

	for ri, record := range grid.Records() {
		for len(record) < p.ColCnt {
			record = append(record, "")
		}
		if err := p.Writer.Write(record); err != nil {
			return util.Error("WriteRecord", err).With(r.Table.Rows[ri].Key)
		}
		p.RowCnt++
	}
	p.Writer.Flush()
	if err := p.Writer.Error(); err != nil {
		return util.Error("Flush", err)
	}
	return nil
}

func (p *CsvReportPrinter) Print(r Report) *util.Result {
	if res := r.Validate(); res != nil {
		return res.With("Validate")
	}
	if !r.OutputFormat.IsCsv() {
		return util.MsgError("OutputFormat", "CsvReportPrinter only support csv format")
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
	defer func() {
		if ofs != nil {
			ofs.Close()
		}
	}()

	if res := p.PrintTo(ofs, r); res != nil {
		rResult.Result = res
		return res.LogWith(&logger, "PrintTo")
	}
	rResult.PrintedRows = p.RowCnt + 1

	err = ofs.Close()
	ofs = nil
	if err != nil {
		return util.LogError(&logger, "Close", err)
	}

	logger.Info().Msgf("report is saved as [%s]", *rResult.ReportFile)
	return nil
}
