package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/qlik-oss/enigma-go/v4"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-grouptable/grouping"
)

type ReportFormat string

const (
	REPORT_FORMAT_XLSX ReportFormat = "xlsx"
	REPORT_FORMAT_CSV  ReportFormat = "csv"
	REPORT_FORMAT_TSV  ReportFormat = "tsv"
	REPORT_FORMAT_HTML ReportFormat = "html"
)

func (f ReportFormat) IsExcel() bool {
	return f == REPORT_FORMAT_XLSX
}

func (f ReportFormat) IsCsv() bool {
	return f == REPORT_FORMAT_CSV || f == REPORT_FORMAT_TSV
}

func (f ReportFormat) IsTsv() bool {
	return f == REPORT_FORMAT_TSV
}

func (f ReportFormat) IsHtml() bool {
	return f == REPORT_FORMAT_HTML
}

func (f ReportFormat) IsValid() bool {
	return f.IsExcel() || f.IsCsv() || f.IsHtml()
}

func (f *ReportFormat) MaybeDefault() {
	if !f.IsValid() {
		*f = REPORT_FORMAT_XLSX
	}
}

type ReportPrinterBase struct {
	ReportResults map[string]*ReportResult //report-id -> report-results
	R             Report
	Logger        *zerolog.Logger
}

func (p ReportPrinterBase) GetReportResult(id string) (*ReportResult, *util.Result) {
	result, ok := p.ReportResults[id]
	if !ok {
		return nil, util.MsgError("ReportFiles", "report id doesn't exists")
	}
	return result, nil
}

type IReportPrinter interface {
	Print(r Report) *util.Result
	GetReportResult(id string) (*ReportResult, *util.Result)
}

// Report is one grouped table to be written out. The table must have been
// processed by the grouping engine before printing.
type Report struct {
	ID    *string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  *string `json:"name,omitempty" yaml:"name,omitempty"`
	Title string  `json:"title,omitempty" yaml:"title,omitempty"`

	Table *grouping.Table `json:"-" yaml:"-"`
	// Labels holds the column titles indexed by column sequence
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// output
	OutputFormat *ReportFormat `json:"output_format,omitempty" yaml:"output_format,omitempty"`
	OutputFolder *string       `json:"output_folder,omitempty" yaml:"output_folder,omitempty"`
	OutputOffset *enigma.Rect  `json:"output_offset,omitempty" yaml:"output_offset,omitempty"`

	// logging
	LogFolder *string         `json:"log_folder,omitempty" yaml:"log_folder,omitempty"`
	Logger    *zerolog.Logger `json:"-" yaml:"-"`
}

func (r Report) IsValid() bool {
	if r.Table == nil {
		return false
	}

	if r.ID == nil || r.OutputFormat == nil || r.OutputFolder == nil {
		return false
	}

	return r.OutputFormat.IsValid()
}

func (r *Report) Validate() *util.Result {
	if r.Table == nil {
		return util.MsgError("ValidateReport", "no table to print")
	}

	if r.ID == nil {
		r.ID = new(string)
		*r.ID = fmt.Sprintf("%s-%s", util.MaybeNil(r.Name), time.Now().Format("20060102150405"))
	}

	if r.OutputFormat == nil {
		r.OutputFormat = new(ReportFormat)
	}
	r.OutputFormat.MaybeDefault()

	if r.OutputFolder == nil {
		r.OutputFolder = new(string)
	}

	if r.LogFolder == nil {
		r.LogFolder = new(string)
	}

	return nil
}

// HeaderLabels returns the titles of the rendered columns in output order.
// Columns without a label fall back to their sequence number.
func (r Report) HeaderLabels() []string {
	if r.Table == nil {
		return nil
	}
	ret := make([]string, 0, len(r.Table.Columns))
	for _, seq := range r.Table.Columns {
		if seq >= 0 && seq < len(r.Labels) {
			ret = append(ret, r.Labels[seq])
		} else {
			ret = append(ret, fmt.Sprintf("%d", seq))
		}
	}
	return ret
}

type ReportResult struct {
	ID          string          `json:"id,omitempty" yaml:"id,omitempty"`
	Result      *util.Result    `json:"result,omitempty" yaml:"result,omitempty"`
	Format      ReportFormat    `json:"format,omitempty" yaml:"format,omitempty"`
	ReportFile  *string         `json:"report_file,omitempty" yaml:"report_file,omitempty"`
	LogFile     *string         `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	Logger      *zerolog.Logger `json:"-" yaml:"-"`
	PrintedRows int             `json:"printed_rows,omitempty" yaml:"printed_rows,omitempty"`
}

func NewReportResult(r Report) (*ReportResult, *util.Result) {
	if !r.IsValid() {
		return nil, util.MsgError("Check", "invalid report")
	}

	rr := ReportResult{ID: *r.ID, Format: *r.OutputFormat}

	var rf string
	if r.Name != nil && len(*r.Name) > 0 {
		rn := strings.ReplaceAll(*r.Name, "/", "_")
		rn = strings.ReplaceAll(rn, "\\", "_")
		rf = filepath.Join(util.MaybeNil(r.OutputFolder), fmt.Sprintf("%s.%s", rn, *r.OutputFormat))
	} else {
		rf = filepath.Join(util.MaybeNil(r.OutputFolder), fmt.Sprintf("%s.%s", util.MaybeNil(r.ID), *r.OutputFormat))
	}
	rr.ReportFile = &rf

	if r.Logger != nil {
		rr.Logger = r.Logger
	} else {
		lf := filepath.Join(util.MaybeNil(r.LogFolder), fmt.Sprintf("log-%s.%s", util.MaybeNil(r.ID), "log"))
		rr.LogFile = &lf
		logger, err := loggers.GetLogger(lf)
		if err != nil {
			return nil, util.Error("GetLogger", err)
		}
		rr.Logger = logger
	}

	return &rr, nil
}
