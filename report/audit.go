package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/soderasen-au/go-common/util"
)

type AuditRecord struct {
	Timestamp       time.Time
	Table           string
	ReportId        string
	Format          ReportFormat
	ReportFileName  string
	ReportFileSize  int64
	ReportTotalRows int
	Groups          int
}

// NewAuditRecord describes a printed report; the file size is read from disk.
func NewAuditRecord(table string, rr *ReportResult, groups int) AuditRecord {
	rec := AuditRecord{
		Timestamp:       time.Now(),
		Table:           table,
		ReportId:        rr.ID,
		Format:          rr.Format,
		ReportFileName:  util.MaybeNil(rr.ReportFile),
		ReportTotalRows: rr.PrintedRows,
		Groups:          groups,
	}
	if fi, err := os.Stat(rec.ReportFileName); err == nil {
		rec.ReportFileSize = fi.Size()
	}
	return rec
}

func (f AuditRecord) GetCSVLine() []string {
	return []string{
		f.Timestamp.Format(time.RFC3339),
		f.Table,
		f.ReportId,
		string(f.Format),
		f.ReportFileName,
		fmt.Sprintf("%d", f.ReportFileSize),
		fmt.Sprintf("%d", f.ReportTotalRows),
		fmt.Sprintf("%d", f.Groups),
	}
}

func GetCSVHeader() []string {
	return []string{"Timestamp", "Table", "ReportId", "Format", "FileName", "FileSize", "TotalRows", "Groups"}
}

type AuditLog struct {
	fileName string
	fd       *os.File
	writer   *gocsv.SafeCSVWriter
	mu       sync.Mutex
}

func (audit *AuditLog) Close() {
	audit.mu.Lock()
	defer audit.mu.Unlock()
	if audit.fd != nil {
		audit.writer.Flush()
		audit.fd.Close()
		audit.fd = nil
	}
}

func (audit *AuditLog) Record(r AuditRecord) *util.Result {
	audit.mu.Lock()
	defer audit.mu.Unlock()

	if audit.fd == nil {
		return util.MsgError("Record", "audit log is closed")
	}
	if err := audit.writer.Write(r.GetCSVLine()); err != nil {
		return util.Error("WriteRecord", err)
	}
	audit.writer.Flush()
	if err := audit.writer.Error(); err != nil {
		return util.Error("Flush", err)
	}
	return nil
}

// OpenFile appends to fn, writing the header line first when the file is empty.
func (audit *AuditLog) OpenFile(fn string) *util.Result {
	f, err := os.OpenFile(fn, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return util.Error("OpenFile", err)
	}

	scanner := bufio.NewScanner(f)
	ok := scanner.Scan()
	if err := scanner.Err(); !ok && err != nil {
		f.Close()
		return util.Error("Scan", err)
	}
	firstLine := strings.TrimSpace(scanner.Text())
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return util.Error("Seek", err)
	}

	audit.fileName = fn
	audit.fd = f
	audit.writer = gocsv.DefaultCSVWriter(f)
	if firstLine == "" {
		if err := audit.writer.Write(GetCSVHeader()); err != nil {
			f.Close()
			return util.Error("WriteHeader", err)
		}
		audit.writer.Flush()
	}

	return nil
}

func NewAuditLog(fn string) (*AuditLog, *util.Result) {
	auditLog := &AuditLog{}
	res := auditLog.OpenFile(fn)
	if res != nil {
		return nil, res.With("OpenFile")
	}

	return auditLog, nil
}
