package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"
)

// LoadCSV reads a CSV stream whose header row names the layout columns.
// comma 0 keeps the default `,`.
func (l *Layout) LoadCSV(name string, r io.Reader, comma rune, logger *zerolog.Logger) (*Snapshot, *util.Result) {
	if logger == nil {
		logger = loggers.NullLogger
	}
	csvLogger := logger.With().Str("table", name).Logger()

	reader := gocsv.LazyCSVReader(r)
	if cr, ok := reader.(*csv.Reader); ok {
		if comma != 0 {
			cr.Comma = comma
		}
		cr.FieldsPerRecord = -1
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, util.LogMsgError(&csvLogger, "Header", "csv has no header row")
	}
	if err != nil {
		return nil, util.LogError(&csvLogger, "Header", err)
	}
	fieldIx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		fieldIx[strings.TrimSpace(h)] = i
	}
	cols := make([]int, len(l.Columns))
	for seq, c := range l.Columns {
		ix, ok := fieldIx[c.Name]
		if !ok {
			return nil, util.LogMsgError(&csvLogger, "Header", fmt.Sprintf("column `%s` not found in csv header", c.Name))
		}
		cols[seq] = ix
	}

	records := make([][]Value, 0)
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, util.LogError(&csvLogger, fmt.Sprintf("line[%d]", line), err)
		}
		rec := make([]Value, 0, len(cols))
		for _, ix := range cols {
			if ix >= len(fields) {
				break
			}
			rec = append(rec, Value{Text: fields[ix], Num: numValue(fields[ix])})
		}
		records = append(records, rec)
	}
	csvLogger.Info().Msgf("loaded %d records", len(records))
	return l.NewSnapshot(name, records, &csvLogger), nil
}

// LoadCSVFile opens path and loads it with LoadCSV.
func (l *Layout) LoadCSVFile(name, path string, comma rune, logger *zerolog.Logger) (*Snapshot, *util.Result) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.Error("Open", err)
	}
	defer f.Close()

	s, res := l.LoadCSV(name, f, comma, logger)
	if res != nil {
		return nil, res.With(path)
	}
	return s, nil
}
