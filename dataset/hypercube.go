package dataset

import (
	"math"

	"github.com/qlik-oss/enigma-go/v4"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
)

// cellValue keeps qNum only when the engine delivered a number.
func cellValue(cell *enigma.NxCell) Value {
	if cell == nil {
		return Value{}
	}
	v := Value{Text: cell.Text}
	num := float64(cell.Num)
	if !cell.IsNull && !math.IsNaN(num) && !math.IsInf(num, 0) {
		v.Num = &num
	}
	return v
}

// FromNxCells maps hypercube rows onto the layout columns by position.
func (l *Layout) FromNxCells(name string, matrix [][]*enigma.NxCell, logger *zerolog.Logger) *Snapshot {
	records := make([][]Value, 0, len(matrix))
	for _, row := range matrix {
		rec := make([]Value, 0, len(row))
		for _, cell := range row {
			rec = append(rec, cellValue(cell))
		}
		records = append(records, rec)
	}
	return l.NewSnapshot(name, records, logger)
}

// FromDataPages flattens hypercube data pages in order. Empty pages are skipped.
func (l *Layout) FromDataPages(name string, pages []*enigma.NxDataPage, logger *zerolog.Logger) *Snapshot {
	if logger == nil {
		logger = loggers.NullLogger
	}
	matrix := make([][]*enigma.NxCell, 0)
	for pi, page := range pages {
		if page == nil || page.Area == nil || page.Area.Height < 1 {
			logger.Warn().Msgf("page: [%d] is empty, ignore ...", pi)
			continue
		}
		for _, row := range page.Matrix {
			matrix = append(matrix, row)
		}
	}
	return l.FromNxCells(name, matrix, logger)
}
