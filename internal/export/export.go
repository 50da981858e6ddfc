package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/guregu/null/v6"

	"CCLSentinel/internal/model"
)

// Record is the flat export shape of one analysis result.
type Record struct {
	Symbol     string       `json:"symbol"`
	LocalClose float64      `json:"local_close"`
	HardClose  float64      `json:"hard_close"`
	LocalRSI   null.Float   `json:"local_rsi"`
	HardRSI    null.Float   `json:"hard_rsi"`
	Difference null.Float   `json:"difference"`
	Signal     model.Signal `json:"signal"`
}

// Header is the CSV column order.
var Header = []string{"symbol", "local_close", "hard_close", "local_rsi", "hard_rsi", "difference", "signal"}

func Records(results []model.AnalysisResult) []Record {
	out := make([]Record, len(results))
	for i, r := range results {
		out[i] = Record{
			Symbol:     r.Symbol,
			LocalClose: r.LocalClose,
			HardClose:  r.HardClose,
			LocalRSI:   r.LocalRSI,
			HardRSI:    r.HardRSI,
			Difference: r.Difference,
			Signal:     r.Signal,
		}
	}
	return out
}

// WriteCSV writes results as CSV with a header row. Undefined values are empty cells.
func WriteCSV(w io.Writer, results []model.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range Records(results) {
		row := []string{
			r.Symbol,
			formatFloat(r.LocalClose),
			formatFloat(r.HardClose),
			formatNull(r.LocalRSI),
			formatNull(r.HardRSI),
			formatNull(r.Difference),
			string(r.Signal),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName returns the timestamped export file name.
func FileName(now time.Time) string {
	return "rsi_acciones_" + now.Format("20060102_1504") + ".csv"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatNull(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', 2, 64)
}
