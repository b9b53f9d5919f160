// Package export renders screen results as an xlsx workbook.
package export

import (
	"fmt"
	"time"

	"StockPulse/internal/domain/models"

	"github.com/xuri/excelize/v2"
)

const (
	CandidatesSheet = "Candidates"
	SummarySheet    = "Summary"
	ContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var candidateHeaders = []string{
	"Code", "Name", "Price", "Change %", "Turnover %", "Volume Ratio",
	"Float Cap (100M)", "Morphology", "Score", "Target", "Take Profit", "Stop", "Position %",
}

// Workbook renders res into xlsx bytes.
func Workbook(res models.ScreenResult, loc *time.Location) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", CandidatesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range candidateHeaders {
		if err := wb.SetCellValue(CandidatesSheet, excelColumn(i)+"1", h); err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
	}

	for r, c := range res.Candidates {
		row := r + 2
		values := []interface{}{
			c.Code, c.Name, c.Price, c.ChangePct, c.TurnoverRate, c.VolumeRatio,
			round2(c.FloatCapYi()), string(c.Morphology), c.Score,
			c.Plan.Target, c.Plan.TakeProfit, c.Plan.Stop, c.Plan.PositionPct,
		}
		for i, v := range values {
			if err := wb.SetCellValue(CandidatesSheet, fmt.Sprintf("%s%d", excelColumn(i), row), v); err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
		}
	}
	_ = wb.SetColWidth(CandidatesSheet, "A", excelColumn(len(candidateHeaders)-1), 14)
	_ = wb.SetPanes(CandidatesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if _, err := wb.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	summary := [][2]interface{}{
		{"Snapshot time", res.FetchedAt.In(loc).Format("2006-01-02 15:04:05")},
		{"Scanned", res.Scanned},
		{"Matched", res.Matched},
		{"Exported", len(res.Candidates)},
		{"Warning", res.Warning},
	}
	for i, kv := range summary {
		_ = wb.SetCellValue(SummarySheet, fmt.Sprintf("A%d", i+1), kv[0])
		_ = wb.SetCellValue(SummarySheet, fmt.Sprintf("B%d", i+1), kv[1])
	}
	_ = wb.SetColWidth(SummarySheet, "A", "B", 22)

	if idx, err := wb.GetSheetIndex(CandidatesSheet); err == nil {
		wb.SetActiveSheet(idx)
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the download name for a result, stamped with its snapshot time.
func Filename(res models.ScreenResult, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return "screen_" + res.FetchedAt.In(loc).Format("20060102_1504") + ".xlsx"
}

func excelColumn(idx int) string {
	col := ""
	i := idx + 1
	for i > 0 {
		i--
		col = string(rune('A'+i%26)) + col
		i /= 26
	}
	return col
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
