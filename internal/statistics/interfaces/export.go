// Package interfaces renders statistics and history exports.
package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
	statistic "hassems/internal/statistics/domain"
)

// BuildStatisticsPDF renders a minimal PDF of hourly statistics for a helper.
func BuildStatisticsPDF(h *helper.Helper, records []statistic.Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Hourly Statistics")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Entity: %s", h.EntityID()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Name: %s", h.Name))
	pdf.Ln(5)
	if h.Unit != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Unit: %s", h.Unit))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Mode: %s", h.StatisticsMode))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Hour", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Mean", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Min", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Max", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "State", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, record := range records {
		pdf.CellFormat(50, 6, record.Start.Format("2006-01-02 15:00"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", record.Mean), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", record.Min), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", record.Max), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", record.State), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatisticsXLSX renders a minimal XLSX of hourly statistics for a helper.
func BuildStatisticsXLSX(h *helper.Helper, records []statistic.Record) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	recordsSheet := "records"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(recordsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Hourly Statistics")
	_ = f.SetCellValue(summarySheet, "A3", "Entity")
	_ = f.SetCellValue(summarySheet, "B3", h.EntityID())
	_ = f.SetCellValue(summarySheet, "A4", "Name")
	_ = f.SetCellValue(summarySheet, "B4", h.Name)
	_ = f.SetCellValue(summarySheet, "A5", "Unit")
	_ = f.SetCellValue(summarySheet, "B5", h.Unit)
	_ = f.SetCellValue(summarySheet, "A6", "Mode")
	_ = f.SetCellValue(summarySheet, "B6", string(h.StatisticsMode))
	_ = f.SetCellValue(summarySheet, "A7", "Hours")
	_ = f.SetCellValue(summarySheet, "B7", len(records))

	_ = f.SetCellValue(recordsSheet, "A1", "Hour")
	_ = f.SetCellValue(recordsSheet, "B1", "Mean")
	_ = f.SetCellValue(recordsSheet, "C1", "Min")
	_ = f.SetCellValue(recordsSheet, "D1", "Max")
	_ = f.SetCellValue(recordsSheet, "E1", "State")
	for i, record := range records {
		row := i + 2
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", row), record.Start.Format(time.RFC3339))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("B%d", row), record.Mean)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("C%d", row), record.Min)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", row), record.Max)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("E%d", row), record.State)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildHistoryCSV renders a helper's history points as CSV.
func BuildHistoryCSV(h *helper.Helper, points []history.Point) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"entity_id", "measured_at", "recorded_at", "value", "historic", "cursor"}); err != nil {
		return nil, err
	}
	for _, p := range points {
		row := []string{
			h.EntityID(),
			p.MeasuredAt.UTC().Format(time.RFC3339Nano),
			p.RecordedAt.UTC().Format(time.RFC3339Nano),
			p.Value.String(),
			strconv.FormatBool(p.Historic),
			p.Cursor,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
