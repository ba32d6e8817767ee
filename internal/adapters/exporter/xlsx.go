package exporter

import (
	"fmt"
	"io"

	"archive-viewer/internal/domain"
	"archive-viewer/internal/ports"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Overview"
	daysSheet    = "Days"
)

// XLSXExporter выгружает сводку по архиву в книгу Excel.
type XLSXExporter struct {
	out io.Writer
}

var _ ports.OverviewExporter = (*XLSXExporter)(nil)

// NewXLSXExporter создает новый экземпляр XLSXExporter.
func NewXLSXExporter(out io.Writer) *XLSXExporter {
	return &XLSXExporter{out: out}
}

// ExportOverview пишет книгу с листами Overview (итоги) и Days (активность по дням).
func (e *XLSXExporter) ExportOverview(ov *domain.Overview) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	summary := [][]any{
		{"Origin", string(ov.Origin)},
		{"Days", ov.TotalDays},
		{"First date", ov.FirstDate},
		{"Last date", ov.LastDate},
		{"Conversations", ov.TotalConversations},
		{"Messages", ov.TotalMessages},
		{"Media", ov.TotalMedia},
		{"Images", ov.TotalImages},
		{"Videos", ov.TotalVideos},
		{"Audio", ov.TotalAudio},
	}
	if ov.MostActive != nil {
		summary = append(summary, []any{"Most active day", ov.MostActive.Date})
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if _, err := f.NewSheet(daysSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	rows := [][]any{{"Date", "Messages", "Conversations", "Has data"}}
	for _, d := range ov.Days {
		rows = append(rows, []any{d.Date, d.MessageCount, d.ConversationCount, d.HasData})
	}
	if err := writeRows(f, daysSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(daysSheet, "A1", "D1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(daysSheet, "A", "D", 14); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.Write(e.out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
