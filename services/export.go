package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"lecture-slides-backend/internal/logger"
	"lecture-slides-backend/models"
)

const (
	ExportFormatJSON = "json"
	ExportFormatXLSX = "xlsx"

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportFile is a rendered slide listing ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	RecordCount int
}

// SlideExportData is the JSON export layout.
type SlideExportData struct {
	ExportInfo SlideExportInfo `json:"export_info"`
	Slides     []models.Slide  `json:"slides"`
}

type SlideExportInfo struct {
	ExportDate   time.Time `json:"export_date"`
	CourseID     string    `json:"course_id"`
	TotalRecords int       `json:"total_records"`
	Format       string    `json:"format"`
}

// ExportSlides renders a course listing as JSON or an Excel workbook.
func (s *SlideService) ExportSlides(ctx context.Context, courseID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatXLSX
	}
	if format != ExportFormatJSON && format != ExportFormatXLSX {
		return nil, fmt.Errorf("%w: unsupported export format %q", ErrValidation, format)
	}

	list, err := s.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	data := &SlideExportData{
		ExportInfo: SlideExportInfo{
			ExportDate:   s.now().UTC(),
			CourseID:     strings.TrimSpace(courseID),
			TotalRecords: list.Total,
			Format:       format,
		},
		Slides: list.Slides,
	}

	if format == ExportFormatJSON {
		return exportJSON(data)
	}
	return exportExcel(data)
}

func exportJSON(data *SlideExportData) (*ExportFile, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return &ExportFile{
		Filename:    exportFilename(data.ExportInfo, ExportFormatJSON),
		ContentType: "application/json",
		Data:        jsonData,
		RecordCount: data.ExportInfo.TotalRecords,
	}, nil
}

func exportExcel(data *SlideExportData) (*ExportFile, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file", "error", err)
		}
	}()

	sheetName := "Slides"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"Document ID", "Course ID", "Course Name", "Title", "Filename", "Has Binary", "Characters", "Text"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, slide := range data.Slides {
		row := rowIdx + 2
		hasBinary := slide.HasBinary != nil && *slide.HasBinary

		values := []any{
			slide.ID, slide.CourseID, slide.CourseName, slide.Title, slide.Filename,
			hasBinary, len([]rune(slide.TextContent)), truncateCell(slide.TextContent),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	f.SetColWidth(sheetName, "A", "G", 18)
	f.SetColWidth(sheetName, "H", "H", 80)

	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	f.SetCellValue(summarySheet, "A1", "Course ID")
	f.SetCellValue(summarySheet, "B1", data.ExportInfo.CourseID)
	f.SetCellValue(summarySheet, "A2", "Total Slides")
	f.SetCellValue(summarySheet, "B2", data.ExportInfo.TotalRecords)
	f.SetCellValue(summarySheet, "A3", "Export Date")
	f.SetCellValue(summarySheet, "B3", data.ExportInfo.ExportDate.Format("2006-01-02 15:04:05"))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return &ExportFile{
		Filename:    exportFilename(data.ExportInfo, ExportFormatXLSX),
		ContentType: contentTypeXLSX,
		Data:        buf.Bytes(),
		RecordCount: data.ExportInfo.TotalRecords,
	}, nil
}

// Excel caps a cell at 32767 characters.
func truncateCell(s string) string {
	const maxCell = 32767
	r := []rune(s)
	if len(r) <= maxCell {
		return s
	}
	return string(r[:maxCell])
}

func exportFilename(info SlideExportInfo, ext string) string {
	return fmt.Sprintf("slides_%s_%s.%s", info.CourseID, info.ExportDate.Format("20060102"), ext)
}
