package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/core/services"
)

const defaultSheet = "Sheet1"

// Exporter writes schedules and request listings to xlsx workbooks
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates an exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// TeamSchedule writes one row per day with the available count for each slot type
func (e *Exporter) TeamSchedule(schedule *services.TeamScheduleResult, outputPath string) error {
	e.logger.Info("Exporting team schedule",
		zap.Int("month", schedule.Month),
		zap.Int("year", schedule.Year),
		zap.Int("manager_id", schedule.ManagerID))

	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%d-%02d", schedule.Year, schedule.Month)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"Date"}
	for _, t := range model.WFHTypes {
		header = append(header, "Available ("+string(t)+")")
	}
	if err := e.writeHeader(f, sheet, header); err != nil {
		return err
	}

	for i, day := range schedule.Days {
		row := i + 2
		e.setCell(f, sheet, 1, row, day.Date)
		for _, slot := range day.Slots {
			col := slotColumn(slot.Type)
			if col == 0 {
				e.logger.Warn("Skipping unknown slot type", zap.String("date", day.Date), zap.String("type", slot.Type))
				continue
			}
			e.setCell(f, sheet, col, row, slot.AvailableCount)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Team schedule exported", zap.String("output_path", outputPath), zap.Int("days", len(schedule.Days)))
	return nil
}

// slotColumn maps a slot type onto its column, 0 when unknown
func slotColumn(t string) int {
	normalized := model.NormalizeWFHType(t)
	for i, known := range model.WFHTypes {
		if known == normalized {
			return i + 2
		}
	}
	return 0
}

// Requests writes subordinate requests with one sheet per review status
func (e *Exporter) Requests(requests *services.SubordinateRequestsResult, outputPath string) error {
	e.logger.Info("Exporting subordinate requests")

	f := excelize.NewFile()
	defer f.Close()

	header := []any{"Request ID", "Staff", "Department", "Date", "Type", "Reason", "Remarks", "Created", "Files"}

	for i, status := range model.RequestStatuses {
		sheet := sheetTitle(status)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		if err := e.writeHeader(f, sheet, header); err != nil {
			return err
		}

		for j, req := range requests.ByStatus[status] {
			row := j + 2
			e.setCell(f, sheet, 1, row, req.RequestID)
			e.setCell(f, sheet, 2, row, req.RequestingStaffName)
			e.setCell(f, sheet, 3, row, req.Department)
			e.setCell(f, sheet, 4, row, req.Date)
			e.setCell(f, sheet, 5, row, req.Type)
			e.setCell(f, sheet, 6, row, req.Reason)
			e.setCell(f, sheet, 7, row, req.Remarks)
			e.setCell(f, sheet, 8, row, req.CreatedAt)
			e.setCell(f, sheet, 9, row, strings.Join(req.Files, ", "))
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Requests exported", zap.String("output_path", outputPath))
	return nil
}

func sheetTitle(status model.RequestStatus) string {
	s := string(status)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (e *Exporter) writeHeader(f *excelize.File, sheet string, values []any) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, v := range values {
		e.setCell(f, sheet, i+1, 1, v)
	}

	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

// setCell sets a cell by column and row, logging rather than failing on error
func (e *Exporter) setCell(f *excelize.File, sheet string, col, row int, value any) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err == nil {
		err = f.SetCellValue(sheet, cell, value)
	}
	if err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.Int("col", col),
			zap.Int("row", row),
			zap.Error(err))
	}
}
