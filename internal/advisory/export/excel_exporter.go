package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter renders an advisory document as a multi-sheet workbook
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SummarySheet  string            `json:"summary_sheet"`
	ForecastSheet string            `json:"forecast_sheet"`
	RotationSheet string            `json:"rotation_sheet"`
	FreezeHeader  bool              `json:"freeze_header"`
	AutoFilter    bool              `json:"auto_filter"`
	NumberFormat  string            `json:"number_format"`
	HeaderStyle   *ExcelStyleConfig `json:"header_style,omitempty"`
	SectionStyle  *ExcelStyleConfig `json:"section_style,omitempty"`
	AutoWidth     bool              `json:"auto_width"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SummarySheet:  "Summary",
		ForecastSheet: "Price Forecast",
		RotationSheet: "Rotation",
		FreezeHeader:  true,
		AutoFilter:    true,
		NumberFormat:  "#,##0.00",
		AutoWidth:     true,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "4F7942",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		SectionStyle: &ExcelStyleConfig{
			FontBold: true,
			FontSize: 12,
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	if options.SummarySheet == "" {
		options.SummarySheet = "Summary"
	}
	if options.ForecastSheet == "" {
		options.ForecastSheet = "Price Forecast"
	}
	if options.RotationSheet == "" {
		options.RotationSheet = "Rotation"
	}
	return &ExcelExporter{options: options}
}

// Render writes the document as a workbook and returns the bytes
func (e *ExcelExporter) Render(doc *Document) ([]byte, error) {
	e.file = excelize.NewFile()
	defer e.file.Close()

	e.file.SetSheetName("Sheet1", e.options.SummarySheet)
	if err := e.writeSummarySheet(doc); err != nil {
		return nil, err
	}

	if doc.Prices != nil {
		if err := e.writeForecastSheet(doc); err != nil {
			return nil, err
		}
	}

	if doc.Rotation != nil {
		if err := e.writeRotationSheet(doc); err != nil {
			return nil, err
		}
	}

	buf, err := e.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *ExcelExporter) writeSummarySheet(doc *Document) error {
	sheet := e.options.SummarySheet
	row := 1

	row = e.writeSection(sheet, row, Title)
	row = e.writeKV(sheet, row, "Generated", doc.GeneratedAt)
	row = e.writeKV(sheet, row, "Field", doc.FieldName)
	if doc.Village != "" {
		row = e.writeKV(sheet, row, "Village", doc.Village)
	}
	row = e.writeKV(sheet, row, "Crop", doc.Crop)
	row = e.writeKV(sheet, row, "Area (ha)", doc.AreaHectares)
	row++

	if doc.Soil != nil {
		row = e.writeSection(sheet, row, "Soil Health")
		row = e.writeKV(sheet, row, "Score", doc.Soil.Score)
		row = e.writeKV(sheet, row, "Grade", string(doc.Soil.Grade))
		row = e.writeKV(sheet, row, "pH Score", doc.Soil.SubScores.PH)
		row = e.writeKV(sheet, row, "Nitrogen Score", doc.Soil.SubScores.Nitrogen)
		row = e.writeKV(sheet, row, "Phosphorus Score", doc.Soil.SubScores.Phosphorus)
		row = e.writeKV(sheet, row, "Potassium Score", doc.Soil.SubScores.Potassium)
		row = e.writeKV(sheet, row, "Organic Matter Score", doc.Soil.SubScores.OrganicMatter)
		for _, rec := range doc.Soil.Recommendations {
			row = e.writeKV(sheet, row, "Recommendation", rec)
		}
		row++
	}

	if doc.Yield != nil {
		row = e.writeSection(sheet, row, "Yield Forecast")
		row = e.writeKV(sheet, row, "Yield (t/ha)", doc.Yield.YieldTonnesPerHa)
		row = e.writeKV(sheet, row, "Total Production (t)", doc.Yield.TotalProductionTonnes)
		row = e.writeKV(sheet, row, "Confidence", doc.Yield.Confidence)
		row = e.writeKV(sheet, row, "Soil Factor", doc.Yield.Factors.Soil)
		row = e.writeKV(sheet, row, "Rainfall Factor", doc.Yield.Factors.Rainfall)
		row = e.writeKV(sheet, row, "Temperature Factor", doc.Yield.Factors.Temperature)
		row = e.writeKV(sheet, row, "Humidity Factor", doc.Yield.Factors.Humidity)
		row = e.writeKV(sheet, row, "Fertilizer Factor", doc.Yield.Factors.Fertilizer)
		for _, flag := range doc.Yield.RiskFlags {
			row = e.writeKV(sheet, row, "Risk Flag", flag)
		}
		row++
	}

	if doc.Irrigation != nil {
		row = e.writeSection(sheet, row, "Irrigation")
		row = e.writeKV(sheet, row, "Status", string(doc.Irrigation.Status))
		row = e.writeKV(sheet, row, "Urgency", string(doc.Irrigation.Urgency))
		row = e.writeKV(sheet, row, "Daily Water Need (mm)", doc.Irrigation.DailyWaterNeedMm)
		row = e.writeKV(sheet, row, "Water Deficit (mm)", doc.Irrigation.WaterDeficitMm)
		row = e.writeKV(sheet, row, "Water Volume (m3/ha)", doc.Irrigation.WaterVolumeM3PerHa)
		row = e.writeKV(sheet, row, "Duration (h)", doc.Irrigation.DurationHours)
		row = e.writeKV(sheet, row, "Next Check (days)", doc.Irrigation.NextCheckDays)
		for _, note := range doc.Irrigation.Notes {
			row = e.writeKV(sheet, row, "Note", note)
		}
		row++
	}

	if doc.Profit != nil {
		row = e.writeSection(sheet, row, "Profit Estimate")
		row = e.writeKV(sheet, row, "Harvest Date", doc.Profit.HarvestDate)
		row = e.writeKV(sheet, row, "Price (Rs/q)", doc.Profit.PricePerQuintal)
		row = e.writeKV(sheet, row, "Revenue (Rs)", doc.Profit.RevenueTotal)
		row = e.writeKV(sheet, row, "Cost (Rs)", doc.Profit.CostTotal)
		row = e.writeKV(sheet, row, "Profit (Rs)", doc.Profit.ProfitTotal)
		row = e.writeKV(sheet, row, "Margin (%)", doc.Profit.MarginPercent)
		row = e.writeKV(sheet, row, "Break-even Price (Rs/q)", doc.Profit.BreakEvenPricePerQuintal)
	}

	if e.options.AutoWidth {
		e.file.SetColWidth(sheet, "A", "A", 26)
		e.file.SetColWidth(sheet, "B", "B", 44)
	}

	return nil
}

func (e *ExcelExporter) writeForecastSheet(doc *Document) error {
	sheet := e.options.ForecastSheet
	if _, err := e.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	columns := []string{"Date", "Day Offset", "Price (Rs/q)", "Lower Band", "Upper Band", "Confidence"}
	if err := e.writeTableHeader(sheet, columns); err != nil {
		return err
	}

	for i, p := range doc.Prices.Points {
		rowNum := i + 2
		e.setCellValue(sheet, cellName(1, rowNum), p.Date)
		e.setCellValue(sheet, cellName(2, rowNum), p.DayOffset)
		e.setCellValue(sheet, cellName(3, rowNum), p.PricePerQuintal)
		e.setCellValue(sheet, cellName(4, rowNum), p.LowerBand)
		e.setCellValue(sheet, cellName(5, rowNum), p.UpperBand)
		e.setCellValue(sheet, cellName(6, rowNum), p.Confidence)
	}

	if e.options.AutoFilter && len(doc.Prices.Points) > 0 {
		lastCol, _ := excelize.CoordinatesToCellName(len(columns), 1)
		e.file.AutoFilter(sheet, "A1:"+lastCol, nil)
	}

	if e.options.AutoWidth {
		e.file.SetColWidth(sheet, "A", "F", 14)
	}

	return nil
}

func (e *ExcelExporter) writeRotationSheet(doc *Document) error {
	sheet := e.options.RotationSheet
	if _, err := e.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	columns := []string{"Crop", "Category", "Suitability", "Nitrogen Fixing", "Benefit"}
	if err := e.writeTableHeader(sheet, columns); err != nil {
		return err
	}

	rowNum := 1
	for _, c := range doc.Rotation.Candidates {
		rowNum++
		e.setCellValue(sheet, cellName(1, rowNum), c.DisplayName)
		e.setCellValue(sheet, cellName(2, rowNum), string(c.Category))
		e.setCellValue(sheet, cellName(3, rowNum), c.SuitabilityScore)
		e.setCellValue(sheet, cellName(4, rowNum), c.NitrogenFixing)
		e.setCellValue(sheet, cellName(5, rowNum), c.RotationBenefit)
	}

	rowNum += 2
	rowNum = e.writeSection(sheet, rowNum, "Plan")
	for _, s := range doc.Rotation.Plan {
		e.setCellValue(sheet, cellName(1, rowNum), fmt.Sprintf("Year %d, %s", s.Year, s.Slot))
		e.setCellValue(sheet, cellName(2, rowNum), string(s.Crop))
		e.setCellValue(sheet, cellName(3, rowNum), s.Purpose)
		rowNum++
	}

	if e.options.AutoWidth {
		e.file.SetColWidth(sheet, "A", "B", 18)
		e.file.SetColWidth(sheet, "C", "E", 40)
	}

	return nil
}

// writeSection writes a bold section label and returns the next row
func (e *ExcelExporter) writeSection(sheet string, row int, label string) int {
	cell := cellName(1, row)
	e.file.SetCellValue(sheet, cell, label)
	if e.options.SectionStyle != nil {
		if styleID, err := e.createStyle(e.options.SectionStyle); err == nil {
			e.file.SetCellStyle(sheet, cell, cell, styleID)
		}
	}
	return row + 1
}

// writeKV writes a label/value pair and returns the next row
func (e *ExcelExporter) writeKV(sheet string, row int, label string, val interface{}) int {
	e.file.SetCellValue(sheet, cellName(1, row), label)
	e.setCellValue(sheet, cellName(2, row), val)
	return row + 1
}

// writeTableHeader writes a styled, frozen header row
func (e *ExcelExporter) writeTableHeader(sheet string, columns []string) error {
	headerStyleID := 0
	if e.options.HeaderStyle != nil {
		style, err := e.createStyle(e.options.HeaderStyle)
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = style
	}

	for i, col := range columns {
		cell := cellName(i+1, 1)
		e.file.SetCellValue(sheet, cell, col)
		if headerStyleID > 0 {
			e.file.SetCellStyle(sheet, cell, cell, headerStyleID)
		}
	}

	if e.options.FreezeHeader {
		e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			Split:       false,
			XSplit:      0,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}

	return nil
}

// createStyle creates an Excel style from config
func (e *ExcelExporter) createStyle(config *ExcelStyleConfig) (int, error) {
	style := &excelize.Style{}

	style.Font = &excelize.Font{
		Bold: config.FontBold,
		Size: float64(config.FontSize),
	}
	if config.FontColor != "" {
		style.Font.Color = config.FontColor
	}

	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}

	if config.Alignment != "" {
		style.Alignment = &excelize.Alignment{}
		switch config.Alignment {
		case "left":
			style.Alignment.Horizontal = "left"
		case "center":
			style.Alignment.Horizontal = "center"
		case "right":
			style.Alignment.Horizontal = "right"
		}
	}

	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	return e.file.NewStyle(style)
}

// setCellValue sets a cell value with appropriate formatting
func (e *ExcelExporter) setCellValue(sheet, cell string, val interface{}) error {
	if val == nil {
		return e.file.SetCellValue(sheet, cell, "")
	}

	switch v := val.(type) {
	case time.Time:
		if v.IsZero() {
			return e.file.SetCellValue(sheet, cell, "")
		}
		e.file.SetCellValue(sheet, cell, v)
		style, _ := e.file.NewStyle(&excelize.Style{
			NumFmt: 14, // mm-dd-yy
		})
		e.file.SetCellStyle(sheet, cell, cell, style)
	case float32, float64:
		e.file.SetCellValue(sheet, cell, v)
		if e.options.NumberFormat != "" {
			style, _ := e.file.NewStyle(&excelize.Style{
				CustomNumFmt: &e.options.NumberFormat,
			})
			e.file.SetCellStyle(sheet, cell, cell, style)
		}
	default:
		return e.file.SetCellValue(sheet, cell, v)
	}

	return nil
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
