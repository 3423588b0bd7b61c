package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CSVExporter renders an advisory document as sectioned CSV
type CSVExporter struct {
	options CSVOptions
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter       rune   `json:"delimiter"`        // Field delimiter (default: comma)
	UseCRLF         bool   `json:"use_crlf"`         // Use \r\n for line terminator
	DateFormat      string `json:"date_format"`      // Format for date fields
	TimestampFormat string `json:"timestamp_format"` // Format for timestamp fields
	NumberFormat    string `json:"number_format"`    // Format for numbers (e.g., "%.2f")
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:       ',',
		UseCRLF:         false,
		DateFormat:      "2006-01-02",
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
		NumberFormat:    "",
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(options CSVOptions) *CSVExporter {
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	return &CSVExporter{options: options}
}

// Render writes the document as CSV and returns the bytes
func (e *CSVExporter) Render(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = e.options.Delimiter
	w.UseCRLF = e.options.UseCRLF

	e.writeHeader(w, doc)
	e.writeSoil(w, doc)
	e.writeYield(w, doc)
	e.writeIrrigation(w, doc)
	e.writePrices(w, doc)
	e.writeProfit(w, doc)
	e.writeRotation(w, doc)

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *CSVExporter) writeHeader(w *csv.Writer, doc *Document) {
	w.Write([]string{Title})
	w.Write([]string{"Generated", e.formatValue(doc.GeneratedAt)})
	w.Write([]string{"Field", doc.FieldName})
	if doc.Village != "" {
		w.Write([]string{"Village", doc.Village})
	}
	w.Write([]string{"Crop", doc.Crop})
	w.Write([]string{"Area (ha)", e.formatValue(doc.AreaHectares)})
}

func (e *CSVExporter) writeSoil(w *csv.Writer, doc *Document) {
	if doc.Soil == nil {
		return
	}

	w.Write(nil)
	w.Write([]string{"Soil Health"})
	w.Write([]string{"Score", e.formatValue(doc.Soil.Score)})
	w.Write([]string{"Grade", string(doc.Soil.Grade)})
	w.Write([]string{"pH Score", e.formatValue(doc.Soil.SubScores.PH)})
	w.Write([]string{"Nitrogen Score", e.formatValue(doc.Soil.SubScores.Nitrogen)})
	w.Write([]string{"Phosphorus Score", e.formatValue(doc.Soil.SubScores.Phosphorus)})
	w.Write([]string{"Potassium Score", e.formatValue(doc.Soil.SubScores.Potassium)})
	w.Write([]string{"Organic Matter Score", e.formatValue(doc.Soil.SubScores.OrganicMatter)})
	for _, rec := range doc.Soil.Recommendations {
		w.Write([]string{"Recommendation", rec})
	}
	if len(doc.Soil.SuitableCrops) > 0 {
		crops := make([]string, 0, len(doc.Soil.SuitableCrops))
		for _, c := range doc.Soil.SuitableCrops {
			crops = append(crops, string(c))
		}
		w.Write([]string{"Suitable Crops", strings.Join(crops, ", ")})
	}
}

func (e *CSVExporter) writeYield(w *csv.Writer, doc *Document) {
	if doc.Yield == nil {
		return
	}

	w.Write(nil)
	w.Write([]string{"Yield Forecast"})
	w.Write([]string{"Yield (t/ha)", e.formatValue(doc.Yield.YieldTonnesPerHa)})
	w.Write([]string{"Total Production (t)", e.formatValue(doc.Yield.TotalProductionTonnes)})
	w.Write([]string{"Confidence", e.formatValue(doc.Yield.Confidence)})
	w.Write([]string{"Soil Factor", e.formatValue(doc.Yield.Factors.Soil)})
	w.Write([]string{"Rainfall Factor", e.formatValue(doc.Yield.Factors.Rainfall)})
	w.Write([]string{"Temperature Factor", e.formatValue(doc.Yield.Factors.Temperature)})
	w.Write([]string{"Humidity Factor", e.formatValue(doc.Yield.Factors.Humidity)})
	w.Write([]string{"Fertilizer Factor", e.formatValue(doc.Yield.Factors.Fertilizer)})
	if len(doc.Yield.RiskFlags) > 0 {
		w.Write([]string{"Risk Flags", strings.Join(doc.Yield.RiskFlags, ", ")})
	}
}

func (e *CSVExporter) writeIrrigation(w *csv.Writer, doc *Document) {
	if doc.Irrigation == nil {
		return
	}

	w.Write(nil)
	w.Write([]string{"Irrigation"})
	w.Write([]string{"Status", string(doc.Irrigation.Status)})
	w.Write([]string{"Urgency", string(doc.Irrigation.Urgency)})
	w.Write([]string{"Daily Water Need (mm)", e.formatValue(doc.Irrigation.DailyWaterNeedMm)})
	w.Write([]string{"Water Deficit (mm)", e.formatValue(doc.Irrigation.WaterDeficitMm)})
	w.Write([]string{"Water Volume (m3/ha)", e.formatValue(doc.Irrigation.WaterVolumeM3PerHa)})
	w.Write([]string{"Total Water Volume (m3)", e.formatValue(doc.Irrigation.TotalWaterVolumeM3)})
	w.Write([]string{"Duration (h)", e.formatValue(doc.Irrigation.DurationHours)})
	w.Write([]string{"Next Check (days)", e.formatValue(doc.Irrigation.NextCheckDays)})
	for _, note := range doc.Irrigation.Notes {
		w.Write([]string{"Note", note})
	}
}

func (e *CSVExporter) writePrices(w *csv.Writer, doc *Document) {
	if doc.Prices == nil {
		return
	}

	w.Write(nil)
	w.Write([]string{"Price Forecast"})
	w.Write([]string{"Anchor Price (Rs/q)", e.formatValue(doc.Prices.AnchorPrice)})
	w.Write([]string{"Trend Per Week", e.formatValue(doc.Prices.TrendPerWeek)})
	for _, warning := range doc.Prices.Warnings {
		w.Write([]string{"Warning", string(warning)})
	}
	w.Write([]string{"Date", "Day Offset", "Price (Rs/q)", "Lower Band", "Upper Band", "Confidence"})
	for _, p := range doc.Prices.Points {
		w.Write([]string{
			p.Date.Format(e.options.DateFormat),
			strconv.Itoa(p.DayOffset),
			e.formatValue(p.PricePerQuintal),
			e.formatValue(p.LowerBand),
			e.formatValue(p.UpperBand),
			e.formatValue(p.Confidence),
		})
	}
}

func (e *CSVExporter) writeProfit(w *csv.Writer, doc *Document) {
	if doc.Profit == nil {
		return
	}

	w.Write(nil)
	w.Write([]string{"Profit Estimate"})
	w.Write([]string{"Harvest Date", doc.Profit.HarvestDate.Format(e.options.DateFormat)})
	w.Write([]string{"Price (Rs/q)", e.formatValue(doc.Profit.PricePerQuintal)})
	w.Write([]string{"Revenue (Rs)", e.formatValue(doc.Profit.RevenueTotal)})
	w.Write([]string{"Cost (Rs)", e.formatValue(doc.Profit.CostTotal)})
	w.Write([]string{"Profit (Rs)", e.formatValue(doc.Profit.ProfitTotal)})
	w.Write([]string{"Profit (Rs/ha)", e.formatValue(doc.Profit.ProfitPerHa)})
	w.Write([]string{"Margin (%)", e.formatValue(doc.Profit.MarginPercent)})
	w.Write([]string{"Break-even Price (Rs/q)", e.formatValue(doc.Profit.BreakEvenPricePerQuintal)})
}

func (e *CSVExporter) writeRotation(w *csv.Writer, doc *Document) {
	if doc.Rotation == nil {
		return
	}

	w.Write(nil)
	w.Write([]string{"Rotation Candidates"})
	w.Write([]string{"Crop", "Category", "Suitability", "Benefit"})
	for _, c := range doc.Rotation.Candidates {
		w.Write([]string{
			c.DisplayName,
			string(c.Category),
			e.formatValue(c.SuitabilityScore),
			c.RotationBenefit,
		})
	}

	w.Write(nil)
	w.Write([]string{"Rotation Plan"})
	w.Write([]string{"Year", "Slot", "Crop", "Purpose"})
	for _, s := range doc.Rotation.Plan {
		w.Write([]string{
			strconv.Itoa(s.Year),
			s.Slot,
			string(s.Crop),
			s.Purpose,
		})
	}
}

// formatValue formats a value for CSV output
func (e *CSVExporter) formatValue(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if e.options.NumberFormat != "" {
			return fmt.Sprintf(e.options.NumberFormat, v)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		if v.Hour() != 0 || v.Minute() != 0 || v.Second() != 0 {
			return v.Format(e.options.TimestampFormat)
		}
		return v.Format(e.options.DateFormat)
	default:
		return fmt.Sprintf("%v", v)
	}
}
