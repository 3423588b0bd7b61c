package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFGenerator renders an advisory document as a PDF report
type PDFGenerator struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // A4, Letter, Legal
	Orientation    string     `json:"orientation"` // portrait, landscape
	Subtitle       string     `json:"subtitle,omitempty"`
	DateFormat     string     `json:"date_format"`
	IncludeDate    bool       `json:"include_date"`
	IncludePageNum bool       `json:"include_page_num"`
	HeaderColor    PDFColor   `json:"header_color"`
	AlternateRows  bool       `json:"alternate_rows"`
	AlternateColor PDFColor   `json:"alternate_color"`
	FontFamily     string     `json:"font_family"`
	FontSize       float64    `json:"font_size"`
	HeaderFontSize float64    `json:"header_font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	Margins        PDFMargins `json:"margins"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "portrait",
		DateFormat:     "2006-01-02",
		IncludeDate:    true,
		IncludePageNum: true,
		HeaderColor:    PDFColor{R: 79, G: 121, B: 66},
		AlternateRows:  true,
		AlternateColor: PDFColor{R: 242, G: 247, B: 240},
		FontFamily:     "Arial",
		FontSize:       10,
		HeaderFontSize: 11,
		TitleFontSize:  16,
		Margins: PDFMargins{
			Left:   15,
			Right:  15,
			Top:    20,
			Bottom: 20,
		},
	}
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	return &PDFGenerator{options: options}
}

// Render writes the document as a PDF and returns the bytes
func (g *PDFGenerator) Render(doc *Document) ([]byte, error) {
	orientation := "P"
	if g.options.Orientation == "landscape" {
		orientation = "L"
	}

	g.pdf = gofpdf.New(orientation, "mm", g.options.PageSize, "")
	g.pdf.SetMargins(g.options.Margins.Left, g.options.Margins.Top, g.options.Margins.Right)
	g.pdf.SetAutoPageBreak(true, g.options.Margins.Bottom)
	if g.options.IncludePageNum {
		g.setFooter()
	}

	g.pdf.AddPage()
	g.addTitle()
	g.addSubtitle(fmt.Sprintf("%s, %s", doc.FieldName, strings.Title(doc.Crop)))
	if g.options.IncludeDate {
		g.addDate(doc.GeneratedAt)
	}
	g.pdf.Ln(4)

	g.addFieldSection(doc)
	g.addSoilSection(doc)
	g.addYieldSection(doc)
	g.addIrrigationSection(doc)
	g.addProfitSection(doc)
	g.addForecastSection(doc)
	g.addRotationSection(doc)

	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) addTitle() {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, Title, "", 1, "C", false, 0, "")
}

func (g *PDFGenerator) addSubtitle(subtitle string) {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+2)
	g.pdf.SetTextColor(100, 100, 100)
	g.pdf.CellFormat(0, 8, subtitle, "", 1, "C", false, 0, "")
}

func (g *PDFGenerator) addDate(generatedAt time.Time) {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize-1)
	g.pdf.SetTextColor(128, 128, 128)
	dateStr := fmt.Sprintf("Generated: %s", generatedAt.Format(g.options.DateFormat))
	g.pdf.CellFormat(0, 6, dateStr, "", 1, "R", false, 0, "")
}

func (g *PDFGenerator) addFieldSection(doc *Document) {
	items := []kv{{"Field", doc.FieldName}}
	if doc.Village != "" {
		items = append(items, kv{"Village", doc.Village})
	}
	items = append(items, kv{"Crop", doc.Crop}, kv{"Area (ha)", doc.AreaHectares})
	g.addSummarySection("Field", items)
}

func (g *PDFGenerator) addSoilSection(doc *Document) {
	if doc.Soil == nil {
		return
	}

	g.addSummarySection("Soil Health", []kv{
		{"Score", doc.Soil.Score},
		{"Grade", string(doc.Soil.Grade)},
		{"pH Score", doc.Soil.SubScores.PH},
		{"Nitrogen Score", doc.Soil.SubScores.Nitrogen},
		{"Phosphorus Score", doc.Soil.SubScores.Phosphorus},
		{"Potassium Score", doc.Soil.SubScores.Potassium},
		{"Organic Matter Score", doc.Soil.SubScores.OrganicMatter},
	})
	g.addBullets(doc.Soil.Recommendations)
}

func (g *PDFGenerator) addYieldSection(doc *Document) {
	if doc.Yield == nil {
		return
	}

	g.addSummarySection("Yield Forecast", []kv{
		{"Yield (t/ha)", doc.Yield.YieldTonnesPerHa},
		{"Total Production (t)", doc.Yield.TotalProductionTonnes},
		{"Confidence", doc.Yield.Confidence},
		{"Soil Factor", doc.Yield.Factors.Soil},
		{"Rainfall Factor", doc.Yield.Factors.Rainfall},
		{"Temperature Factor", doc.Yield.Factors.Temperature},
		{"Humidity Factor", doc.Yield.Factors.Humidity},
		{"Fertilizer Factor", doc.Yield.Factors.Fertilizer},
	})
	if len(doc.Yield.RiskFlags) > 0 {
		g.addBullets([]string{"Risk flags: " + strings.Join(doc.Yield.RiskFlags, ", ")})
	}
}

func (g *PDFGenerator) addIrrigationSection(doc *Document) {
	if doc.Irrigation == nil {
		return
	}

	g.addSummarySection("Irrigation", []kv{
		{"Status", string(doc.Irrigation.Status)},
		{"Urgency", string(doc.Irrigation.Urgency)},
		{"Daily Water Need (mm)", doc.Irrigation.DailyWaterNeedMm},
		{"Water Deficit (mm)", doc.Irrigation.WaterDeficitMm},
		{"Water Volume (m3/ha)", doc.Irrigation.WaterVolumeM3PerHa},
		{"Duration (h)", doc.Irrigation.DurationHours},
		{"Next Check (days)", doc.Irrigation.NextCheckDays},
	})
	g.addBullets(doc.Irrigation.Notes)
}

func (g *PDFGenerator) addProfitSection(doc *Document) {
	if doc.Profit == nil {
		return
	}

	g.addSummarySection("Profit Estimate", []kv{
		{"Harvest Date", doc.Profit.HarvestDate},
		{"Price (Rs/q)", doc.Profit.PricePerQuintal},
		{"Revenue (Rs)", doc.Profit.RevenueTotal},
		{"Cost (Rs)", doc.Profit.CostTotal},
		{"Profit (Rs)", doc.Profit.ProfitTotal},
		{"Margin (%)", doc.Profit.MarginPercent},
		{"Break-even Price (Rs/q)", doc.Profit.BreakEvenPricePerQuintal},
	})
}

func (g *PDFGenerator) addForecastSection(doc *Document) {
	if doc.Prices == nil || len(doc.Prices.Points) == 0 {
		return
	}

	g.addSectionTitle("Price Forecast")

	labels := []string{"Date", "Day", "Price (Rs/q)", "Lower", "Upper", "Confidence"}
	widths := []float64{30, 18, 32, 30, 30, 26}
	g.addTableHeader(labels, widths)

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(0, 0, 0)
	for i, p := range doc.Prices.Points {
		g.setRowFill(i)
		g.pdf.CellFormat(widths[0], 7, p.Date.Format(g.options.DateFormat), "1", 0, "L", true, 0, "")
		g.pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", p.DayOffset), "1", 0, "R", true, 0, "")
		g.pdf.CellFormat(widths[2], 7, g.formatValue(p.PricePerQuintal), "1", 0, "R", true, 0, "")
		g.pdf.CellFormat(widths[3], 7, g.formatValue(p.LowerBand), "1", 0, "R", true, 0, "")
		g.pdf.CellFormat(widths[4], 7, g.formatValue(p.UpperBand), "1", 0, "R", true, 0, "")
		g.pdf.CellFormat(widths[5], 7, g.formatValue(p.Confidence), "1", 0, "R", true, 0, "")
		g.pdf.Ln(-1)
	}
}

func (g *PDFGenerator) addRotationSection(doc *Document) {
	if doc.Rotation == nil {
		return
	}

	g.addSectionTitle("Rotation Candidates")

	labels := []string{"Crop", "Category", "Suitability", "Benefit"}
	widths := []float64{28, 24, 24, 104}
	g.addTableHeader(labels, widths)

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(0, 0, 0)
	for i, c := range doc.Rotation.Candidates {
		g.setRowFill(i)
		benefit := c.RotationBenefit
		if len(benefit) > 78 {
			benefit = benefit[:75] + "..."
		}
		g.pdf.CellFormat(widths[0], 7, c.DisplayName, "1", 0, "L", true, 0, "")
		g.pdf.CellFormat(widths[1], 7, string(c.Category), "1", 0, "L", true, 0, "")
		g.pdf.CellFormat(widths[2], 7, g.formatValue(c.SuitabilityScore), "1", 0, "R", true, 0, "")
		g.pdf.CellFormat(widths[3], 7, benefit, "1", 0, "L", true, 0, "")
		g.pdf.Ln(-1)
	}

	steps := make([]string, 0, len(doc.Rotation.Plan))
	for _, s := range doc.Rotation.Plan {
		steps = append(steps, fmt.Sprintf("Year %d, %s: %s (%s)", s.Year, s.Slot, s.Crop, s.Purpose))
	}
	g.addBullets(steps)
}

type kv struct {
	key string
	val interface{}
}

// addSummarySection adds a titled key/value block
func (g *PDFGenerator) addSummarySection(title string, items []kv) {
	g.addSectionTitle(title)

	for _, item := range items {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
		g.pdf.CellFormat(60, 6, item.key+":", "", 0, "L", false, 0, "")
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.CellFormat(0, 6, g.formatValue(item.val), "", 1, "L", false, 0, "")
	}
}

func (g *PDFGenerator) addSectionTitle(title string) {
	g.pdf.Ln(6)
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+2)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	g.pdf.Ln(1)
}

func (g *PDFGenerator) addBullets(lines []string) {
	if len(lines) == 0 {
		return
	}

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(60, 60, 60)
	for _, line := range lines {
		g.pdf.CellFormat(0, 6, "- "+line, "", 1, "L", false, 0, "")
	}
	g.pdf.SetTextColor(0, 0, 0)
}

func (g *PDFGenerator) addTableHeader(labels []string, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.SetTextColor(255, 255, 255)

	for i, label := range labels {
		g.pdf.CellFormat(widths[i], 8, label, "1", 0, "C", true, 0, "")
	}
	g.pdf.Ln(-1)
}

// setRowFill applies alternating row shading
func (g *PDFGenerator) setRowFill(rowIdx int) {
	if g.options.AlternateRows && rowIdx%2 == 1 {
		g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
	} else {
		g.pdf.SetFillColor(255, 255, 255)
	}
}

// formatValue formats a value for display
func (g *PDFGenerator) formatValue(val interface{}) string {
	if val == nil {
		return ""
	}

	switch v := val.(type) {
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(g.options.DateFormat)
	case float64:
		return fmt.Sprintf("%.2f", v)
	case float32:
		return fmt.Sprintf("%.2f", v)
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// setFooter sets up the page footer
func (g *PDFGenerator) setFooter() {
	g.pdf.SetFooterFunc(func() {
		g.pdf.SetY(-15)
		g.pdf.SetFont(g.options.FontFamily, "", 8)
		g.pdf.SetTextColor(128, 128, 128)
		g.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", g.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}
