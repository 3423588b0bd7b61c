package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// sampleDocument runs the real models with pinned randomness and clock
// so every renderer sees the same fully populated bundle.
func sampleDocument(t *testing.T) *Document {
	t.Helper()

	reference := time.Date(2025, 11, 10, 6, 0, 0, 0, time.UTC)
	engine := agronomy.NewEngine(nil,
		agronomy.WithUniformSource(func() float64 { return 0.5 }),
		agronomy.WithClock(func() time.Time { return reference }),
	)

	soil, err := engine.ScoreSoil(agronomy.SoilScoreInput{
		Crop: "wheat",
		Sample: agronomy.SoilSample{
			PH:                   6.5,
			Nitrogen:             100,
			Phosphorus:           40,
			Potassium:            320,
			OrganicMatterPercent: 4,
		},
	})
	require.NoError(t, err)

	yield, err := engine.PredictYield(agronomy.YieldInput{
		Crop:               "wheat",
		SoilScore:          soil.Score,
		SeasonalRainfallMm: 500,
		AvgTemperatureC:    20,
		AvgHumidityPercent: 65,
		AreaHectares:       2,
		Fertilizer:         agronomy.FertilizerApplication{Nitrogen: 100, Phosphorus: 50, Potassium: 50},
	})
	require.NoError(t, err)

	irrigation, err := engine.AssessIrrigation(agronomy.IrrigationInput{
		Crop:                "wheat",
		Stage:               agronomy.StageFlowering,
		Texture:             agronomy.TextureLoamy,
		Method:              agronomy.MethodDrip,
		SoilMoisturePercent: 40,
		TemperatureC:        22,
		HumidityPercent:     60,
		WindSpeedKmh:        5,
		DaysSinceRain:       3,
		AreaHectares:        2,
	})
	require.NoError(t, err)

	history := make([]agronomy.PricePoint, 0, 12)
	for i := 0; i < 12; i++ {
		history = append(history, agronomy.PricePoint{
			Date:            reference.AddDate(0, 0, -7*(12-i)),
			PricePerQuintal: 2150 + 5*float64(i),
		})
	}

	prices, err := engine.ForecastPrices(agronomy.PriceForecastInput{
		Crop:        "wheat",
		History:     history,
		HorizonDays: 56,
	})
	require.NoError(t, err)

	profit, err := engine.EstimateProfit(agronomy.ProfitInput{
		Crop:                     "wheat",
		History:                  history,
		HarvestInDays:            28,
		ExpectedYieldTonnesPerHa: yield.YieldTonnesPerHa,
		AreaHectares:             2,
	})
	require.NoError(t, err)

	rotation, err := engine.PlanRotation(agronomy.RotationInput{
		CurrentCrop: "wheat",
		SoilScore:   soil.Score,
		Season:      agronomy.SeasonKharif,
	})
	require.NoError(t, err)

	return &Document{
		FieldName:    "North Plot",
		Village:      "Khanna",
		Crop:         "wheat",
		AreaHectares: 2,
		GeneratedAt:  reference,
		Soil:         soil,
		Yield:        yield,
		Irrigation:   irrigation,
		Prices:       prices,
		Profit:       profit,
		Rotation:     rotation,
	}
}

func TestCSVExporterRendersAllSections(t *testing.T) {
	doc := sampleDocument(t)

	data, err := NewCSVExporter(DefaultCSVOptions()).Render(doc)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	text := string(data)
	assert.Contains(t, text, Title)
	assert.Contains(t, text, "North Plot")
	assert.Contains(t, text, "Khanna")
	assert.Contains(t, text, "Soil Health")
	assert.Contains(t, text, "Yield Forecast")
	assert.Contains(t, text, "Irrigation")
	assert.Contains(t, text, "Price Forecast")
	assert.Contains(t, text, "Profit Estimate")
	assert.Contains(t, text, "Rotation Candidates")
}

func TestCSVExporterOmitsMissingSections(t *testing.T) {
	doc := sampleDocument(t)
	doc.Soil = nil
	doc.Rotation = nil

	data, err := NewCSVExporter(DefaultCSVOptions()).Render(doc)
	require.NoError(t, err)

	text := string(data)
	assert.NotContains(t, text, "Soil Health")
	assert.NotContains(t, text, "Rotation Candidates")
	assert.Contains(t, text, "Yield Forecast")
}

func TestCSVExporterHonorsDelimiter(t *testing.T) {
	doc := sampleDocument(t)

	options := DefaultCSVOptions()
	options.Delimiter = ';'
	data, err := NewCSVExporter(options).Render(doc)
	require.NoError(t, err)

	assert.Contains(t, string(data), "Crop;wheat")
}

func TestExcelExporterBuildsWorkbook(t *testing.T) {
	doc := sampleDocument(t)

	data, err := NewExcelExporter(DefaultExcelOptions()).Render(doc)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err, "output must be a readable workbook")
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "Price Forecast")
	assert.Contains(t, sheets, "Rotation")

	rows, err := workbook.GetRows("Summary")
	require.NoError(t, err)

	var flat []string
	for _, row := range rows {
		flat = append(flat, strings.Join(row, " "))
	}
	joined := strings.Join(flat, "\n")
	assert.Contains(t, joined, Title)
	assert.Contains(t, joined, "North Plot")
	assert.Contains(t, joined, "Soil Health")
}

func TestPDFGeneratorProducesDocument(t *testing.T) {
	doc := sampleDocument(t)

	data, err := NewPDFGenerator(DefaultPDFOptions()).Render(doc)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output must start with the PDF magic")
	assert.Greater(t, len(data), 1000, "a six-section report is never this small")
}
