package agronomy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weeklyHistory builds n observations ending the day before the test
// clock, stepping back one week at a time.
func weeklyHistory(n int, start, weeklyChange float64) []PricePoint {
	points := make([]PricePoint, n)
	for i := 0; i < n; i++ {
		points[i] = PricePoint{
			Date:            testClock.AddDate(0, 0, -7*(n-i)),
			PricePerQuintal: start + weeklyChange*float64(i),
		}
	}
	return points
}

func TestForecastPricesEmptyHistoryAnchorsOnBasePrice(t *testing.T) {
	e := newTestEngine(0.5)

	forecast, err := e.ForecastPrices(PriceForecastInput{Crop: "wheat", HorizonDays: 21})
	require.NoError(t, err)

	assert.InDelta(t, 2200, forecast.AnchorPrice, 1e-9)
	assert.Zero(t, forecast.TrendPerWeek)
	assert.Contains(t, forecast.Warnings, WarningLowConfidenceForecast)
	require.Len(t, forecast.Points, 3)

	// March multipliers are flat for wheat, so with no trend every
	// central estimate sits on the anchor.
	for _, p := range forecast.Points {
		assert.InDelta(t, 2200, p.PricePerQuintal, 1e-6)
		assert.GreaterOrEqual(t, p.LowerBand, 0.0)
		assert.Less(t, p.Confidence, 0.9)
	}
}

func TestForecastPricesSinglePointAnchorsOnObservation(t *testing.T) {
	e := newTestEngine(0.5)

	forecast, err := e.ForecastPrices(PriceForecastInput{
		Crop:        "wheat",
		History:     []PricePoint{{Date: testClock.AddDate(0, 0, -3), PricePerQuintal: 2400}},
		HorizonDays: 14,
	})
	require.NoError(t, err)

	assert.InDelta(t, 2400, forecast.AnchorPrice, 1e-9)
	assert.Contains(t, forecast.Warnings, WarningLowConfidenceForecast)
}

func TestForecastPricesRisingHistoryYieldsPositiveTrend(t *testing.T) {
	e := newTestEngine(0.5)

	forecast, err := e.ForecastPrices(PriceForecastInput{
		Crop:        "wheat",
		History:     weeklyHistory(10, 2000, 30),
		HorizonDays: 14,
	})
	require.NoError(t, err)

	assert.Greater(t, forecast.TrendPerWeek, 0.0)
	assert.Empty(t, forecast.Warnings)
	require.Len(t, forecast.Points, 2)
	assert.Greater(t, forecast.Points[0].PricePerQuintal, forecast.AnchorPrice)
	assert.Greater(t, forecast.Points[1].PricePerQuintal, forecast.Points[0].PricePerQuintal)
}

func TestForecastPricesTrendClamp(t *testing.T) {
	e := newTestEngine(0.5)

	surge, err := e.ForecastPrices(PriceForecastInput{
		Crop:        "wheat",
		History:     weeklyHistory(6, 1000, 400),
		HorizonDays: 7,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, surge.TrendPerWeek, 1e-9)

	crash, err := e.ForecastPrices(PriceForecastInput{
		Crop:        "wheat",
		History:     weeklyHistory(6, 3400, -400),
		HorizonDays: 7,
	})
	require.NoError(t, err)
	assert.InDelta(t, -0.05, crash.TrendPerWeek, 1e-9)
}

func TestForecastPricesBandNeverNarrows(t *testing.T) {
	e := newTestEngine(0.5)

	forecast, err := e.ForecastPrices(PriceForecastInput{
		Crop:        "tomato",
		History:     weeklyHistory(12, 1800, -20),
		HorizonDays: 90,
	})
	require.NoError(t, err)
	require.NotEmpty(t, forecast.Points)

	prev := 0.0
	for _, p := range forecast.Points {
		width := p.UpperBand - p.PricePerQuintal
		assert.GreaterOrEqual(t, width+1e-3, prev, "band narrowed at day %d", p.DayOffset)
		prev = width
	}
}

func TestForecastPricesPartialFinalStep(t *testing.T) {
	e := newTestEngine(0.5)

	forecast, err := e.ForecastPrices(PriceForecastInput{Crop: "wheat", HorizonDays: 10})
	require.NoError(t, err)
	require.Len(t, forecast.Points, 2)
	assert.Equal(t, 7, forecast.Points[0].DayOffset)
	assert.Equal(t, 10, forecast.Points[1].DayOffset)
	assert.Equal(t, testClock.AddDate(0, 0, 10), forecast.Points[1].Date)
}

func TestForecastPricesValidation(t *testing.T) {
	e := newTestEngine(0.5)

	_, err := e.ForecastPrices(PriceForecastInput{Crop: "wheat", HorizonDays: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.ForecastPrices(PriceForecastInput{Crop: "wheat", HorizonDays: 400})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.ForecastPrices(PriceForecastInput{
		Crop:        "wheat",
		History:     []PricePoint{{Date: testClock, PricePerQuintal: 0}},
		HorizonDays: 7,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.ForecastPrices(PriceForecastInput{Crop: "unknown_crop", HorizonDays: 7})
	assert.ErrorIs(t, err, ErrUnknownCrop)
}

func TestEstimateProfitWheatHarvest(t *testing.T) {
	e := newTestEngine(0.5)

	est, err := e.EstimateProfit(ProfitInput{
		Crop:                     "wheat",
		HarvestInDays:            0,
		ExpectedYieldTonnesPerHa: 4.5,
		AreaHectares:             2,
	})
	require.NoError(t, err)

	assert.InDelta(t, 2200, est.PricePerQuintal, 1e-9)
	assert.InDelta(t, 198000, est.RevenueTotal, 1e-6)
	assert.InDelta(t, 70000, est.CostTotal, 1e-6)
	assert.InDelta(t, 128000, est.ProfitTotal, 1e-6)
	assert.InDelta(t, 64000, est.ProfitPerHa, 1e-6)
	assert.InDelta(t, 777.7778, est.BreakEvenPricePerQuintal, 1e-3)
	assert.Greater(t, est.MarginPercent, 0.0)
	assert.Greater(t, est.ReturnOnCostPercent, 0.0)
}

func TestEstimateProfitCostOverride(t *testing.T) {
	e := newTestEngine(0.5)

	est, err := e.EstimateProfit(ProfitInput{
		Crop:                     "wheat",
		HarvestInDays:            0,
		ExpectedYieldTonnesPerHa: 4.5,
		AreaHectares:             1,
		CostPerHaOverride:        50000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 50000, est.CostTotal, 1e-6)
	assert.InDelta(t, 49000, est.ProfitTotal, 1e-6)
}

func TestEstimateProfitLossMakingSeason(t *testing.T) {
	e := newTestEngine(0.5)

	// Sugarcane prices cannot carry a token harvest off one hectare.
	est, err := e.EstimateProfit(ProfitInput{
		Crop:                     "sugarcane",
		HarvestInDays:            30,
		ExpectedYieldTonnesPerHa: 20,
		AreaHectares:             1,
	})
	require.NoError(t, err)
	assert.Negative(t, est.ProfitTotal)
	assert.Negative(t, est.MarginPercent)
}

func TestEstimateProfitValidation(t *testing.T) {
	e := newTestEngine(0.5)

	base := ProfitInput{
		Crop: "wheat", HarvestInDays: 30, ExpectedYieldTonnesPerHa: 4, AreaHectares: 1,
	}

	in := base
	in.HarvestInDays = -1
	_, err := e.EstimateProfit(in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = base
	in.ExpectedYieldTonnesPerHa = 0
	_, err = e.EstimateProfit(in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = base
	in.AreaHectares = -2
	_, err = e.EstimateProfit(in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = base
	in.Crop = "unknown_crop"
	_, err = e.EstimateProfit(in)
	assert.ErrorIs(t, err, ErrUnknownCrop)

	in = base
	in.History = []PricePoint{{Date: time.Now(), PricePerQuintal: -10}}
	_, err = e.EstimateProfit(in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
