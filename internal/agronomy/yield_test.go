package agronomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceWheatSeason() YieldInput {
	return YieldInput{
		Crop:               "wheat",
		SoilScore:          7.0,
		SeasonalRainfallMm: 500,
		AvgTemperatureC:    25,
		AvgHumidityPercent: 65,
		AreaHectares:       1,
		Fertilizer:         FertilizerApplication{Nitrogen: 100, Phosphorus: 50, Potassium: 50},
	}
}

func TestPredictYieldReferenceConditions(t *testing.T) {
	e := newTestEngine(0.5)

	forecast, err := e.PredictYield(referenceWheatSeason())
	require.NoError(t, err)

	assert.InDelta(t, 1.0, forecast.Factors.Soil, 1e-9)
	assert.InDelta(t, 1.0, forecast.Factors.Rainfall, 1e-9)
	assert.InDelta(t, 1.0, forecast.Factors.Temperature, 1e-9)
	assert.InDelta(t, 1.0, forecast.Factors.Humidity, 1e-9)
	assert.InDelta(t, 1.0, forecast.Factors.Fertilizer, 1e-9)
	assert.InDelta(t, 1.0, forecast.Factors.Variability, 1e-9)

	assert.InDelta(t, 4.5, forecast.YieldTonnesPerHa, 1e-9)
	assert.InDelta(t, 4.5, forecast.TotalProductionTonnes, 1e-9)
	assert.InDelta(t, 1.0, forecast.Confidence, 1e-9)
	assert.Empty(t, forecast.RiskFlags)
}

func TestPredictYieldDeterministicUnderFixedDraw(t *testing.T) {
	in := YieldInput{
		Crop:               "rice",
		SoilScore:          6.2,
		SeasonalRainfallMm: 900,
		AvgTemperatureC:    31,
		AvgHumidityPercent: 78,
		AreaHectares:       2.4,
		Fertilizer:         FertilizerApplication{Nitrogen: 90, Phosphorus: 40, Potassium: 55},
	}

	first, err := newTestEngine(0.37).PredictYield(in)
	require.NoError(t, err)
	second, err := newTestEngine(0.37).PredictYield(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPredictYieldTotalProductionScalesWithArea(t *testing.T) {
	small := referenceWheatSeason()
	large := referenceWheatSeason()
	large.AreaHectares = 3.5

	a, err := newTestEngine(0.5).PredictYield(small)
	require.NoError(t, err)
	b, err := newTestEngine(0.5).PredictYield(large)
	require.NoError(t, err)

	assert.Equal(t, a.YieldTonnesPerHa, b.YieldTonnesPerHa)
	assert.InDelta(t, a.YieldTonnesPerHa*3.5, b.TotalProductionTonnes, 1e-6)
}

func TestPredictYieldVariabilityBounds(t *testing.T) {
	in := referenceWheatSeason()

	low, err := newTestEngine(0).PredictYield(in)
	require.NoError(t, err)
	high, err := newTestEngine(0.999999).PredictYield(in)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, low.Factors.Variability, 1e-9)
	assert.InDelta(t, 4.05, low.YieldTonnesPerHa, 1e-6)
	assert.LessOrEqual(t, high.Factors.Variability, 1.1)
	assert.Greater(t, high.Factors.Variability, 1.09)
}

func TestPredictYieldStressFactors(t *testing.T) {
	e := newTestEngine(0.5)

	t.Run("drought", func(t *testing.T) {
		in := referenceWheatSeason()
		in.SeasonalRainfallMm = 150
		forecast, err := e.PredictYield(in)
		require.NoError(t, err)
		assert.InDelta(t, 0.3, forecast.Factors.Rainfall, 1e-9)
		assert.Contains(t, forecast.RiskFlags, "low_rainfall_factor")
		assert.Less(t, forecast.Confidence, 1.0)
	})

	t.Run("excess rainfall decays past the reference", func(t *testing.T) {
		in := referenceWheatSeason()
		in.SeasonalRainfallMm = 900
		forecast, err := e.PredictYield(in)
		require.NoError(t, err)
		assert.InDelta(t, 0.6, forecast.Factors.Rainfall, 1e-9)
	})

	t.Run("cold snap", func(t *testing.T) {
		in := referenceWheatSeason()
		in.AvgTemperatureC = 5
		forecast, err := e.PredictYield(in)
		require.NoError(t, err)
		// 10 degrees below the wheat minimum of 15.
		assert.InDelta(t, 0.5, forecast.Factors.Temperature, 1e-9)
		assert.Contains(t, forecast.RiskFlags, "low_temperature_factor")
	})

	t.Run("extreme heat hits the floor", func(t *testing.T) {
		in := referenceWheatSeason()
		in.AvgTemperatureC = 50
		forecast, err := e.PredictYield(in)
		require.NoError(t, err)
		assert.InDelta(t, 0.3, forecast.Factors.Temperature, 1e-9)
	})

	t.Run("poor soil", func(t *testing.T) {
		in := referenceWheatSeason()
		in.SoilScore = 3.5
		forecast, err := e.PredictYield(in)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, forecast.Factors.Soil, 1e-9)
		assert.Contains(t, forecast.RiskFlags, "low_soil_factor")
	})

	t.Run("heavy fertilization is clamped", func(t *testing.T) {
		in := referenceWheatSeason()
		in.Fertilizer = FertilizerApplication{Nitrogen: 400, Phosphorus: 200, Potassium: 200}
		forecast, err := e.PredictYield(in)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, forecast.Factors.Fertilizer, 1e-9)
		assert.Contains(t, forecast.RiskFlags, "high_fertilizer_factor")
	})
}

func TestPredictYieldConfidenceDropsWithDeviation(t *testing.T) {
	e := newTestEngine(0.5)

	neutral, err := e.PredictYield(referenceWheatSeason())
	require.NoError(t, err)

	stressed := referenceWheatSeason()
	stressed.SoilScore = 3.5
	stressed.SeasonalRainfallMm = 200
	worse, err := e.PredictYield(stressed)
	require.NoError(t, err)

	assert.Less(t, worse.Confidence, neutral.Confidence)
}

func TestPredictYieldValidation(t *testing.T) {
	e := newTestEngine(0.5)

	cases := []struct {
		name   string
		mutate func(*YieldInput)
		want   error
	}{
		{"unknown crop", func(in *YieldInput) { in.Crop = "unknown_crop" }, ErrUnknownCrop},
		{"soil score above 10", func(in *YieldInput) { in.SoilScore = 10.5 }, ErrInvalidInput},
		{"negative soil score", func(in *YieldInput) { in.SoilScore = -0.1 }, ErrInvalidInput},
		{"negative rainfall", func(in *YieldInput) { in.SeasonalRainfallMm = -1 }, ErrInvalidInput},
		{"humidity above 100", func(in *YieldInput) { in.AvgHumidityPercent = 105 }, ErrInvalidInput},
		{"zero area", func(in *YieldInput) { in.AreaHectares = 0 }, ErrInvalidInput},
		{"negative fertilizer", func(in *YieldInput) { in.Fertilizer.Nitrogen = -5 }, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := referenceWheatSeason()
			tc.mutate(&in)
			_, err := e.PredictYield(in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
