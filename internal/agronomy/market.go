package agronomy

import (
	"math"
	"sort"
	"time"
)

// PricePoint is one observed mandi price for a crop.
type PricePoint struct {
	Date            time.Time `json:"date"`
	PricePerQuintal float64   `json:"price_per_quintal"`
}

// PriceForecastInput asks for a forward price curve over the horizon.
type PriceForecastInput struct {
	Crop        CropID       `json:"crop"`
	History     []PricePoint `json:"history"`
	HorizonDays int          `json:"horizon_days"`
}

// ForecastPoint is one forecast step with its uncertainty band.
type ForecastPoint struct {
	Date            time.Time `json:"date"`
	DayOffset       int       `json:"day_offset"`
	PricePerQuintal float64   `json:"price_per_quintal"`
	LowerBand       float64   `json:"lower_band"`
	UpperBand       float64   `json:"upper_band"`
	Confidence      float64   `json:"confidence"`
}

// PriceForecast is the forecaster output. Warnings flag degraded
// inputs; a degraded forecast is still a forecast, not an error.
type PriceForecast struct {
	Crop         CropID          `json:"crop"`
	GeneratedAt  time.Time       `json:"generated_at"`
	AnchorPrice  float64         `json:"anchor_price"`
	TrendPerWeek float64         `json:"trend_per_week"`
	Points       []ForecastPoint `json:"points"`
	Warnings     []Warning       `json:"warnings,omitempty"`
}

// ProfitInput sizes an expected harvest against forecast prices.
type ProfitInput struct {
	Crop                     CropID       `json:"crop"`
	History                  []PricePoint `json:"history"`
	HarvestInDays            int          `json:"harvest_in_days"`
	ExpectedYieldTonnesPerHa float64      `json:"expected_yield_tonnes_per_ha"`
	AreaHectares             float64      `json:"area_hectares"`
	CostPerHaOverride        float64      `json:"cost_per_ha_override,omitempty"`
}

// ProfitEstimate is the profit projection at harvest.
type ProfitEstimate struct {
	Crop                     CropID    `json:"crop"`
	HarvestDate              time.Time `json:"harvest_date"`
	PricePerQuintal          float64   `json:"price_per_quintal"`
	ExpectedYieldTonnesPerHa float64   `json:"expected_yield_tonnes_per_ha"`
	RevenueTotal             float64   `json:"revenue_total"`
	CostTotal                float64   `json:"cost_total"`
	ProfitTotal              float64   `json:"profit_total"`
	ProfitPerHa              float64   `json:"profit_per_ha"`
	MarginPercent            float64   `json:"margin_percent"`
	ReturnOnCostPercent      float64   `json:"return_on_cost_percent"`
	BreakEvenPricePerQuintal float64   `json:"break_even_price_per_quintal"`
	Warnings                 []Warning `json:"warnings,omitempty"`
}

const (
	forecastStepDays   = 7
	maxHorizonDays     = 365
	maxTrendWindow     = 90 // trailing observations used for the fit
	maxWeeklyTrend     = 0.05
	quintalsPerTonne   = 10.0
	shortHistoryPoints = 8
)

// ForecastPrices projects weekly price points over the horizon from
// the observed history: a clamped least-squares trend, the crop's
// seasonal pattern, and a volatility band that widens with the square
// root of elapsed steps and never narrows from one step to the next.
func (e *Engine) ForecastPrices(in PriceForecastInput) (*PriceForecast, error) {
	if err := validatePriceHistory(in.History); err != nil {
		return nil, err
	}
	if in.HorizonDays <= 0 {
		return nil, invalidInputf("horizon %d must be positive", in.HorizonDays)
	}
	if in.HorizonDays > maxHorizonDays {
		return nil, invalidInputf("horizon %d exceeds %d days", in.HorizonDays, maxHorizonDays)
	}
	profile, err := e.catalog.Profile(in.Crop)
	if err != nil {
		return nil, err
	}

	now := e.now()
	model := fitPriceModel(in.History, profile)

	points := make([]ForecastPoint, 0, in.HorizonDays/forecastStepDays+1)
	var prevBand float64
	for _, day := range forecastOffsets(in.HorizonDays) {
		steps := float64(day) / forecastStepDays
		date := now.AddDate(0, 0, day)

		price := model.anchor *
			math.Pow(1+model.weeklyTrend, steps) *
			seasonalRatio(profile.SeasonalPattern, now, date)

		band := price * profile.PriceVolatility * math.Sqrt(steps)
		if model.degraded {
			band *= 2
		}
		// The band only widens with the horizon.
		band = math.Max(band, prevBand)
		prevBand = band

		points = append(points, ForecastPoint{
			Date:            date,
			DayOffset:       day,
			PricePerQuintal: round4(price),
			LowerBand:       round4(clampMin(price-band, 0)),
			UpperBand:       round4(price + band),
			Confidence:      round4(forecastConfidence(steps, len(in.History))),
		})
	}

	return &PriceForecast{
		Crop:         in.Crop,
		GeneratedAt:  now,
		AnchorPrice:  round4(model.anchor),
		TrendPerWeek: round4(model.weeklyTrend),
		Points:       points,
		Warnings:     model.warnings,
	}, nil
}

// EstimateProfit prices the expected harvest with the forecast model
// and nets it against cultivation cost.
func (e *Engine) EstimateProfit(in ProfitInput) (*ProfitEstimate, error) {
	if err := validatePriceHistory(in.History); err != nil {
		return nil, err
	}
	if in.HarvestInDays < 0 {
		return nil, invalidInputf("harvest in %d days is negative", in.HarvestInDays)
	}
	if in.ExpectedYieldTonnesPerHa <= 0 {
		return nil, invalidInputf("expected yield %v must be positive", in.ExpectedYieldTonnesPerHa)
	}
	if in.AreaHectares <= 0 {
		return nil, invalidInputf("area %v must be positive", in.AreaHectares)
	}
	if in.CostPerHaOverride < 0 {
		return nil, invalidInputf("cost override %v is negative", in.CostPerHaOverride)
	}
	profile, err := e.catalog.Profile(in.Crop)
	if err != nil {
		return nil, err
	}

	now := e.now()
	model := fitPriceModel(in.History, profile)
	harvestDate := now.AddDate(0, 0, in.HarvestInDays)

	steps := float64(in.HarvestInDays) / forecastStepDays
	price := model.anchor *
		math.Pow(1+model.weeklyTrend, steps) *
		seasonalRatio(profile.SeasonalPattern, now, harvestDate)

	costPerHa := profile.CultivationCostPerHa
	if in.CostPerHaOverride > 0 {
		costPerHa = in.CostPerHaOverride
	}

	quintalsPerHa := in.ExpectedYieldTonnesPerHa * quintalsPerTonne
	revenue := price * quintalsPerHa * in.AreaHectares
	cost := costPerHa * in.AreaHectares
	profit := revenue - cost

	est := &ProfitEstimate{
		Crop:                     in.Crop,
		HarvestDate:              harvestDate,
		PricePerQuintal:          round4(price),
		ExpectedYieldTonnesPerHa: in.ExpectedYieldTonnesPerHa,
		RevenueTotal:             round4(revenue),
		CostTotal:                round4(cost),
		ProfitTotal:              round4(profit),
		ProfitPerHa:              round4(profit / in.AreaHectares),
		BreakEvenPricePerQuintal: round4(costPerHa / quintalsPerHa),
		Warnings:                 model.warnings,
	}
	if revenue > 0 {
		est.MarginPercent = round4(profit / revenue * 100)
	}
	if cost > 0 {
		est.ReturnOnCostPercent = round4(profit / cost * 100)
	}
	return est, nil
}

func validatePriceHistory(history []PricePoint) error {
	for _, p := range history {
		if p.PricePerQuintal <= 0 {
			return invalidInputf("price %v on %s must be positive",
				p.PricePerQuintal, p.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// priceModel is the fitted state shared by the forecaster and the
// profit estimator.
type priceModel struct {
	anchor      float64
	weeklyTrend float64
	degraded    bool
	warnings    []Warning
}

// fitPriceModel anchors on the latest observation and fits a linear
// trend over the trailing window. With fewer than two observations
// there is nothing to fit: the model falls back to the last known
// price, or the crop's base price when the history is empty, with a
// flat trend and a low-confidence warning.
func fitPriceModel(history []PricePoint, profile CropProfile) priceModel {
	if len(history) < 2 {
		anchor := profile.BasePricePerQuintal
		if len(history) == 1 {
			anchor = history[0].PricePerQuintal
		}
		return priceModel{
			anchor:   anchor,
			degraded: true,
			warnings: []Warning{WarningLowConfidenceForecast},
		}
	}

	sorted := make([]PricePoint, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	if len(sorted) > maxTrendWindow {
		sorted = sorted[len(sorted)-maxTrendWindow:]
	}

	last := sorted[len(sorted)-1]
	slopePerDay := leastSquaresSlope(sorted)
	weekly := clamp(slopePerDay*forecastStepDays/last.PricePerQuintal, -maxWeeklyTrend, maxWeeklyTrend)

	return priceModel{anchor: last.PricePerQuintal, weeklyTrend: weekly}
}

// leastSquaresSlope fits price against days elapsed since the first
// observation and returns the slope in price units per day. A window
// with no date spread has no usable trend.
func leastSquaresSlope(sorted []PricePoint) float64 {
	first := sorted[0].Date
	n := float64(len(sorted))

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range sorted {
		x := p.Date.Sub(first).Hours() / 24
		sumX += x
		sumY += p.PricePerQuintal
		sumXY += x * p.PricePerQuintal
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// forecastOffsets yields weekly day offsets up to the horizon, plus a
// final partial step when the horizon is not a whole number of weeks.
func forecastOffsets(horizonDays int) []int {
	var offsets []int
	for day := forecastStepDays; day <= horizonDays; day += forecastStepDays {
		offsets = append(offsets, day)
	}
	if horizonDays%forecastStepDays != 0 {
		offsets = append(offsets, horizonDays)
	}
	return offsets
}

// seasonalRatio rescales the month pattern relative to the forecast
// origin so the curve is continuous at offset zero.
func seasonalRatio(pattern [12]float64, origin, at time.Time) float64 {
	return pattern[at.Month()-1] / pattern[origin.Month()-1]
}

func forecastConfidence(steps float64, historyLen int) float64 {
	conf := 0.92 - 0.04*steps
	if historyLen < shortHistoryPoints {
		conf -= 0.2
	}
	return clamp(conf, 0.1, 1)
}
