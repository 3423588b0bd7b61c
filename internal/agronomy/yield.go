package agronomy

// FertilizerApplication is the planned nutrient dose for the season in
// kg/ha of elemental N, P and K.
type FertilizerApplication struct {
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
}

// YieldInput describes one field-season to forecast.
type YieldInput struct {
	Crop               CropID                `json:"crop"`
	SoilScore          float64               `json:"soil_score"`
	SeasonalRainfallMm float64               `json:"seasonal_rainfall_mm"`
	AvgTemperatureC    float64               `json:"avg_temperature_c"`
	AvgHumidityPercent float64               `json:"avg_humidity_percent"`
	AreaHectares       float64               `json:"area_hectares"`
	Fertilizer         FertilizerApplication `json:"fertilizer"`
}

// YieldFactors are the multiplicative adjustments applied to the base
// yield. A factor of 1.0 means the input matched the crop's reference
// conditions exactly.
type YieldFactors struct {
	Soil        float64 `json:"soil"`
	Rainfall    float64 `json:"rainfall"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Fertilizer  float64 `json:"fertilizer"`
	Variability float64 `json:"variability"`
}

// YieldForecast is the forecaster output.
type YieldForecast struct {
	Crop                  CropID       `json:"crop"`
	YieldTonnesPerHa      float64      `json:"yield_tonnes_per_ha"`
	TotalProductionTonnes float64      `json:"total_production_tonnes"`
	Factors               YieldFactors `json:"factors"`
	Confidence            float64      `json:"confidence"`
	RiskFlags             []string     `json:"risk_flags"`
}

const (
	// Soil score that maps to a neutral soil factor.
	soilNeutralScore = 7.0

	// Rainfall beyond the crop reference loses this much factor per mm.
	excessRainfallSlope = 1.0 / 1000.0

	// Temperature stress outside the crop's range, per degree C.
	tempStressSlope = 0.05
	tempStressFloor = 0.3

	humidityComfortLow  = 60.0
	humidityComfortHigh = 70.0
	humidityStressSlope = 0.01
	humidityStressFloor = 0.7

	// Fertilizer response per kg/ha away from the crop reference dose.
	fertNitrogenSlope = 1.0 / 400.0
	fertPKSlope       = 1.0 / 800.0

	variabilityLow  = 0.9
	variabilitySpan = 0.2

	riskFlagLow  = 0.7
	riskFlagHigh = 1.3
)

// PredictYield estimates per-hectare yield and total production for a
// field-season by scaling the crop's base yield with soil, weather,
// fertilizer and stochastic variability factors.
func (e *Engine) PredictYield(in YieldInput) (*YieldForecast, error) {
	if err := validateYieldInput(in); err != nil {
		return nil, err
	}
	profile, err := e.catalog.Profile(in.Crop)
	if err != nil {
		return nil, err
	}

	factors := YieldFactors{
		Soil:        round4(in.SoilScore / soilNeutralScore),
		Rainfall:    round4(rainfallFactor(in.SeasonalRainfallMm, profile.ReferenceRainfallMm)),
		Temperature: round4(temperatureFactor(in.AvgTemperatureC, profile.TempMinC, profile.TempMaxC)),
		Humidity:    round4(humidityFactor(in.AvgHumidityPercent)),
		Fertilizer:  round4(fertilizerFactor(in.Fertilizer, profile)),
		Variability: round4(variabilityLow + variabilitySpan*e.uniform()),
	}

	perHa := profile.BaseYieldTonnesPerHa *
		factors.Soil * factors.Rainfall * factors.Temperature *
		factors.Humidity * factors.Fertilizer * factors.Variability

	return &YieldForecast{
		Crop:                  in.Crop,
		YieldTonnesPerHa:      round4(perHa),
		TotalProductionTonnes: round4(perHa * in.AreaHectares),
		Factors:               factors,
		Confidence:            round4(yieldConfidence(factors)),
		RiskFlags:             yieldRiskFlags(factors),
	}, nil
}

func validateYieldInput(in YieldInput) error {
	if in.SoilScore < 0 || in.SoilScore > 10 {
		return invalidInputf("soil score %v outside [0,10]", in.SoilScore)
	}
	if in.SeasonalRainfallMm < 0 {
		return invalidInputf("seasonal rainfall %v is negative", in.SeasonalRainfallMm)
	}
	if in.AvgHumidityPercent < 0 || in.AvgHumidityPercent > 100 {
		return invalidInputf("humidity %v outside [0,100]", in.AvgHumidityPercent)
	}
	if in.AreaHectares <= 0 {
		return invalidInputf("area %v must be positive", in.AreaHectares)
	}
	if in.Fertilizer.Nitrogen < 0 || in.Fertilizer.Phosphorus < 0 || in.Fertilizer.Potassium < 0 {
		return invalidInputf("fertilizer doses must be non-negative")
	}
	return nil
}

// rainfallFactor peaks at 1.0 when the season matches the crop's
// reference rainfall. Shortfall scales down proportionally, excess
// decays linearly, and the factor never drops below 0.1.
func rainfallFactor(rainfall, reference float64) float64 {
	var f float64
	if rainfall <= reference {
		f = rainfall / reference
	} else {
		f = 1 - (rainfall-reference)*excessRainfallSlope
	}
	return clamp(f, 0.1, 1.0)
}

// temperatureFactor is 1.0 inside the crop's tolerated range and falls
// off by tempStressSlope per degree outside, floored at tempStressFloor.
func temperatureFactor(temp, min, max float64) float64 {
	var dist float64
	switch {
	case temp < min:
		dist = min - temp
	case temp > max:
		dist = temp - max
	default:
		return 1.0
	}
	return clampMin(1-tempStressSlope*dist, tempStressFloor)
}

func humidityFactor(humidity float64) float64 {
	if humidity >= humidityComfortLow && humidity <= humidityComfortHigh {
		return 1.0
	}
	mid := (humidityComfortLow + humidityComfortHigh) / 2
	return clampMin(1-humidityStressSlope*abs(humidity-mid), humidityStressFloor)
}

// fertilizerFactor centers on 1.0 at the crop's reference dose.
// Nitrogen dominates the response; phosphorus and potassium
// contribute half as much per kg.
func fertilizerFactor(f FertilizerApplication, p CropProfile) float64 {
	factor := 1 +
		(f.Nitrogen-p.FertilizerRefN)*fertNitrogenSlope +
		(f.Phosphorus-p.FertilizerRefP)*fertPKSlope +
		(f.Potassium-p.FertilizerRefK)*fertPKSlope
	return clamp(factor, 0.5, 1.5)
}

// yieldConfidence shrinks as the deterministic factors drift from their
// neutral value of 1.0. Variability is excluded; it models noise, not
// knowledge.
func yieldConfidence(f YieldFactors) float64 {
	deviations := []float64{
		abs(f.Soil - 1),
		abs(f.Rainfall - 1),
		abs(f.Temperature - 1),
		abs(f.Humidity - 1),
		abs(f.Fertilizer - 1),
	}
	var sum float64
	for _, d := range deviations {
		sum += d
	}
	mean := sum / float64(len(deviations))
	return clamp(1-2*mean, 0, 1)
}

func yieldRiskFlags(f YieldFactors) []string {
	named := []struct {
		name  string
		value float64
	}{
		{"soil", f.Soil},
		{"rainfall", f.Rainfall},
		{"temperature", f.Temperature},
		{"humidity", f.Humidity},
		{"fertilizer", f.Fertilizer},
	}
	var flags []string
	for _, n := range named {
		switch {
		case n.value < riskFlagLow:
			flags = append(flags, "low_"+n.name+"_factor")
		case n.value > riskFlagHigh:
			flags = append(flags, "high_"+n.name+"_factor")
		}
	}
	return flags
}
