package agronomy

// IrrigationInput describes current field conditions for one crop at
// one growth stage.
type IrrigationInput struct {
	Crop                CropID           `json:"crop"`
	Stage               GrowthStage      `json:"stage"`
	Texture             SoilTexture      `json:"texture"`
	Method              IrrigationMethod `json:"method"`
	SoilMoisturePercent float64          `json:"soil_moisture_percent"`
	TemperatureC        float64          `json:"temperature_c"`
	HumidityPercent     float64          `json:"humidity_percent"`
	WindSpeedKmh        float64          `json:"wind_speed_kmh"`
	DaysSinceRain       int              `json:"days_since_rain"`
	RootDepthCm         float64          `json:"root_depth_cm,omitempty"`
	AreaHectares        float64          `json:"area_hectares,omitempty"`
}

// MoistureStatus is the band the measured soil moisture falls in
// relative to the texture-specific thresholds.
type MoistureStatus string

const (
	MoistureDeficit   MoistureStatus = "deficit"
	MoistureOptimal   MoistureStatus = "optimal"
	MoistureSaturated MoistureStatus = "saturated"
)

// IrrigationUrgency orders how soon water should be applied.
type IrrigationUrgency string

const (
	IrrigateNow  IrrigationUrgency = "irrigate_now"
	IrrigateSoon IrrigationUrgency = "irrigate_soon"
	Monitor      IrrigationUrgency = "monitor"
	NoAction     IrrigationUrgency = "no_action"
)

// IrrigationAdvice is the advisor output: the moisture diagnosis and
// the watering plan that closes the deficit.
type IrrigationAdvice struct {
	Crop               CropID            `json:"crop"`
	Stage              GrowthStage       `json:"stage"`
	Status             MoistureStatus    `json:"status"`
	Urgency            IrrigationUrgency `json:"urgency"`
	DailyWaterNeedMm   float64           `json:"daily_water_need_mm"`
	WaterDeficitMm     float64           `json:"water_deficit_mm"`
	WaterVolumeM3PerHa float64           `json:"water_volume_m3_per_ha"`
	TotalWaterVolumeM3 float64           `json:"total_water_volume_m3,omitempty"`
	DurationHours      float64           `json:"duration_hours"`
	NextCheckDays      int               `json:"next_check_days"`
	Notes              []string          `json:"notes,omitempty"`
}

// moistureThresholds are volumetric soil moisture breakpoints in
// percent. Optimal is the refill target the deficit is measured
// against.
type moistureThresholds struct {
	deficit   float64
	optimal   float64
	saturated float64
}

var textureThresholds = map[SoilTexture]moistureThresholds{
	TextureSandy:   {deficit: 25, optimal: 65, saturated: 85},
	TextureLoamy:   {deficit: 30, optimal: 70, saturated: 90},
	TextureClay:    {deficit: 35, optimal: 75, saturated: 92},
	TextureOrganic: {deficit: 40, optimal: 80, saturated: 95},
}

// holdingFactorMmPerPoint is the water depth, in mm at the standard
// root depth, represented by one percentage point of soil moisture.
var holdingFactorMmPerPoint = map[SoilTexture]float64{
	TextureSandy:   1.0,
	TextureLoamy:   1.5,
	TextureClay:    2.0,
	TextureOrganic: 2.5,
}

// stageWaterMultiplier scales the crop's base daily water need by
// growth stage. Flowering is the peak demand window.
var stageWaterMultiplier = map[GrowthStage]float64{
	StageGermination:  0.3,
	StageVegetative:   0.7,
	StageFlowering:    1.2,
	StageGrainFilling: 1.0,
	StageMaturity:     0.4,
}

// methodEfficiency is the fraction of applied water that reaches the
// root zone for each delivery method.
var methodEfficiency = map[IrrigationMethod]float64{
	MethodFlood:     0.45,
	MethodFurrow:    0.60,
	MethodSprinkler: 0.75,
	MethodDrip:      0.90,
	MethodMicro:     0.85,
}

const (
	standardRootDepthCm = 30.0

	// Evapotranspiration weather adjustments.
	etTempPivotC      = 25.0
	etTempSlope       = 0.02
	etHumidityPivot   = 50.0
	etHumiditySlope   = 0.005
	etWindPivotKmh    = 5.0
	etWindSlope       = 0.01
	etFloorMmPerDay   = 1.0
	mmPerHaToM3       = 10.0
	applicationRateMm = 10.0 // per hour

	urgentDeficitDays = 5.0
	soonDeficitDays   = 2.0
)

// AssessIrrigation diagnoses soil moisture against texture thresholds
// and, when a deficit exists, sizes the irrigation needed to refill
// the root zone plus the water lost since the last rain.
func (e *Engine) AssessIrrigation(in IrrigationInput) (*IrrigationAdvice, error) {
	if err := validateIrrigationInput(in); err != nil {
		return nil, err
	}
	profile, err := e.catalog.Profile(in.Crop)
	if err != nil {
		return nil, err
	}
	stageMult, ok := stageWaterMultiplier[in.Stage]
	if !ok {
		return nil, unknownGrowthStagef(in.Stage)
	}
	thresholds, ok := textureThresholds[in.Texture]
	if !ok {
		return nil, unknownSoilTexturef(in.Texture)
	}
	efficiency, ok := methodEfficiency[in.Method]
	if !ok {
		return nil, unknownIrrigationMethodf(in.Method)
	}

	dailyNeed := dailyWaterNeed(profile.BaseWaterNeedMmPerDay, stageMult, in)
	status := moistureStatusFor(in.SoilMoisturePercent, thresholds)

	rootDepth := in.RootDepthCm
	if rootDepth == 0 {
		rootDepth = standardRootDepthCm
	}
	holding := holdingFactorMmPerPoint[in.Texture] * rootDepth / standardRootDepthCm

	var deficitMm float64
	if status != MoistureSaturated {
		gap := clampMin(thresholds.optimal-in.SoilMoisturePercent, 0)
		deficitMm = gap*holding + dailyNeed*float64(in.DaysSinceRain)
	}

	urgency := irrigationUrgency(status, deficitMm, dailyNeed)

	var volumePerHa, duration float64
	if urgency == IrrigateNow || urgency == IrrigateSoon {
		grossDepthMm := deficitMm / efficiency
		volumePerHa = grossDepthMm * mmPerHaToM3
		duration = grossDepthMm / applicationRateMm
	}

	advice := &IrrigationAdvice{
		Crop:               in.Crop,
		Stage:              in.Stage,
		Status:             status,
		Urgency:            urgency,
		DailyWaterNeedMm:   round4(dailyNeed),
		WaterDeficitMm:     round4(deficitMm),
		WaterVolumeM3PerHa: round4(volumePerHa),
		DurationHours:      round4(duration),
		NextCheckDays:      nextCheckDays(urgency),
		Notes:              irrigationNotes(status, in.Texture),
	}
	if in.AreaHectares > 0 {
		advice.TotalWaterVolumeM3 = round4(volumePerHa * in.AreaHectares)
	}
	return advice, nil
}

func validateIrrigationInput(in IrrigationInput) error {
	if in.SoilMoisturePercent < 0 || in.SoilMoisturePercent > 100 {
		return invalidInputf("soil moisture %v outside [0,100]", in.SoilMoisturePercent)
	}
	if in.HumidityPercent < 0 || in.HumidityPercent > 100 {
		return invalidInputf("humidity %v outside [0,100]", in.HumidityPercent)
	}
	if in.WindSpeedKmh < 0 {
		return invalidInputf("wind speed %v is negative", in.WindSpeedKmh)
	}
	if in.DaysSinceRain < 0 {
		return invalidInputf("days since rain %d is negative", in.DaysSinceRain)
	}
	if in.RootDepthCm < 0 {
		return invalidInputf("root depth %v is negative", in.RootDepthCm)
	}
	if in.AreaHectares < 0 {
		return invalidInputf("area %v is negative", in.AreaHectares)
	}
	return nil
}

// dailyWaterNeed is the stage-adjusted evapotranspiration estimate.
// Hot, dry and windy conditions all raise it; the floor keeps the
// estimate from vanishing in cool humid weather.
func dailyWaterNeed(baseMmPerDay, stageMult float64, in IrrigationInput) float64 {
	tempAdj := clamp(1+(in.TemperatureC-etTempPivotC)*etTempSlope, 0.5, 1.5)
	humAdj := clamp(1-(in.HumidityPercent-etHumidityPivot)*etHumiditySlope, 0.7, 1.3)
	windAdj := clamp(1+(in.WindSpeedKmh-etWindPivotKmh)*etWindSlope, 0.8, 1.4)
	return clampMin(baseMmPerDay*stageMult*tempAdj*humAdj*windAdj, etFloorMmPerDay)
}

// moistureStatusFor treats the deficit threshold as inclusive: a
// reading exactly on it is already a deficit.
func moistureStatusFor(moisture float64, t moistureThresholds) MoistureStatus {
	switch {
	case moisture <= t.deficit:
		return MoistureDeficit
	case moisture >= t.saturated:
		return MoistureSaturated
	default:
		return MoistureOptimal
	}
}

func irrigationUrgency(status MoistureStatus, deficitMm, dailyNeed float64) IrrigationUrgency {
	if status == MoistureSaturated {
		return NoAction
	}
	switch {
	case deficitMm > urgentDeficitDays*dailyNeed:
		return IrrigateNow
	case deficitMm > soonDeficitDays*dailyNeed:
		return IrrigateSoon
	default:
		return Monitor
	}
}

func nextCheckDays(u IrrigationUrgency) int {
	switch u {
	case IrrigateNow:
		return 1
	case IrrigateSoon:
		return 2
	case NoAction:
		return 2
	default:
		return 4
	}
}

func irrigationNotes(status MoistureStatus, texture SoilTexture) []string {
	switch status {
	case MoistureSaturated:
		return []string{"Soil is saturated; hold irrigation and check field drainage"}
	case MoistureDeficit:
		return []string{"Moisture is below the deficit threshold for " + string(texture) + " soil"}
	default:
		return nil
	}
}
