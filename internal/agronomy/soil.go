package agronomy

// SoilSample holds raw soil chemistry readings for one sampling point.
// Samples are transient; nothing in the engine retains them.
type SoilSample struct {
	PH                   float64 `json:"ph"`
	Nitrogen             float64 `json:"nitrogen"`   // mg/kg
	Phosphorus           float64 `json:"phosphorus"` // mg/kg
	Potassium            float64 `json:"potassium"`  // mg/kg
	OrganicMatterPercent float64 `json:"organic_matter_percent"`
}

// SoilIdeals are the target values sub-scores are measured against.
type SoilIdeals struct {
	PH            float64
	Nitrogen      float64
	Phosphorus    float64
	Potassium     float64
	OrganicMatter float64
}

// DefaultSoilIdeals returns the crop-agnostic targets used when no crop
// is named.
func DefaultSoilIdeals() SoilIdeals {
	return SoilIdeals{PH: 6.5, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatter: 5}
}

func soilIdealsFor(p CropProfile) SoilIdeals {
	return SoilIdeals{
		PH:            p.IdealPH,
		Nitrogen:      p.IdealNitrogen,
		Phosphorus:    p.IdealPhosphorus,
		Potassium:     p.IdealPotassium,
		OrganicMatter: p.IdealOrganicMatter,
	}
}

// SoilGrade is the qualitative band a score falls in.
type SoilGrade string

const (
	GradeExcellent SoilGrade = "excellent"
	GradeGood      SoilGrade = "good"
	GradeFair      SoilGrade = "fair"
	GradePoor      SoilGrade = "poor"
	GradeVeryPoor  SoilGrade = "very_poor"
)

// SoilSubScores are the five component scores, each in [0,10].
type SoilSubScores struct {
	PH            float64 `json:"ph"`
	Nitrogen      float64 `json:"nitrogen"`
	Phosphorus    float64 `json:"phosphorus"`
	Potassium     float64 `json:"potassium"`
	OrganicMatter float64 `json:"organic_matter"`
}

// SoilReport is the scorer output: composite score, its breakdown, and
// the amendment guidance derived from the raw readings.
type SoilReport struct {
	Crop            CropID        `json:"crop,omitempty"`
	Score           float64       `json:"score"`
	SubScores       SoilSubScores `json:"sub_scores"`
	Grade           SoilGrade     `json:"grade"`
	Recommendations []string      `json:"recommendations"`
	SuitableCrops   []CropID      `json:"suitable_crops"`
}

// SoilScoreInput names the sample and, optionally, the crop whose
// ideals the sample is scored against. An empty crop uses the
// crop-agnostic defaults.
type SoilScoreInput struct {
	Crop   CropID     `json:"crop,omitempty"`
	Sample SoilSample `json:"sample"`
}

// Sub-score weights. The distribution fixes the scorer's sensitivity
// and must sum to 1.
const (
	soilWeightPH            = 0.20
	soilWeightNitrogen      = 0.25
	soilWeightPhosphorus    = 0.25
	soilWeightPotassium     = 0.20
	soilWeightOrganicMatter = 0.10
)

// phFullPenaltyDelta is the pH deviation at which the pH sub-score
// bottoms out at zero.
const phFullPenaltyDelta = 3.5

// ScoreSoil converts raw soil chemistry into a 0-10 quality score with
// grade, amendment recommendations and a suitable-crop shortlist.
func (e *Engine) ScoreSoil(in SoilScoreInput) (*SoilReport, error) {
	if err := validateSoilSample(in.Sample); err != nil {
		return nil, err
	}

	ideals := DefaultSoilIdeals()
	if in.Crop != "" {
		profile, err := e.catalog.Profile(in.Crop)
		if err != nil {
			return nil, err
		}
		ideals = soilIdealsFor(profile)
	}

	sub := soilSubScores(in.Sample, ideals)
	score := clamp(
		sub.PH*soilWeightPH+
			sub.Nitrogen*soilWeightNitrogen+
			sub.Phosphorus*soilWeightPhosphorus+
			sub.Potassium*soilWeightPotassium+
			sub.OrganicMatter*soilWeightOrganicMatter,
		0, 10)

	return &SoilReport{
		Crop:            in.Crop,
		Score:           round4(score),
		SubScores:       sub,
		Grade:           gradeFor(score),
		Recommendations: soilRecommendations(in.Sample, score),
		SuitableCrops:   suitableCropsFor(score),
	}, nil
}

func validateSoilSample(s SoilSample) error {
	if s.PH < 0 || s.PH > 14 {
		return invalidInputf("pH %v outside [0,14]", s.PH)
	}
	if s.Nitrogen < 0 {
		return invalidInputf("nitrogen %v is negative", s.Nitrogen)
	}
	if s.Phosphorus < 0 {
		return invalidInputf("phosphorus %v is negative", s.Phosphorus)
	}
	if s.Potassium < 0 {
		return invalidInputf("potassium %v is negative", s.Potassium)
	}
	if s.OrganicMatterPercent < 0 {
		return invalidInputf("organic matter %v is negative", s.OrganicMatterPercent)
	}
	return nil
}

func soilSubScores(s SoilSample, ideals SoilIdeals) SoilSubScores {
	return SoilSubScores{
		PH:            round4(clamp(10*(1-abs(ideals.PH-s.PH)/phFullPenaltyDelta), 0, 10)),
		Nitrogen:      round4(nutrientRamp(s.Nitrogen, ideals.Nitrogen)),
		Phosphorus:    round4(nutrientRamp(s.Phosphorus, ideals.Phosphorus)),
		Potassium:     round4(nutrientRamp(s.Potassium, ideals.Potassium)),
		OrganicMatter: round4(clamp(s.OrganicMatterPercent*2, 0, 10)),
	}
}

// nutrientRamp rises linearly to the ideal and caps there. Excess
// supply is not penalized, only shortfall.
func nutrientRamp(value, ideal float64) float64 {
	return clamp(value/ideal*10, 0, 10)
}

func gradeFor(score float64) SoilGrade {
	switch {
	case score >= 8.5:
		return GradeExcellent
	case score >= 7.0:
		return GradeGood
	case score >= 5.5:
		return GradeFair
	case score >= 4.0:
		return GradePoor
	default:
		return GradeVeryPoor
	}
}

func soilRecommendations(s SoilSample, score float64) []string {
	var recs []string
	if s.PH < 6.0 {
		recs = append(recs, "Apply agricultural lime to raise soil pH")
	}
	if s.PH > 7.5 {
		recs = append(recs, "Apply elemental sulfur or gypsum to lower soil pH")
	}
	if s.Nitrogen < 30 {
		recs = append(recs, "Nitrogen is low; top-dress with urea or sow a green manure")
	}
	if s.Nitrogen > 80 {
		recs = append(recs, "Nitrogen is high; cut back nitrogen fertilizer this season")
	}
	if s.Phosphorus < 25 {
		recs = append(recs, "Phosphorus is low; apply DAP or single super phosphate at sowing")
	}
	if s.Potassium < 200 {
		recs = append(recs, "Potassium is low; apply muriate of potash")
	}
	if s.OrganicMatterPercent < 3 {
		recs = append(recs, "Organic matter is low; incorporate compost or farmyard manure")
	}
	if score < 3.5 {
		recs = append(recs, "Soil needs remediation before sowing a commercial crop")
	}
	return recs
}

// Suitable-crop shortlists per score band, demanding crops first.
var (
	suitableCropsExcellent = []CropID{"rice", "sugarcane", "cotton", "tomato", "cabbage"}
	suitableCropsGood      = []CropID{"wheat", "maize", "potato", "onion", "soybean", "sunflower"}
	suitableCropsFair      = []CropID{"barley", "groundnut", "mustard"}
	suitableCropsMarginal  = []CropID{"millet", "chickpea", "lentil"}
)

func suitableCropsFor(score float64) []CropID {
	var band []CropID
	switch {
	case score >= 8.0:
		band = suitableCropsExcellent
	case score >= 6.5:
		band = suitableCropsGood
	case score >= 5.0:
		band = suitableCropsFair
	case score >= 3.5:
		band = suitableCropsMarginal
	default:
		return []CropID{}
	}
	out := make([]CropID, len(band))
	copy(out, band)
	return out
}
