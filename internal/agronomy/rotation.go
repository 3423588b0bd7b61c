package agronomy

import "sort"

// RotationInput asks what to plant after the current crop.
type RotationInput struct {
	CurrentCrop CropID  `json:"current_crop"`
	SoilScore   float64 `json:"soil_score"`
	Season      Season  `json:"season"`
	TopN        int     `json:"top_n,omitempty"`
}

// RotationCandidate is one scored follow-on crop.
type RotationCandidate struct {
	Crop             CropID       `json:"crop"`
	DisplayName      string       `json:"display_name"`
	Category         CropCategory `json:"category"`
	SuitabilityScore float64      `json:"suitability_score"`
	RotationBenefit  string       `json:"rotation_benefit"`
	MinSoilScore     float64      `json:"min_soil_score"`
	NitrogenFixing   bool         `json:"nitrogen_fixing,omitempty"`
}

// RotationStep is one slot in the multi-season plan.
type RotationStep struct {
	Year    int    `json:"year"`
	Slot    string `json:"slot"`
	Crop    CropID `json:"crop"`
	Purpose string `json:"purpose"`
}

// RotationPlan is the planner output: ranked candidates plus a
// three-step sequence built from the best one.
type RotationPlan struct {
	CurrentCrop     CropID              `json:"current_crop"`
	CurrentCategory CropCategory        `json:"current_category"`
	Season          Season              `json:"season"`
	SoilScore       float64             `json:"soil_score"`
	Candidates      []RotationCandidate `json:"candidates"`
	Plan            []RotationStep      `json:"plan"`
}

// RotationAnalysis scores an existing or proposed crop sequence.
type RotationAnalysis struct {
	DiversityScore       float64  `json:"diversity_score"`
	NitrogenBenefitScore float64  `json:"nitrogen_benefit_score"`
	PestControlScore     float64  `json:"pest_control_score"`
	SustainabilityScore  float64  `json:"sustainability_score"`
	HasNitrogenFixers    bool     `json:"has_nitrogen_fixers"`
	Recommendations      []string `json:"recommendations"`
}

// beneficialRotations lists, per category, the categories that follow
// it well. Order expresses preference but scoring treats membership as
// binary.
var beneficialRotations = map[CropCategory][]CropCategory{
	CategoryCereal:    {CategoryPulse, CategoryOilseed, CategoryVegetable},
	CategoryPulse:     {CategoryCereal, CategoryCash, CategoryVegetable},
	CategoryOilseed:   {CategoryCereal, CategoryPulse, CategoryVegetable},
	CategoryVegetable: {CategoryCereal, CategoryPulse, CategoryOilseed},
	CategoryCash:      {CategoryPulse, CategoryCereal, CategoryOilseed},
}

var rotationBenefitText = map[[2]CropCategory]string{
	{CategoryCereal, CategoryPulse}:     "Legumes fix nitrogen, reducing fertilizer needs for the next cereal crop",
	{CategoryPulse, CategoryCereal}:     "Cereals utilize nitrogen fixed by the previous legume crop",
	{CategoryCereal, CategoryOilseed}:   "Different root systems improve soil structure",
	{CategoryVegetable, CategoryCereal}: "Rotation breaks pest cycles common in vegetable crops",
	{CategoryCash, CategoryPulse}:       "Legumes restore soil fertility after nutrient-intensive cash crops",
	{CategoryOilseed, CategoryCereal}:   "Oilseeds improve soil organic matter for cereal production",
}

const defaultRotationBenefit = "Crop rotation improves soil health and breaks pest cycles"

const (
	rotationBenefitBeneficial = 3.0
	rotationBenefitNeutral    = 2.0
	rotationBenefitSameGroup  = 1.0

	// Candidates may exceed their soil minimum by this much headroom.
	rotationSoilTolerance = 2.0

	defaultRotationTopN = 5
)

// PlanRotation ranks follow-on crops for the coming season and lays
// out a three-step sequence. The current crop is never its own
// successor, whatever its score.
func (e *Engine) PlanRotation(in RotationInput) (*RotationPlan, error) {
	if in.SoilScore < 0 || in.SoilScore > 10 {
		return nil, invalidInputf("soil score %v outside [0,10]", in.SoilScore)
	}
	switch in.Season {
	case SeasonRabi, SeasonKharif, SeasonSummer:
	default:
		return nil, invalidInputf("season %q is not a planting season", in.Season)
	}
	current, err := e.catalog.Profile(in.CurrentCrop)
	if err != nil {
		return nil, err
	}

	topN := in.TopN
	if topN <= 0 {
		topN = defaultRotationTopN
	}

	var candidates []RotationCandidate
	for _, p := range e.catalog.Profiles() {
		if p.ID == current.ID {
			continue
		}
		if p.Season != in.Season && p.Season != SeasonAnnual {
			continue
		}
		if p.MinSoilScore > in.SoilScore+rotationSoilTolerance {
			continue
		}
		benefit := rotationBenefitNeutral
		switch {
		case containsCategory(beneficialRotations[current.Category], p.Category):
			benefit = rotationBenefitBeneficial
		case p.Category == current.Category:
			benefit = rotationBenefitSameGroup
		}
		soilMatch := clampMax(in.SoilScore-p.MinSoilScore+5, 10)
		candidates = append(candidates, RotationCandidate{
			Crop:             p.ID,
			DisplayName:      p.DisplayName,
			Category:         p.Category,
			SuitabilityScore: round4(benefit*2 + soilMatch),
			RotationBenefit:  benefitText(current.Category, p.Category),
			MinSoilScore:     p.MinSoilScore,
			NitrogenFixing:   p.NitrogenFixing,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].SuitabilityScore != candidates[j].SuitabilityScore {
			return candidates[i].SuitabilityScore > candidates[j].SuitabilityScore
		}
		return candidates[i].Crop < candidates[j].Crop
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	return &RotationPlan{
		CurrentCrop:     current.ID,
		CurrentCategory: current.Category,
		Season:          in.Season,
		SoilScore:       in.SoilScore,
		Candidates:      candidates,
		Plan:            e.buildRotationSteps(current, candidates),
	}, nil
}

func (e *Engine) buildRotationSteps(current CropProfile, candidates []RotationCandidate) []RotationStep {
	steps := []RotationStep{
		{Year: 1, Slot: "current", Crop: current.ID, Purpose: "Current cultivation"},
	}
	if len(candidates) == 0 {
		return steps
	}
	next := candidates[0]
	steps = append(steps, RotationStep{
		Year: 1, Slot: "next", Crop: next.Crop, Purpose: "Recommended rotation crop",
	})

	// Third slot: any crop from a category that follows the second
	// one well, drawn through the injected source so plans vary
	// between calls but stay reproducible under a fixed seed.
	var thirdOptions []CropID
	for _, p := range e.catalog.Profiles() {
		if p.ID == current.ID || p.ID == next.Crop {
			continue
		}
		if containsCategory(beneficialRotations[next.Category], p.Category) {
			thirdOptions = append(thirdOptions, p.ID)
		}
	}
	if len(thirdOptions) > 0 {
		idx := int(e.uniform() * float64(len(thirdOptions)))
		if idx >= len(thirdOptions) {
			idx = len(thirdOptions) - 1
		}
		steps = append(steps, RotationStep{
			Year: 2, Slot: "following", Crop: thirdOptions[idx], Purpose: "Complete rotation cycle",
		})
	}
	return steps
}

// AnalyzeRotation scores a planted or proposed sequence for category
// diversity, nitrogen restoration and pest-cycle breaks.
func (e *Engine) AnalyzeRotation(sequence []CropID) (*RotationAnalysis, error) {
	if len(sequence) < 2 {
		return nil, invalidInputf("rotation sequence needs at least two crops, got %d", len(sequence))
	}

	categories := make([]CropCategory, len(sequence))
	hasFixer := false
	for i, id := range sequence {
		p, err := e.catalog.Profile(id)
		if err != nil {
			return nil, err
		}
		categories[i] = p.Category
		if p.NitrogenFixing {
			hasFixer = true
		}
	}

	unique := make(map[CropCategory]struct{}, len(categories))
	for _, c := range categories {
		unique[c] = struct{}{}
	}
	diversity := clampMax(float64(len(unique))*2.5, 10)

	nitrogen := 3.0
	if hasFixer {
		nitrogen = 8.0
	}

	pest := 8.0
	for i := 0; i < len(categories)-1; i++ {
		if categories[i] == categories[i+1] {
			pest = 3.0
			break
		}
	}

	return &RotationAnalysis{
		DiversityScore:       round4(diversity),
		NitrogenBenefitScore: nitrogen,
		PestControlScore:     pest,
		SustainabilityScore:  round4((diversity + nitrogen + pest) / 3),
		HasNitrogenFixers:    hasFixer,
		Recommendations:      rotationRecommendations(diversity, nitrogen, pest),
	}, nil
}

func rotationRecommendations(diversity, nitrogen, pest float64) []string {
	var recs []string
	if diversity < 6 {
		recs = append(recs, "Include more diverse crop categories in the rotation")
	}
	if nitrogen < 6 {
		recs = append(recs, "Add nitrogen-fixing legumes such as soybean, chickpea or lentil")
	}
	if pest < 6 {
		recs = append(recs, "Avoid growing the same crop category in consecutive seasons")
	}
	if len(recs) == 0 {
		recs = append(recs, "Rotation sequence is well balanced; keep the current plan")
	}
	return recs
}

func benefitText(from, to CropCategory) string {
	if text, ok := rotationBenefitText[[2]CropCategory{from, to}]; ok {
		return text
	}
	return defaultRotationBenefit
}

func containsCategory(list []CropCategory, c CropCategory) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}
