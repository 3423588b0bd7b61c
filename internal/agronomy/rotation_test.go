package agronomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRotationAfterWheat(t *testing.T) {
	e := newTestEngine(0)

	plan, err := e.PlanRotation(RotationInput{
		CurrentCrop: "wheat",
		SoilScore:   7.5,
		Season:      SeasonRabi,
	})
	require.NoError(t, err)

	assert.Equal(t, CategoryCereal, plan.CurrentCategory)
	require.NotEmpty(t, plan.Candidates)

	for _, c := range plan.Candidates {
		assert.NotEqual(t, CropID("wheat"), c.Crop, "current crop must never be suggested")
	}

	// Mustard clears both the benefit and soil-match criteria.
	assert.Equal(t, CropID("mustard"), plan.Candidates[0].Crop)
	assert.Len(t, plan.Candidates, 5)

	require.Len(t, plan.Plan, 3)
	assert.Equal(t, "current", plan.Plan[0].Slot)
	assert.Equal(t, CropID("wheat"), plan.Plan[0].Crop)
	assert.Equal(t, CropID("mustard"), plan.Plan[1].Crop)
	assert.Equal(t, 2, plan.Plan[2].Year)
}

func TestPlanRotationSeasonFilter(t *testing.T) {
	e := newTestEngine(0)

	plan, err := e.PlanRotation(RotationInput{
		CurrentCrop: "rice",
		SoilScore:   7,
		Season:      SeasonKharif,
	})
	require.NoError(t, err)

	catalog := e.Catalog()
	for _, c := range plan.Candidates {
		p, err := catalog.Profile(c.Crop)
		require.NoError(t, err)
		assert.Contains(t, []Season{SeasonKharif, SeasonAnnual}, p.Season,
			"%s does not plant in kharif", c.Crop)
	}
}

func TestPlanRotationBeneficialCategoriesRankHigher(t *testing.T) {
	e := newTestEngine(0)

	plan, err := e.PlanRotation(RotationInput{
		CurrentCrop: "wheat",
		SoilScore:   7.5,
		Season:      SeasonRabi,
		TopN:        17,
	})
	require.NoError(t, err)

	scores := map[CropID]float64{}
	for _, c := range plan.Candidates {
		scores[c.Crop] = c.SuitabilityScore
	}
	// Chickpea (pulse) over barley (another cereal) at equal soil
	// headroom margins.
	assert.Greater(t, scores["chickpea"], scores["barley"])
}

func TestPlanRotationPoorSoilHasNoCandidates(t *testing.T) {
	e := newTestEngine(0)

	plan, err := e.PlanRotation(RotationInput{
		CurrentCrop: "wheat",
		SoilScore:   0,
		Season:      SeasonRabi,
	})
	require.NoError(t, err)
	assert.Empty(t, plan.Candidates)
	require.Len(t, plan.Plan, 1)
	assert.Equal(t, "current", plan.Plan[0].Slot)
}

func TestPlanRotationDeterministicUnderFixedDraw(t *testing.T) {
	in := RotationInput{CurrentCrop: "wheat", SoilScore: 7.5, Season: SeasonRabi}

	a, err := newTestEngine(0.42).PlanRotation(in)
	require.NoError(t, err)
	b, err := newTestEngine(0.42).PlanRotation(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPlanRotationValidation(t *testing.T) {
	e := newTestEngine(0)

	_, err := e.PlanRotation(RotationInput{CurrentCrop: "wheat", SoilScore: 11, Season: SeasonRabi})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.PlanRotation(RotationInput{CurrentCrop: "wheat", SoilScore: 7, Season: "monsoon"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.PlanRotation(RotationInput{CurrentCrop: "unknown_crop", SoilScore: 7, Season: SeasonRabi})
	assert.ErrorIs(t, err, ErrUnknownCrop)
}

func TestAnalyzeRotationBalancedSequence(t *testing.T) {
	e := newTestEngine(0)

	analysis, err := e.AnalyzeRotation([]CropID{"wheat", "chickpea", "maize"})
	require.NoError(t, err)

	assert.InDelta(t, 5.0, analysis.DiversityScore, 1e-9)
	assert.Equal(t, 8.0, analysis.NitrogenBenefitScore)
	assert.Equal(t, 8.0, analysis.PestControlScore)
	assert.InDelta(t, 7.0, analysis.SustainabilityScore, 1e-9)
	assert.True(t, analysis.HasNitrogenFixers)
}

func TestAnalyzeRotationMonoculturePenalties(t *testing.T) {
	e := newTestEngine(0)

	analysis, err := e.AnalyzeRotation([]CropID{"wheat", "barley"})
	require.NoError(t, err)

	assert.InDelta(t, 2.5, analysis.DiversityScore, 1e-9)
	assert.Equal(t, 3.0, analysis.NitrogenBenefitScore)
	assert.Equal(t, 3.0, analysis.PestControlScore)
	assert.False(t, analysis.HasNitrogenFixers)
	assert.Len(t, analysis.Recommendations, 3)
}

func TestAnalyzeRotationSoybeanCountsAsFixer(t *testing.T) {
	e := newTestEngine(0)

	analysis, err := e.AnalyzeRotation([]CropID{"maize", "soybean", "potato"})
	require.NoError(t, err)
	assert.True(t, analysis.HasNitrogenFixers)
	assert.Equal(t, 8.0, analysis.NitrogenBenefitScore)
}

func TestAnalyzeRotationValidation(t *testing.T) {
	e := newTestEngine(0)

	_, err := e.AnalyzeRotation([]CropID{"wheat"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.AnalyzeRotation([]CropID{"wheat", "quinoa"})
	assert.ErrorIs(t, err, ErrUnknownCrop)
}
