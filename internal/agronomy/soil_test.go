package agronomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreSoilWheatReferenceSample(t *testing.T) {
	e := newTestEngine(0.5)

	report, err := e.ScoreSoil(SoilScoreInput{
		Crop: "wheat",
		Sample: SoilSample{
			PH: 6.5, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 2.5,
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 10.0, report.SubScores.PH, 1e-9)
	assert.InDelta(t, 4.0, report.SubScores.Nitrogen, 1e-9)
	assert.InDelta(t, 8.0, report.SubScores.Phosphorus, 1e-9)
	assert.InDelta(t, 7.5, report.SubScores.Potassium, 1e-9)
	assert.InDelta(t, 5.0, report.SubScores.OrganicMatter, 1e-9)
	assert.InDelta(t, 7.0, report.Score, 1e-9)
	assert.Equal(t, GradeGood, report.Grade)
}

func TestScoreSoilIdealSampleScoresTen(t *testing.T) {
	e := newTestEngine(0.5)
	p, err := e.Catalog().Profile("wheat")
	require.NoError(t, err)

	report, err := e.ScoreSoil(SoilScoreInput{
		Crop: "wheat",
		Sample: SoilSample{
			PH:                   p.IdealPH,
			Nitrogen:             p.IdealNitrogen,
			Phosphorus:           p.IdealPhosphorus,
			Potassium:            p.IdealPotassium,
			OrganicMatterPercent: p.IdealOrganicMatter,
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, report.Score, 1e-9)
	assert.Equal(t, GradeExcellent, report.Grade)
}

func TestScoreSoilDefaultIdealsWhenCropOmitted(t *testing.T) {
	e := newTestEngine(0.5)

	report, err := e.ScoreSoil(SoilScoreInput{
		Sample: SoilSample{
			PH: 6.5, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 5,
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, report.Score, 1e-9)
	assert.Empty(t, report.Crop)
}

// Nitrogen below the ideal scores strictly higher with each increase;
// above the ideal the sub-score stays capped instead of penalizing.
func TestScoreSoilNitrogenMonotonicThenCapped(t *testing.T) {
	e := newTestEngine(0.5)

	score := func(n float64) float64 {
		report, err := e.ScoreSoil(SoilScoreInput{
			Crop: "wheat",
			Sample: SoilSample{
				PH: 6.5, Nitrogen: n, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 2.5,
			},
		})
		require.NoError(t, err)
		return report.SubScores.Nitrogen
	}

	prev := score(0)
	for _, n := range []float64{20, 60, 100, 125} {
		cur := score(n)
		assert.Greater(t, cur, prev, "nitrogen %v should score higher", n)
		prev = cur
	}
	assert.Equal(t, score(125), score(200), "excess nitrogen does not raise the sub-score")
	assert.Equal(t, score(125), score(500))
}

func TestScoreSoilValidation(t *testing.T) {
	e := newTestEngine(0.5)

	cases := []struct {
		name   string
		sample SoilSample
	}{
		{"negative pH", SoilSample{PH: -1, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 2}},
		{"pH above 14", SoilSample{PH: 14.5, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 2}},
		{"negative nitrogen", SoilSample{PH: 6.5, Nitrogen: -10, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 2}},
		{"negative phosphorus", SoilSample{PH: 6.5, Nitrogen: 50, Phosphorus: -1, Potassium: 300, OrganicMatterPercent: 2}},
		{"negative potassium", SoilSample{PH: 6.5, Nitrogen: 50, Phosphorus: 40, Potassium: -5, OrganicMatterPercent: 2}},
		{"negative organic matter", SoilSample{PH: 6.5, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: -0.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.ScoreSoil(SoilScoreInput{Sample: tc.sample})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := e.ScoreSoil(SoilScoreInput{
		Crop:   "unknown_crop",
		Sample: SoilSample{PH: 6.5, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 2},
	})
	assert.ErrorIs(t, err, ErrUnknownCrop)
}

func TestScoreSoilRecommendations(t *testing.T) {
	e := newTestEngine(0.5)

	report, err := e.ScoreSoil(SoilScoreInput{
		Sample: SoilSample{PH: 5.2, Nitrogen: 20, Phosphorus: 15, Potassium: 150, OrganicMatterPercent: 1.5},
	})
	require.NoError(t, err)

	joined := ""
	for _, r := range report.Recommendations {
		joined += r + "\n"
	}
	assert.Contains(t, joined, "lime")
	assert.Contains(t, joined, "urea")
	assert.Contains(t, joined, "DAP")
	assert.Contains(t, joined, "potash")
	assert.Contains(t, joined, "compost")

	alkaline, err := e.ScoreSoil(SoilScoreInput{
		Sample: SoilSample{PH: 8.2, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 5},
	})
	require.NoError(t, err)
	assert.Contains(t, alkaline.Recommendations[0], "sulfur")
}

func TestScoreSoilSuitableCropBands(t *testing.T) {
	e := newTestEngine(0.5)

	excellent, err := e.ScoreSoil(SoilScoreInput{
		Sample: SoilSample{PH: 6.5, Nitrogen: 50, Phosphorus: 40, Potassium: 300, OrganicMatterPercent: 5},
	})
	require.NoError(t, err)
	assert.Contains(t, excellent.SuitableCrops, CropID("rice"))

	// A barren sample scores below every suitability band.
	barren, err := e.ScoreSoil(SoilScoreInput{
		Sample: SoilSample{PH: 10.5, Nitrogen: 2, Phosphorus: 1, Potassium: 10, OrganicMatterPercent: 0.1},
	})
	require.NoError(t, err)
	assert.Empty(t, barren.SuitableCrops)
	assert.Equal(t, GradeVeryPoor, barren.Grade)
}
