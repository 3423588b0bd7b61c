package agronomy

import (
	"errors"
	"fmt"
)

// Engine error taxonomy. Validation failures and reference-table misses
// surface immediately instead of silently substituting defaults; callers
// branch with errors.Is.
var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrUnknownCrop             = errors.New("unknown crop")
	ErrUnknownGrowthStage      = errors.New("unknown growth stage")
	ErrUnknownSoilTexture      = errors.New("unknown soil texture")
	ErrUnknownIrrigationMethod = errors.New("unknown irrigation method")
)

// Warning is a non-fatal signal attached to an otherwise valid result.
type Warning string

// WarningLowConfidenceForecast is raised when price history is too thin
// to fit a trend and the forecast falls back to the catalog base price.
const WarningLowConfidenceForecast Warning = "low_confidence_forecast"

func invalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func unknownCropf(id CropID) error {
	return fmt.Errorf("%w: %q", ErrUnknownCrop, id)
}

func unknownGrowthStagef(s GrowthStage) error {
	return fmt.Errorf("%w: %q", ErrUnknownGrowthStage, s)
}

func unknownSoilTexturef(t SoilTexture) error {
	return fmt.Errorf("%w: %q", ErrUnknownSoilTexture, t)
}

func unknownIrrigationMethodf(m IrrigationMethod) error {
	return fmt.Errorf("%w: %q", ErrUnknownIrrigationMethod, m)
}
