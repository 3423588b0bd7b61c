// Package agronomy implements the decision models behind the farm
// portal: soil quality scoring, yield forecasting, irrigation
// scheduling, market price projection and crop rotation planning. All
// models are pure computations over the crop reference catalog; they
// hold no connections and persist nothing.
package agronomy

import (
	"math"
	"math/rand/v2"
	"time"
)

// Engine bundles the decision models over a shared crop catalog.
// Randomness and wall-clock time are injected so callers can pin both
// and get bit-identical outputs.
type Engine struct {
	catalog *Catalog
	uniform func() float64 // uniform draw in [0,1)
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithUniformSource replaces the stochastic source. The function must
// return draws in [0,1); a constant 0.5 makes the yield variability
// factor exactly 1.0.
func WithUniformSource(f func() float64) Option {
	return func(e *Engine) { e.uniform = f }
}

// WithClock replaces the reference-date source used by the market
// forecaster.
func WithClock(f func() time.Time) Option {
	return func(e *Engine) { e.now = f }
}

// NewEngine builds an engine over the given catalog. A nil catalog
// falls back to the built-in reference table.
func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	e := &Engine{
		catalog: catalog,
		uniform: rand.Float64,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog exposes the reference table the engine was built over.
func (e *Engine) Catalog() *Catalog { return e.catalog }

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampMin(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

func clampMax(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

func abs(v float64) float64 {
	return math.Abs(v)
}

// round4 keeps reported values stable across platforms without
// dragging float noise into API responses.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
