// Package export renders field advisory bundles as CSV, Excel and PDF
// documents. Renderers take a completed Document and return bytes; they
// never talk to the database or the models.
package export

import (
	"time"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// Document is the renderer-independent advisory bundle. Sections left
// nil are omitted from the output.
type Document struct {
	FieldName    string
	Village      string
	Crop         string
	AreaHectares float64
	GeneratedAt  time.Time

	Soil       *agronomy.SoilReport
	Yield      *agronomy.YieldForecast
	Irrigation *agronomy.IrrigationAdvice
	Prices     *agronomy.PriceForecast
	Profit     *agronomy.ProfitEstimate
	Rotation   *agronomy.RotationPlan
}

// Title is the heading shared by all renderers.
const Title = "Field Advisory Report"
