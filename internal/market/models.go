package market

import (
	"time"

	"github.com/google/uuid"
)

// Price is one observed mandi quote for a crop. Rows are append-only;
// the forecaster reads them, nothing rewrites them.
type Price struct {
	ID              uuid.UUID `db:"id" json:"id"`
	CropID          string    `db:"crop_id" json:"crop_id"`
	Market          string    `db:"market" json:"market"`
	PricePerQuintal float64   `db:"price_per_quintal" json:"price_per_quintal"`
	RecordedAt      time.Time `db:"recorded_at" json:"recorded_at"`
	Source          string    `db:"source" json:"source,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// PriceFilters narrows price listings.
type PriceFilters struct {
	CropID         *string
	Market         *string
	RecordedAfter  *time.Time
	RecordedBefore *time.Time
	Page           int
	PageSize       int
}

// PriceStats summarizes observed quotes over a window.
type PriceStats struct {
	CropID       string     `json:"crop_id"`
	Observations int        `json:"observations"`
	MinPrice     float64    `json:"min_price"`
	MaxPrice     float64    `json:"max_price"`
	AvgPrice     float64    `json:"avg_price"`
	FirstAt      *time.Time `json:"first_at,omitempty"`
	LastAt       *time.Time `json:"last_at,omitempty"`
}

// RecordPriceRequest is the payload for ingesting a single quote.
type RecordPriceRequest struct {
	CropID          string     `json:"crop_id" binding:"required"`
	Market          string     `json:"market" binding:"required"`
	PricePerQuintal float64    `json:"price_per_quintal" binding:"required"`
	RecordedAt      *time.Time `json:"recorded_at,omitempty"`
	Source          string     `json:"source,omitempty"`
}

// ForecastRequest asks for a price curve over the stored history.
type ForecastRequest struct {
	CropID      string `json:"crop_id" binding:"required"`
	HorizonDays int    `json:"horizon_days" binding:"required"`
}

// ProfitRequest asks for a harvest-revenue estimate over the stored
// history.
type ProfitRequest struct {
	CropID                   string  `json:"crop_id" binding:"required"`
	HarvestInDays            int     `json:"harvest_in_days"`
	ExpectedYieldTonnesPerHa float64 `json:"expected_yield_tonnes_per_ha" binding:"required"`
	AreaHectares             float64 `json:"area_hectares" binding:"required"`
	CostPerHaOverride        float64 `json:"cost_per_ha_override,omitempty"`
}
