package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// CropProfileRecord is the persisted form of a catalog profile. The
// monthly seasonal pattern is kept as a JSON column so the record
// stays portable between Postgres and SQLite.
type CropProfileRecord struct {
	ID          string `gorm:"primaryKey" json:"id"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Season      string `gorm:"not null;index" json:"season"`
	Category    string `gorm:"not null;index" json:"category"`

	BaseYieldTonnesPerHa float64 `gorm:"not null" json:"base_yield_tonnes_per_ha"`
	IdealPH              float64 `gorm:"not null" json:"ideal_ph"`
	IdealNitrogen        float64 `gorm:"not null" json:"ideal_nitrogen"`
	IdealPhosphorus      float64 `gorm:"not null" json:"ideal_phosphorus"`
	IdealPotassium       float64 `gorm:"not null" json:"ideal_potassium"`
	IdealOrganicMatter   float64 `gorm:"not null" json:"ideal_organic_matter"`
	MinSoilScore         float64 `gorm:"not null" json:"min_soil_score"`
	NitrogenFixing       bool    `gorm:"not null;default:false" json:"nitrogen_fixing"`

	TempMinC            float64 `gorm:"not null" json:"temp_min_c"`
	TempMaxC            float64 `gorm:"not null" json:"temp_max_c"`
	ReferenceRainfallMm float64 `gorm:"not null" json:"reference_rainfall_mm"`

	FertilizerRefN float64 `gorm:"not null" json:"fertilizer_ref_n"`
	FertilizerRefP float64 `gorm:"not null" json:"fertilizer_ref_p"`
	FertilizerRefK float64 `gorm:"not null" json:"fertilizer_ref_k"`

	BaseWaterNeedMmPerDay float64        `gorm:"not null" json:"base_water_need_mm_per_day"`
	BasePricePerQuintal   float64        `gorm:"not null" json:"base_price_per_quintal"`
	CultivationCostPerHa  float64        `gorm:"not null" json:"cultivation_cost_per_ha"`
	PriceVolatility       float64        `gorm:"not null" json:"price_volatility"`
	SeasonalPattern       datatypes.JSON `gorm:"type:json" json:"seasonal_pattern"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for CropProfileRecord
func (CropProfileRecord) TableName() string {
	return "crop_profiles"
}

func recordFromProfile(p agronomy.CropProfile) (CropProfileRecord, error) {
	pattern, err := json.Marshal(p.SeasonalPattern)
	if err != nil {
		return CropProfileRecord{}, fmt.Errorf("marshal seasonal pattern: %w", err)
	}
	return CropProfileRecord{
		ID:                    string(p.ID),
		DisplayName:           p.DisplayName,
		Season:                string(p.Season),
		Category:              string(p.Category),
		BaseYieldTonnesPerHa:  p.BaseYieldTonnesPerHa,
		IdealPH:               p.IdealPH,
		IdealNitrogen:         p.IdealNitrogen,
		IdealPhosphorus:       p.IdealPhosphorus,
		IdealPotassium:        p.IdealPotassium,
		IdealOrganicMatter:    p.IdealOrganicMatter,
		MinSoilScore:          p.MinSoilScore,
		NitrogenFixing:        p.NitrogenFixing,
		TempMinC:              p.TempMinC,
		TempMaxC:              p.TempMaxC,
		ReferenceRainfallMm:   p.ReferenceRainfallMm,
		FertilizerRefN:        p.FertilizerRefN,
		FertilizerRefP:        p.FertilizerRefP,
		FertilizerRefK:        p.FertilizerRefK,
		BaseWaterNeedMmPerDay: p.BaseWaterNeedMmPerDay,
		BasePricePerQuintal:   p.BasePricePerQuintal,
		CultivationCostPerHa:  p.CultivationCostPerHa,
		PriceVolatility:       p.PriceVolatility,
		SeasonalPattern:       datatypes.JSON(pattern),
	}, nil
}

func (r CropProfileRecord) toProfile() (agronomy.CropProfile, error) {
	var pattern [12]float64
	if err := json.Unmarshal(r.SeasonalPattern, &pattern); err != nil {
		return agronomy.CropProfile{}, fmt.Errorf("unmarshal seasonal pattern for %q: %w", r.ID, err)
	}
	return agronomy.CropProfile{
		ID:                    agronomy.CropID(r.ID),
		DisplayName:           r.DisplayName,
		Season:                agronomy.Season(r.Season),
		Category:              agronomy.CropCategory(r.Category),
		BaseYieldTonnesPerHa:  r.BaseYieldTonnesPerHa,
		IdealPH:               r.IdealPH,
		IdealNitrogen:         r.IdealNitrogen,
		IdealPhosphorus:       r.IdealPhosphorus,
		IdealPotassium:        r.IdealPotassium,
		IdealOrganicMatter:    r.IdealOrganicMatter,
		MinSoilScore:          r.MinSoilScore,
		NitrogenFixing:        r.NitrogenFixing,
		TempMinC:              r.TempMinC,
		TempMaxC:              r.TempMaxC,
		ReferenceRainfallMm:   r.ReferenceRainfallMm,
		FertilizerRefN:        r.FertilizerRefN,
		FertilizerRefP:        r.FertilizerRefP,
		FertilizerRefK:        r.FertilizerRefK,
		BaseWaterNeedMmPerDay: r.BaseWaterNeedMmPerDay,
		BasePricePerQuintal:   r.BasePricePerQuintal,
		CultivationCostPerHa:  r.CultivationCostPerHa,
		PriceVolatility:       r.PriceVolatility,
		SeasonalPattern:       pattern,
	}, nil
}
