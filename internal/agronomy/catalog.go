package agronomy

import (
	"fmt"
	"sort"
	"strings"
)

// CropID identifies a crop in the reference catalog.
type CropID string

// Season represents the growing season a crop belongs to.
type Season string

const (
	SeasonRabi   Season = "rabi"
	SeasonKharif Season = "kharif"
	SeasonSummer Season = "summer"
	SeasonAnnual Season = "annual"
)

// CropCategory groups crops for volatility and rotation rules.
type CropCategory string

const (
	CategoryCereal    CropCategory = "cereal"
	CategoryPulse     CropCategory = "pulse"
	CategoryVegetable CropCategory = "vegetable"
	CategoryOilseed   CropCategory = "oilseed"
	CategoryCash      CropCategory = "cash"
)

// GrowthStage represents a discrete phase of crop development.
type GrowthStage string

const (
	StageGermination  GrowthStage = "germination"
	StageVegetative   GrowthStage = "vegetative"
	StageFlowering    GrowthStage = "flowering"
	StageGrainFilling GrowthStage = "grain_filling"
	StageMaturity     GrowthStage = "maturity"
)

// SoilTexture represents the broad textural class of a field's soil.
type SoilTexture string

const (
	TextureSandy   SoilTexture = "sandy"
	TextureLoamy   SoilTexture = "loamy"
	TextureClay    SoilTexture = "clay"
	TextureOrganic SoilTexture = "organic"
)

// IrrigationMethod represents the water application method in use.
type IrrigationMethod string

const (
	MethodFlood     IrrigationMethod = "flood"
	MethodFurrow    IrrigationMethod = "furrow"
	MethodSprinkler IrrigationMethod = "sprinkler"
	MethodDrip      IrrigationMethod = "drip"
	MethodMicro     IrrigationMethod = "micro"
)

// CropProfile holds the baseline agronomic constants for one crop.
// Profiles are immutable once loaded; every model reads from them and
// none may run for a crop that has no profile.
type CropProfile struct {
	ID          CropID       `json:"id"`
	DisplayName string       `json:"display_name"`
	Season      Season       `json:"season"`
	Category    CropCategory `json:"category"`

	// Yield baseline and soil ideals.
	BaseYieldTonnesPerHa float64 `json:"base_yield_tonnes_per_ha"`
	IdealPH              float64 `json:"ideal_ph"`
	IdealNitrogen        float64 `json:"ideal_nitrogen"`       // mg/kg
	IdealPhosphorus      float64 `json:"ideal_phosphorus"`     // mg/kg
	IdealPotassium       float64 `json:"ideal_potassium"`      // mg/kg
	IdealOrganicMatter   float64 `json:"ideal_organic_matter"` // percent

	// Lowest soil quality score the crop tolerates, used by the
	// rotation planner.
	MinSoilScore float64 `json:"min_soil_score"`

	// NitrogenFixing marks legumes and other crops that restore soil
	// nitrogen. Pulses fix nitrogen, and so do the legume oilseeds
	// soybean and groundnut.
	NitrogenFixing bool `json:"nitrogen_fixing,omitempty"`

	// Weather response.
	TempMinC            float64 `json:"temp_min_c"`
	TempMaxC            float64 `json:"temp_max_c"`
	ReferenceRainfallMm float64 `json:"reference_rainfall_mm"` // season total

	// Fertilizer reference application rates, kg/ha.
	FertilizerRefN float64 `json:"fertilizer_ref_n"`
	FertilizerRefP float64 `json:"fertilizer_ref_p"`
	FertilizerRefK float64 `json:"fertilizer_ref_k"`

	// Water demand.
	BaseWaterNeedMmPerDay float64 `json:"base_water_need_mm_per_day"`

	// Market baseline.
	BasePricePerQuintal  float64     `json:"base_price_per_quintal"`
	CultivationCostPerHa float64     `json:"cultivation_cost_per_ha"`
	PriceVolatility      float64     `json:"price_volatility"`
	SeasonalPattern      [12]float64 `json:"seasonal_pattern"` // Jan..Dec multipliers
}

// Catalog is the immutable crop reference table. It is loaded once at
// startup and shared read-only between all engine operations.
type Catalog struct {
	profiles map[CropID]CropProfile
}

// NewCatalog builds a catalog from the given profiles. Every profile is
// checked for completeness; a crop with a missing or non-positive
// constant would poison every downstream model, so construction fails
// instead.
func NewCatalog(profiles []CropProfile) (*Catalog, error) {
	m := make(map[CropID]CropProfile, len(profiles))
	for _, p := range profiles {
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.ID, err)
		}
		if _, dup := m[p.ID]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.ID)
		}
		m[p.ID] = p
	}
	return &Catalog{profiles: m}, nil
}

// DefaultCatalog returns a catalog seeded with the built-in reference
// table. The built-in table is validated at package init, so the error
// path only fires if the seed data itself is broken.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(seedProfiles())
	if err != nil {
		panic(fmt.Sprintf("agronomy: built-in catalog invalid: %v", err))
	}
	return c
}

// Profile looks up the profile for a crop.
func (c *Catalog) Profile(id CropID) (CropProfile, error) {
	p, ok := c.profiles[id]
	if !ok {
		return CropProfile{}, unknownCropf(id)
	}
	return p, nil
}

// Has reports whether the catalog contains a profile for the crop.
func (c *Catalog) Has(id CropID) bool {
	_, ok := c.profiles[id]
	return ok
}

// Profiles returns all profiles sorted by ID.
func (c *Catalog) Profiles() []CropProfile {
	out := make([]CropProfile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of profiles in the catalog.
func (c *Catalog) Len() int { return len(c.profiles) }

func validateProfile(p CropProfile) error {
	if p.ID == "" {
		return fmt.Errorf("empty id")
	}
	if p.DisplayName == "" {
		return fmt.Errorf("empty display name")
	}
	positives := map[string]float64{
		"base yield":           p.BaseYieldTonnesPerHa,
		"ideal pH":             p.IdealPH,
		"ideal nitrogen":       p.IdealNitrogen,
		"ideal phosphorus":     p.IdealPhosphorus,
		"ideal potassium":      p.IdealPotassium,
		"ideal organic matter": p.IdealOrganicMatter,
		"reference rainfall":   p.ReferenceRainfallMm,
		"fertilizer ref N":     p.FertilizerRefN,
		"fertilizer ref P":     p.FertilizerRefP,
		"fertilizer ref K":     p.FertilizerRefK,
		"base water need":      p.BaseWaterNeedMmPerDay,
		"base price":           p.BasePricePerQuintal,
		"cultivation cost":     p.CultivationCostPerHa,
		"price volatility":     p.PriceVolatility,
	}
	for name, v := range positives {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}
	if p.MinSoilScore < 0 || p.MinSoilScore > 10 {
		return fmt.Errorf("min soil score %v outside [0,10]", p.MinSoilScore)
	}
	if p.TempMaxC <= p.TempMinC {
		return fmt.Errorf("temperature range [%v,%v] inverted", p.TempMinC, p.TempMaxC)
	}
	for i, m := range p.SeasonalPattern {
		if m <= 0 {
			return fmt.Errorf("seasonal pattern month %d must be positive, got %v", i+1, m)
		}
	}
	switch p.Season {
	case SeasonRabi, SeasonKharif, SeasonSummer, SeasonAnnual:
	default:
		return fmt.Errorf("unknown season %q", p.Season)
	}
	switch p.Category {
	case CategoryCereal, CategoryPulse, CategoryVegetable, CategoryOilseed, CategoryCash:
	default:
		return fmt.Errorf("unknown category %q", p.Category)
	}
	return nil
}

// ParseGrowthStage converts a string to a GrowthStage. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseGrowthStage(s string) (GrowthStage, error) {
	switch stage := GrowthStage(normalizeToken(s)); stage {
	case StageGermination, StageVegetative, StageFlowering, StageGrainFilling, StageMaturity:
		return stage, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGrowthStage, s)
}

// ParseSoilTexture converts a string to a SoilTexture.
func ParseSoilTexture(s string) (SoilTexture, error) {
	switch texture := SoilTexture(normalizeToken(s)); texture {
	case TextureSandy, TextureLoamy, TextureClay, TextureOrganic:
		return texture, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSoilTexture, s)
}

// ParseIrrigationMethod converts a string to an IrrigationMethod.
func ParseIrrigationMethod(s string) (IrrigationMethod, error) {
	switch method := IrrigationMethod(normalizeToken(s)); method {
	case MethodFlood, MethodFurrow, MethodSprinkler, MethodDrip, MethodMicro:
		return method, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIrrigationMethod, s)
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
