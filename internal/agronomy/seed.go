package agronomy

// Built-in crop reference table. Values are decision-support baselines,
// not field-trial calibrations: base yields in t/ha, soil ideals in
// mg/kg (organic matter in percent), rainfall as season totals, water
// need as peak daily ET, prices per quintal.

// Monthly price multipliers, January through December. Rabi crops dip
// at the spring harvest glut, kharif crops at the autumn one;
// vegetables follow storage cycles.
var (
	rabiPattern      = [12]float64{1.10, 1.10, 1.00, 0.90, 0.80, 0.80, 0.90, 1.00, 1.10, 1.20, 1.20, 1.10}
	kharifPattern    = [12]float64{1.10, 1.20, 1.20, 1.10, 1.00, 0.90, 0.90, 1.00, 1.00, 0.80, 0.80, 1.00}
	vegetablePattern = [12]float64{0.80, 0.80, 0.90, 1.00, 1.10, 1.20, 1.20, 1.10, 1.00, 0.90, 0.90, 0.80}
	summerPattern    = [12]float64{0.90, 0.90, 1.00, 1.10, 1.20, 1.30, 1.30, 1.20, 1.00, 0.90, 0.80, 0.90}
	flatPattern      = [12]float64{1.00, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00}
)

// Category volatility: vegetables swing hardest, cereals are steadied
// by procurement floors.
const (
	volatilityCereal    = 0.08
	volatilityPulse     = 0.12
	volatilityVegetable = 0.15
	volatilityOilseed   = 0.11
	volatilityCash      = 0.10
)

func seedProfiles() []CropProfile {
	return []CropProfile{
		{
			ID: "wheat", DisplayName: "Wheat", Season: SeasonRabi, Category: CategoryCereal,
			BaseYieldTonnesPerHa: 4.5,
			IdealPH:              6.5, IdealNitrogen: 125, IdealPhosphorus: 50, IdealPotassium: 400, IdealOrganicMatter: 5,
			MinSoilScore: 6,
			TempMinC:     15, TempMaxC: 25, ReferenceRainfallMm: 500,
			FertilizerRefN: 100, FertilizerRefP: 50, FertilizerRefK: 50,
			BaseWaterNeedMmPerDay: 4.5,
			BasePricePerQuintal:   2200, CultivationCostPerHa: 35000,
			PriceVolatility: volatilityCereal, SeasonalPattern: rabiPattern,
		},
		{
			ID: "rice", DisplayName: "Rice (Paddy)", Season: SeasonKharif, Category: CategoryCereal,
			BaseYieldTonnesPerHa: 3.8,
			IdealPH:              6.0, IdealNitrogen: 100, IdealPhosphorus: 45, IdealPotassium: 350, IdealOrganicMatter: 4.5,
			MinSoilScore: 7,
			TempMinC:     20, TempMaxC: 35, ReferenceRainfallMm: 1200,
			FertilizerRefN: 120, FertilizerRefP: 60, FertilizerRefK: 60,
			BaseWaterNeedMmPerDay: 8.0,
			BasePricePerQuintal:   2800, CultivationCostPerHa: 45000,
			PriceVolatility: volatilityCereal, SeasonalPattern: kharifPattern,
		},
		{
			ID: "maize", DisplayName: "Maize", Season: SeasonKharif, Category: CategoryCereal,
			BaseYieldTonnesPerHa: 5.2,
			IdealPH:              6.2, IdealNitrogen: 140, IdealPhosphorus: 60, IdealPotassium: 380, IdealOrganicMatter: 5,
			MinSoilScore: 6,
			TempMinC:     18, TempMaxC: 30, ReferenceRainfallMm: 700,
			FertilizerRefN: 120, FertilizerRefP: 60, FertilizerRefK: 50,
			BaseWaterNeedMmPerDay: 6.0,
			BasePricePerQuintal:   1900, CultivationCostPerHa: 38000,
			PriceVolatility: volatilityCereal, SeasonalPattern: kharifPattern,
		},
		{
			ID: "barley", DisplayName: "Barley", Season: SeasonRabi, Category: CategoryCereal,
			BaseYieldTonnesPerHa: 3.5,
			IdealPH:              6.8, IdealNitrogen: 110, IdealPhosphorus: 45, IdealPotassium: 350, IdealOrganicMatter: 4,
			MinSoilScore: 5,
			TempMinC:     12, TempMaxC: 25, ReferenceRainfallMm: 450,
			FertilizerRefN: 80, FertilizerRefP: 40, FertilizerRefK: 40,
			BaseWaterNeedMmPerDay: 4.0,
			BasePricePerQuintal:   1800, CultivationCostPerHa: 30000,
			PriceVolatility: volatilityCereal, SeasonalPattern: rabiPattern,
		},
		{
			ID: "millet", DisplayName: "Pearl Millet", Season: SeasonKharif, Category: CategoryCereal,
			BaseYieldTonnesPerHa: 2.8,
			IdealPH:              6.5, IdealNitrogen: 80, IdealPhosphorus: 35, IdealPotassium: 280, IdealOrganicMatter: 3.5,
			MinSoilScore: 4,
			TempMinC:     20, TempMaxC: 35, ReferenceRainfallMm: 400,
			FertilizerRefN: 60, FertilizerRefP: 30, FertilizerRefK: 30,
			BaseWaterNeedMmPerDay: 3.5,
			BasePricePerQuintal:   2500, CultivationCostPerHa: 25000,
			PriceVolatility: volatilityCereal, SeasonalPattern: kharifPattern,
		},
		{
			ID: "soybean", DisplayName: "Soybean", Season: SeasonKharif, Category: CategoryOilseed,
			BaseYieldTonnesPerHa: 2.5,
			IdealPH:              6.5, IdealNitrogen: 60, IdealPhosphorus: 55, IdealPotassium: 380, IdealOrganicMatter: 4.5,
			MinSoilScore: 6, NitrogenFixing: true,
			TempMinC: 20, TempMaxC: 30, ReferenceRainfallMm: 600,
			FertilizerRefN: 30, FertilizerRefP: 60, FertilizerRefK: 40,
			BaseWaterNeedMmPerDay: 5.5,
			BasePricePerQuintal:   4200, CultivationCostPerHa: 32000,
			PriceVolatility: volatilityOilseed, SeasonalPattern: kharifPattern,
		},
		{
			ID: "chickpea", DisplayName: "Chickpea", Season: SeasonRabi, Category: CategoryPulse,
			BaseYieldTonnesPerHa: 1.8,
			IdealPH:              7.0, IdealNitrogen: 50, IdealPhosphorus: 45, IdealPotassium: 320, IdealOrganicMatter: 4,
			MinSoilScore: 6, NitrogenFixing: true,
			TempMinC: 10, TempMaxC: 25, ReferenceRainfallMm: 400,
			FertilizerRefN: 20, FertilizerRefP: 50, FertilizerRefK: 30,
			BaseWaterNeedMmPerDay: 3.0,
			BasePricePerQuintal:   5000, CultivationCostPerHa: 28000,
			PriceVolatility: volatilityPulse, SeasonalPattern: rabiPattern,
		},
		{
			ID: "lentil", DisplayName: "Lentil", Season: SeasonRabi, Category: CategoryPulse,
			BaseYieldTonnesPerHa: 1.5,
			IdealPH:              6.8, IdealNitrogen: 45, IdealPhosphorus: 40, IdealPotassium: 300, IdealOrganicMatter: 4,
			MinSoilScore: 6, NitrogenFixing: true,
			TempMinC: 10, TempMaxC: 25, ReferenceRainfallMm: 350,
			FertilizerRefN: 20, FertilizerRefP: 40, FertilizerRefK: 25,
			BaseWaterNeedMmPerDay: 2.5,
			BasePricePerQuintal:   5500, CultivationCostPerHa: 27000,
			PriceVolatility: volatilityPulse, SeasonalPattern: rabiPattern,
		},
		{
			ID: "groundnut", DisplayName: "Groundnut", Season: SeasonKharif, Category: CategoryOilseed,
			BaseYieldTonnesPerHa: 2.2,
			IdealPH:              6.3, IdealNitrogen: 55, IdealPhosphorus: 50, IdealPotassium: 340, IdealOrganicMatter: 4,
			MinSoilScore: 5, NitrogenFixing: true,
			TempMinC: 20, TempMaxC: 32, ReferenceRainfallMm: 550,
			FertilizerRefN: 25, FertilizerRefP: 50, FertilizerRefK: 45,
			BaseWaterNeedMmPerDay: 4.5,
			BasePricePerQuintal:   5800, CultivationCostPerHa: 36000,
			PriceVolatility: volatilityOilseed, SeasonalPattern: kharifPattern,
		},
		{
			ID: "potato", DisplayName: "Potato", Season: SeasonRabi, Category: CategoryVegetable,
			BaseYieldTonnesPerHa: 25.0,
			IdealPH:              5.8, IdealNitrogen: 150, IdealPhosphorus: 80, IdealPotassium: 450, IdealOrganicMatter: 5.5,
			MinSoilScore: 6,
			TempMinC:     15, TempMaxC: 25, ReferenceRainfallMm: 550,
			FertilizerRefN: 150, FertilizerRefP: 80, FertilizerRefK: 100,
			BaseWaterNeedMmPerDay: 5.0,
			BasePricePerQuintal:   1200, CultivationCostPerHa: 90000,
			PriceVolatility: volatilityVegetable, SeasonalPattern: vegetablePattern,
		},
		{
			ID: "tomato", DisplayName: "Tomato", Season: SeasonSummer, Category: CategoryVegetable,
			BaseYieldTonnesPerHa: 30.0,
			IdealPH:              6.3, IdealNitrogen: 160, IdealPhosphorus: 85, IdealPotassium: 480, IdealOrganicMatter: 5.5,
			MinSoilScore: 7,
			TempMinC:     18, TempMaxC: 30, ReferenceRainfallMm: 600,
			FertilizerRefN: 150, FertilizerRefP: 80, FertilizerRefK: 80,
			BaseWaterNeedMmPerDay: 6.5,
			BasePricePerQuintal:   1500, CultivationCostPerHa: 110000,
			PriceVolatility: volatilityVegetable, SeasonalPattern: summerPattern,
		},
		{
			ID: "onion", DisplayName: "Onion", Season: SeasonRabi, Category: CategoryVegetable,
			BaseYieldTonnesPerHa: 20.0,
			IdealPH:              6.5, IdealNitrogen: 130, IdealPhosphorus: 70, IdealPotassium: 420, IdealOrganicMatter: 5,
			MinSoilScore: 6,
			TempMinC:     13, TempMaxC: 28, ReferenceRainfallMm: 450,
			FertilizerRefN: 100, FertilizerRefP: 50, FertilizerRefK: 60,
			BaseWaterNeedMmPerDay: 4.0,
			BasePricePerQuintal:   1800, CultivationCostPerHa: 85000,
			PriceVolatility: volatilityVegetable, SeasonalPattern: vegetablePattern,
		},
		{
			ID: "cabbage", DisplayName: "Cabbage", Season: SeasonRabi, Category: CategoryVegetable,
			BaseYieldTonnesPerHa: 40.0,
			IdealPH:              6.3, IdealNitrogen: 170, IdealPhosphorus: 80, IdealPotassium: 460, IdealOrganicMatter: 5.5,
			MinSoilScore: 6,
			TempMinC:     12, TempMaxC: 25, ReferenceRainfallMm: 500,
			FertilizerRefN: 120, FertilizerRefP: 60, FertilizerRefK: 60,
			BaseWaterNeedMmPerDay: 5.5,
			BasePricePerQuintal:   1000, CultivationCostPerHa: 70000,
			PriceVolatility: volatilityVegetable, SeasonalPattern: vegetablePattern,
		},
		{
			ID: "cotton", DisplayName: "Cotton", Season: SeasonKharif, Category: CategoryCash,
			BaseYieldTonnesPerHa: 1.5,
			IdealPH:              6.8, IdealNitrogen: 120, IdealPhosphorus: 55, IdealPotassium: 400, IdealOrganicMatter: 4.5,
			MinSoilScore: 6,
			TempMinC:     20, TempMaxC: 35, ReferenceRainfallMm: 700,
			FertilizerRefN: 120, FertilizerRefP: 60, FertilizerRefK: 60,
			BaseWaterNeedMmPerDay: 7.0,
			BasePricePerQuintal:   6500, CultivationCostPerHa: 55000,
			PriceVolatility: volatilityCash, SeasonalPattern: kharifPattern,
		},
		{
			ID: "sugarcane", DisplayName: "Sugarcane", Season: SeasonAnnual, Category: CategoryCash,
			BaseYieldTonnesPerHa: 80.0,
			IdealPH:              6.5, IdealNitrogen: 180, IdealPhosphorus: 90, IdealPotassium: 500, IdealOrganicMatter: 6,
			MinSoilScore: 7,
			TempMinC:     20, TempMaxC: 35, ReferenceRainfallMm: 1500,
			FertilizerRefN: 250, FertilizerRefP: 100, FertilizerRefK: 120,
			BaseWaterNeedMmPerDay: 8.5,
			BasePricePerQuintal:   350, CultivationCostPerHa: 120000,
			PriceVolatility: volatilityCash, SeasonalPattern: flatPattern,
		},
		{
			ID: "mustard", DisplayName: "Mustard", Season: SeasonRabi, Category: CategoryOilseed,
			BaseYieldTonnesPerHa: 1.8,
			IdealPH:              6.8, IdealNitrogen: 70, IdealPhosphorus: 45, IdealPotassium: 320, IdealOrganicMatter: 4,
			MinSoilScore: 5,
			TempMinC:     10, TempMaxC: 25, ReferenceRainfallMm: 400,
			FertilizerRefN: 60, FertilizerRefP: 40, FertilizerRefK: 40,
			BaseWaterNeedMmPerDay: 3.5,
			BasePricePerQuintal:   5200, CultivationCostPerHa: 26000,
			PriceVolatility: volatilityOilseed, SeasonalPattern: rabiPattern,
		},
		{
			ID: "sunflower", DisplayName: "Sunflower", Season: SeasonSummer, Category: CategoryOilseed,
			BaseYieldTonnesPerHa: 2.0,
			IdealPH:              6.5, IdealNitrogen: 75, IdealPhosphorus: 50, IdealPotassium: 340, IdealOrganicMatter: 4,
			MinSoilScore: 5,
			TempMinC:     18, TempMaxC: 30, ReferenceRainfallMm: 500,
			FertilizerRefN: 60, FertilizerRefP: 50, FertilizerRefK: 45,
			BaseWaterNeedMmPerDay: 5.0,
			BasePricePerQuintal:   5600, CultivationCostPerHa: 30000,
			PriceVolatility: volatilityOilseed, SeasonalPattern: summerPattern,
		},
	}
}
