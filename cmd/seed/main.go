package main

import (
	"context"
	"encoding/json"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agrisight/farm-portal/farm-portal-backend/internal/advisory"
	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
	"agrisight/farm-portal/farm-portal-backend/internal/agronomy/store"
	"agrisight/farm-portal/farm-portal-backend/internal/auth"
	"agrisight/farm-portal/farm-portal-backend/internal/config"
	"agrisight/farm-portal/farm-portal-backend/internal/market"
	"agrisight/farm-portal/farm-portal-backend/internal/settings"
)

// demoFarmerID matches the fallback identity the handlers assume when
// no token is presented, so demo-mode requests see the seeded rows.
var demoFarmerID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

const (
	demoFarmerEmail    = "demo@agrisight.example"
	demoFarmerPassword = "demo1234"
)

// Seeds the configured database with the crop catalog, a demo farmer,
// two fields and four months of market quotes. Safe to run repeatedly.
func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Warn("Failed to load config file, using environment variables", zap.Error(err))
		cfg, _ = config.LoadConfig("")
	}

	var db *gorm.DB
	var marketDB *sqlx.DB
	switch cfg.Database.Driver {
	case "sqlite":
		path := cfg.Database.SQLitePath
		if path == "" {
			path = "agrisight.db"
		}
		logger.Info("Seeding SQLite database", zap.String("path", path))
		db, err = store.OpenSQLite(path)
		if err != nil {
			logger.Fatal("Failed to open database", zap.Error(err))
		}
		marketDB, err = sqlx.Connect("sqlite", path)
	default:
		dbURL := cfg.Database.GetDatabaseURL()
		logger.Info("Seeding database", zap.String("url", dbURL))
		db, err = store.OpenPostgres(dbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		marketDB, err = sqlx.Connect("postgres", dbURL)
	}
	if err != nil {
		logger.Fatal("Failed to connect to market database", zap.Error(err))
	}
	defer marketDB.Close()

	ctx := context.Background()

	// Crop catalog
	catalogStore := store.New(db)
	if err := catalogStore.AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate catalog tables", zap.Error(err))
	}
	if err := advisory.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate advisory tables", zap.Error(err))
	}
	if err := db.AutoMigrate(&auth.FarmerAccount{}, &settings.FarmerSettings{}); err != nil {
		logger.Fatal("Failed to migrate account tables", zap.Error(err))
	}
	seeded, err := catalogStore.SeedDefaults(ctx)
	if err != nil {
		logger.Fatal("Failed to seed crop catalog", zap.Error(err))
	}
	logger.Info("Crop catalog ready", zap.Int("seeded", seeded))

	catalog, err := catalogStore.LoadCatalog(ctx)
	if err != nil {
		logger.Fatal("Failed to load crop catalog", zap.Error(err))
	}

	// Demo farmer
	if err := seedDemoFarmer(db); err != nil {
		logger.Fatal("Failed to seed demo farmer", zap.Error(err))
	}
	logger.Info("Demo farmer ready",
		zap.String("email", demoFarmerEmail),
		zap.String("password", demoFarmerPassword))

	// Demo fields
	fields, err := seedDemoFields(db)
	if err != nil {
		logger.Fatal("Failed to seed demo fields", zap.Error(err))
	}
	logger.Info("Demo fields ready", zap.Int("fields", fields))

	// Market quotes
	marketRepo := market.NewPostgresRepository(marketDB)
	if err := marketRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure market price schema", zap.Error(err))
	}
	quotes, err := seedDemoQuotes(ctx, market.NewService(marketRepo, agronomy.NewEngine(catalog)))
	if err != nil {
		logger.Fatal("Failed to seed market quotes", zap.Error(err))
	}
	logger.Info("Market quotes ready", zap.Int("inserted", quotes))

	logger.Info("Seed complete")
}

func seedDemoFarmer(db *gorm.DB) error {
	var count int64
	if err := db.Model(&auth.FarmerAccount{}).Where("id = ?", demoFarmerID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoFarmerPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Create(&auth.FarmerAccount{
		ID:           demoFarmerID,
		Name:         "Demo Farmer",
		Email:        demoFarmerEmail,
		Phone:        "+91-98765-00001",
		Village:      "Khanna",
		PasswordHash: string(hash),
	}).Error
}

func seedDemoFields(db *gorm.DB) (int, error) {
	sample, err := json.Marshal(agronomy.SoilSample{
		PH:                   6.5,
		Nitrogen:             100,
		Phosphorus:           40,
		Potassium:            320,
		OrganicMatterPercent: 4,
	})
	if err != nil {
		return 0, err
	}
	sampledAt := time.Now().UTC().AddDate(0, 0, -14)
	sowedWheat := time.Now().UTC().AddDate(0, 0, -60)
	sowedMaize := time.Now().UTC().AddDate(0, 0, -30)

	fields := []advisory.FieldProfile{
		{
			FarmerID:         demoFarmerID,
			Name:             "North Plot",
			Village:          "Khanna",
			AreaHectares:     2,
			SoilTexture:      string(agronomy.TextureLoamy),
			IrrigationMethod: string(agronomy.MethodDrip),
			CurrentCrop:      "wheat",
			CurrentStage:     string(agronomy.StageFlowering),
			SowingDate:       &sowedWheat,
			Tags:             []string{"demo", "irrigated"},
			LastSoilSample:   datatypes.JSON(sample),
			LastSampledAt:    &sampledAt,
		},
		{
			FarmerID:         demoFarmerID,
			Name:             "River Strip",
			Village:          "Khanna",
			AreaHectares:     1.2,
			SoilTexture:      string(agronomy.TextureSandy),
			IrrigationMethod: string(agronomy.MethodSprinkler),
			CurrentCrop:      "maize",
			CurrentStage:     string(agronomy.StageVegetative),
			SowingDate:       &sowedMaize,
			Tags:             []string{"demo"},
		},
	}

	created := 0
	for i := range fields {
		var count int64
		err := db.Model(&advisory.FieldProfile{}).
			Where("farmer_id = ? AND name = ?", demoFarmerID, fields[i].Name).
			Count(&count).Error
		if err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&fields[i]).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// seedDemoQuotes backfills sixteen weeks of weekly mandi quotes for
// wheat and maize. Skipped entirely when any quotes already exist.
func seedDemoQuotes(ctx context.Context, markets market.Service) (int, error) {
	existing, _, err := markets.ListPrices(ctx, &market.PriceFilters{Page: 1, PageSize: 1})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	series := []struct {
		crop   string
		start  float64
		weekly float64
	}{
		{crop: "wheat", start: 2150, weekly: 6},
		{crop: "maize", start: 1780, weekly: -3},
	}

	inserted := 0
	for _, s := range series {
		for week := 16; week >= 1; week-- {
			recordedAt := now.AddDate(0, 0, -7*week)
			_, err := markets.RecordPrice(ctx, &market.RecordPriceRequest{
				CropID:          s.crop,
				Market:          "khanna",
				PricePerQuintal: s.start + float64(16-week)*s.weekly,
				RecordedAt:      &recordedAt,
				Source:          "seed",
			})
			if err != nil {
				return inserted, err
			}
			inserted++
		}
	}
	return inserted, nil
}
