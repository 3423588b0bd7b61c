// Package store persists the crop reference catalog. The engine never
// reads the database directly; the portal loads the catalog once at
// startup and hands the immutable result to the engine.
package store

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// Store manages crop profile persistence.
type Store struct {
	db *gorm.DB
}

// New creates a store over an open gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// OpenPostgres connects to the portal database.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a file-backed or in-memory database with the
// CGO-free driver. Used by the seed tool and in tests.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the crop_profiles table.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&CropProfileRecord{})
}

// SeedDefaults inserts the built-in reference table. Existing rows are
// left untouched, so operator edits survive reseeding.
func (s *Store) SeedDefaults(ctx context.Context) (int, error) {
	inserted := 0
	for _, p := range agronomy.DefaultCatalog().Profiles() {
		record, err := recordFromProfile(p)
		if err != nil {
			return inserted, err
		}
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&record)
		if res.Error != nil {
			return inserted, fmt.Errorf("seed profile %q: %w", p.ID, res.Error)
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}

// UpsertProfile writes one profile, replacing any existing row. The
// profile is validated through catalog construction first so broken
// constants never reach the table.
func (s *Store) UpsertProfile(ctx context.Context, p agronomy.CropProfile) error {
	if _, err := agronomy.NewCatalog([]agronomy.CropProfile{p}); err != nil {
		return err
	}
	record, err := recordFromProfile(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

// DeleteProfile removes a crop from the table.
func (s *Store) DeleteProfile(ctx context.Context, id agronomy.CropID) error {
	res := s.db.WithContext(ctx).Delete(&CropProfileRecord{}, "id = ?", string(id))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", agronomy.ErrUnknownCrop, id)
	}
	return nil
}

// ListProfiles returns all stored profiles ordered by id.
func (s *Store) ListProfiles(ctx context.Context) ([]agronomy.CropProfile, error) {
	var records []CropProfileRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	profiles := make([]agronomy.CropProfile, 0, len(records))
	for _, r := range records {
		p, err := r.toProfile()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// LoadCatalog builds the immutable catalog from the stored profiles.
// An empty table falls back to the built-in reference data rather than
// starting the portal with no crops.
func (s *Store) LoadCatalog(ctx context.Context) (*agronomy.Catalog, error) {
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return agronomy.DefaultCatalog(), nil
	}
	return agronomy.NewCatalog(profiles)
}
