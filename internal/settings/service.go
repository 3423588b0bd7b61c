package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
	"agrisight/farm-portal/farm-portal-backend/pkg/units"
)

// Service manages farmer portal preferences.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates the settings service and migrates its table.
func NewService(db *gorm.DB, logger *zap.Logger) (*Service, error) {
	if err := db.AutoMigrate(&FarmerSettings{}); err != nil {
		return nil, fmt.Errorf("failed to migrate settings tables: %w", err)
	}
	return &Service{db: db, logger: logger}, nil
}

// Get returns the farmer's preferences, creating the default row on
// first read.
func (s *Service) Get(ctx context.Context, farmerID uuid.UUID) (*FarmerSettings, error) {
	var prefs FarmerSettings
	err := s.db.WithContext(ctx).First(&prefs, "farmer_id = ?", farmerID).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	prefs = defaultSettings(farmerID)
	if err := s.db.WithContext(ctx).Create(&prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}
	return &prefs, nil
}

// Update applies partial preference changes.
func (s *Service) Update(ctx context.Context, farmerID uuid.UUID, req *UpdateSettingsRequest) (*FarmerSettings, error) {
	prefs, err := s.Get(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	if req.AreaUnit != nil {
		switch *req.AreaUnit {
		case UnitHectare, UnitAcre:
			prefs.AreaUnit = *req.AreaUnit
		default:
			return nil, fmt.Errorf("%w: unknown area unit %q", agronomy.ErrInvalidInput, *req.AreaUnit)
		}
	}
	if req.Language != nil {
		prefs.Language = *req.Language
	}
	if req.EmailAlertsEnabled != nil {
		prefs.EmailAlertsEnabled = *req.EmailAlertsEnabled
	}
	if req.PushAlertsEnabled != nil {
		prefs.PushAlertsEnabled = *req.PushAlertsEnabled
	}

	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return prefs, nil
}

// AlertChannels reports the farmer's delivery opt-outs. Lookup
// failures fall back to everything enabled; a broken settings table
// must not mute alerts.
func (s *Service) AlertChannels(ctx context.Context, farmerID uuid.UUID) (email, push bool) {
	prefs, err := s.Get(ctx, farmerID)
	if err != nil {
		s.logger.Warn("Failed to load alert preferences",
			zap.String("farmer_id", farmerID.String()),
			zap.Error(err))
		return true, true
	}
	return prefs.EmailAlertsEnabled, prefs.PushAlertsEnabled
}

// DisplayArea converts stored hectares into the farmer's preferred
// unit.
func (s *Service) DisplayArea(prefs *FarmerSettings, hectares float64) (value float64, unit AreaUnit) {
	if prefs != nil && prefs.AreaUnit == UnitAcre {
		return units.HectaresToAcres(hectares), UnitAcre
	}
	return hectares, UnitHectare
}

func defaultSettings(farmerID uuid.UUID) FarmerSettings {
	return FarmerSettings{
		FarmerID:           farmerID,
		AreaUnit:           UnitHectare,
		Language:           "en",
		EmailAlertsEnabled: true,
		PushAlertsEnabled:  true,
	}
}
