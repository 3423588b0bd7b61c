package settings

import (
	"time"

	"github.com/google/uuid"
)

// AreaUnit is the unit field areas are displayed in. Storage is always
// hectares; the unit only affects presentation.
type AreaUnit string

const (
	UnitHectare AreaUnit = "hectare"
	UnitAcre    AreaUnit = "acre"
)

// FarmerSettings is one farmer's portal preferences. A row is created
// with defaults on first read.
type FarmerSettings struct {
	FarmerID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"farmer_id"`
	AreaUnit           AreaUnit  `gorm:"not null;default:'hectare'" json:"area_unit"`
	Language           string    `gorm:"not null;default:'en'" json:"language"`
	EmailAlertsEnabled bool      `gorm:"not null;default:true" json:"email_alerts_enabled"`
	PushAlertsEnabled  bool      `gorm:"not null;default:true" json:"push_alerts_enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpdateSettingsRequest carries partial preference changes; nil fields
// are left alone.
type UpdateSettingsRequest struct {
	AreaUnit           *AreaUnit `json:"area_unit"`
	Language           *string   `json:"language"`
	EmailAlertsEnabled *bool     `json:"email_alerts_enabled"`
	PushAlertsEnabled  *bool     `json:"push_alerts_enabled"`
}
