package notifications

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Delivery channel names recorded on alert rows.
const (
	ChannelInApp     = "in_app"
	ChannelWebSocket = "websocket"
	ChannelEmail     = "email"
	ChannelSNS       = "sns"
)

// Delivery status values. Partial means at least one channel took the
// alert and at least one refused it.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// AlertRecord is the stored copy of an advisory alert. It doubles as
// the farmer's in-app inbox and the delivery audit trail.
type AlertRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FarmerID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"farmer_id"`
	FieldID   uuid.UUID      `gorm:"type:uuid;index" json:"field_id"`
	Crop      string         `json:"crop"`
	Kind      string         `gorm:"not null;index" json:"kind"`
	Severity  string         `gorm:"not null" json:"severity"`
	Message   string         `gorm:"not null" json:"message"`
	Details   datatypes.JSON `json:"details,omitempty"`
	Channels  pq.StringArray `gorm:"type:text[]" json:"channels"`
	Status    string         `gorm:"not null;default:'pending'" json:"status"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (a *AlertRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
