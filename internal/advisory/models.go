package advisory

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FieldProfile represents one cultivated plot registered by a farmer.
// It carries the stable inputs the decision models need; model outputs
// are computed on demand and never stored.
type FieldProfile struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FarmerID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"farmer_id"`
	Name             string         `gorm:"not null" json:"name"`
	Village          string         `json:"village"`
	AreaHectares     float64        `gorm:"not null" json:"area_hectares"`
	SoilTexture      string         `gorm:"not null" json:"soil_texture"`
	IrrigationMethod string         `gorm:"not null" json:"irrigation_method"`
	CurrentCrop      string         `gorm:"index" json:"current_crop"`
	CurrentStage     string         `json:"current_stage"`
	SowingDate       *time.Time     `json:"sowing_date,omitempty"`
	Latitude         *float64       `json:"latitude,omitempty"`
	Longitude        *float64       `json:"longitude,omitempty"`
	Tags             pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`
	LastSoilSample   datatypes.JSON `json:"last_soil_sample,omitempty"`
	LastSampledAt    *time.Time     `json:"last_sampled_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// ExportFormat identifies the advisory report rendering.
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatPDF   ExportFormat = "pdf"
)

// ExportStatus tracks an export through its lifecycle.
type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "pending"
	ExportStatusCompleted ExportStatus = "completed"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportExecution is the bookkeeping row for one generated advisory
// report. The report content itself lives in object storage.
type ExportExecution struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	FieldID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"field_id"`
	FarmerID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"farmer_id"`
	Format        ExportFormat `gorm:"not null" json:"format"`
	Status        ExportStatus `gorm:"not null;default:'pending'" json:"status"`
	FileName      string       `json:"file_name"`
	S3Key         string       `json:"s3_key"`
	FileSizeBytes int64        `json:"file_size_bytes"`
	DownloadURL   string       `json:"download_url,omitempty"`
	URLExpiresAt  *time.Time   `json:"url_expires_at,omitempty"`
	ErrorMessage  string       `json:"error_message,omitempty"`
	RequestedAt   time.Time    `json:"requested_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

// BeforeCreate hook for UUID generation
func (f *FieldProfile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (e *ExportExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
