package advisory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrFieldNotFound is returned when a field does not exist or belongs
// to another farmer.
var ErrFieldNotFound = errors.New("field not found")

// ErrExportNotFound is returned when an export execution does not exist.
var ErrExportNotFound = errors.New("export not found")

type Repository interface {
	CreateField(ctx context.Context, field *FieldProfile) error
	GetFieldByID(ctx context.Context, id uuid.UUID) (*FieldProfile, error)
	ListFieldsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]FieldProfile, error)
	UpdateField(ctx context.Context, field *FieldProfile) error
	DeleteField(ctx context.Context, id uuid.UUID) error

	CreateExport(ctx context.Context, execution *ExportExecution) error
	UpdateExport(ctx context.Context, execution *ExportExecution) error
	GetExportByID(ctx context.Context, id uuid.UUID) (*ExportExecution, error)
	ListExportsByFarmer(ctx context.Context, farmerID uuid.UUID, limit int) ([]ExportExecution, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// AutoMigrate creates the advisory tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&FieldProfile{}, &ExportExecution{}); err != nil {
		return fmt.Errorf("failed to migrate advisory tables: %w", err)
	}
	return nil
}

func (r *gormRepository) CreateField(ctx context.Context, field *FieldProfile) error {
	return r.db.WithContext(ctx).Create(field).Error
}

func (r *gormRepository) GetFieldByID(ctx context.Context, id uuid.UUID) (*FieldProfile, error) {
	var field FieldProfile
	err := r.db.WithContext(ctx).First(&field, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, err
	}
	return &field, nil
}

func (r *gormRepository) ListFieldsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]FieldProfile, error) {
	var fields []FieldProfile
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&fields).Error
	return fields, err
}

func (r *gormRepository) UpdateField(ctx context.Context, field *FieldProfile) error {
	return r.db.WithContext(ctx).Save(field).Error
}

func (r *gormRepository) DeleteField(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&FieldProfile{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFieldNotFound
	}
	return nil
}

func (r *gormRepository) CreateExport(ctx context.Context, execution *ExportExecution) error {
	return r.db.WithContext(ctx).Create(execution).Error
}

func (r *gormRepository) UpdateExport(ctx context.Context, execution *ExportExecution) error {
	return r.db.WithContext(ctx).Save(execution).Error
}

func (r *gormRepository) GetExportByID(ctx context.Context, id uuid.UUID) (*ExportExecution, error) {
	var execution ExportExecution
	err := r.db.WithContext(ctx).First(&execution, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExportNotFound
		}
		return nil, err
	}
	return &execution, nil
}

func (r *gormRepository) ListExportsByFarmer(ctx context.Context, farmerID uuid.UUID, limit int) ([]ExportExecution, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var executions []ExportExecution
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("requested_at DESC").
		Limit(limit).
		Find(&executions).Error
	return executions, err
}
