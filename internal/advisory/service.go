package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"agrisight/farm-portal/farm-portal-backend/internal/advisory/export"
	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
	"agrisight/farm-portal/farm-portal-backend/pkg/storage"
)

// How long a presigned download link for a generated report stays valid.
const downloadURLTTL = 24 * time.Hour

// Horizon applied when a composite advisory does not ask for one.
const defaultAdvisoryHorizonDays = 90

// Request types

// CreateFieldRequest registers a new field for a farmer.
type CreateFieldRequest struct {
	Name             string     `json:"name" binding:"required"`
	Village          string     `json:"village"`
	AreaHectares     float64    `json:"area_hectares" binding:"required"`
	SoilTexture      string     `json:"soil_texture" binding:"required"`
	IrrigationMethod string     `json:"irrigation_method" binding:"required"`
	CurrentCrop      string     `json:"current_crop"`
	CurrentStage     string     `json:"current_stage"`
	SowingDate       *time.Time `json:"sowing_date"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	Tags             []string   `json:"tags"`
}

// UpdateFieldRequest carries partial updates; nil fields are left alone.
type UpdateFieldRequest struct {
	Name             *string    `json:"name"`
	Village          *string    `json:"village"`
	AreaHectares     *float64   `json:"area_hectares"`
	SoilTexture      *string    `json:"soil_texture"`
	IrrigationMethod *string    `json:"irrigation_method"`
	CurrentCrop      *string    `json:"current_crop"`
	CurrentStage     *string    `json:"current_stage"`
	SowingDate       *time.Time `json:"sowing_date"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	Tags             []string   `json:"tags"`
}

// FieldYieldRequest holds the season observations a field yield
// forecast needs on top of what the field profile already stores.
type FieldYieldRequest struct {
	SeasonalRainfallMm float64                        `json:"seasonal_rainfall_mm" binding:"required"`
	AvgTemperatureC    float64                        `json:"avg_temperature_c" binding:"required"`
	AvgHumidityPercent float64                        `json:"avg_humidity_percent" binding:"required"`
	Fertilizer         agronomy.FertilizerApplication `json:"fertilizer"`
}

// FieldIrrigationRequest holds the day-of readings for an irrigation check.
type FieldIrrigationRequest struct {
	SoilMoisturePercent float64 `json:"soil_moisture_percent" binding:"required"`
	TemperatureC        float64 `json:"temperature_c" binding:"required"`
	HumidityPercent     float64 `json:"humidity_percent" binding:"required"`
	WindSpeedKmh        float64 `json:"wind_speed_kmh"`
	DaysSinceRain       int     `json:"days_since_rain"`
	RootDepthCm         float64 `json:"root_depth_cm"`
}

// FieldRotationRequest tunes the rotation planner for a field. A blank
// season means the season the current date falls in.
type FieldRotationRequest struct {
	Season string `json:"season"`
	TopN   int    `json:"top_n"`
}

// AdvisoryRequest drives the full advisory bundle for a field.
type AdvisoryRequest struct {
	Yield       FieldYieldRequest      `json:"yield"`
	Irrigation  FieldIrrigationRequest `json:"irrigation"`
	Rotation    FieldRotationRequest   `json:"rotation"`
	HorizonDays int                    `json:"horizon_days"`
	// Days until the standing crop is expected to be harvested, used
	// to pick the sale price for the profit estimate.
	HarvestInDays int `json:"harvest_in_days"`
}

// FieldAdvisory bundles every model output for one field. Sections are
// computed fresh on each request and never persisted.
type FieldAdvisory struct {
	FieldID     uuid.UUID                  `json:"field_id"`
	FieldName   string                     `json:"field_name"`
	Crop        agronomy.CropID            `json:"crop"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Soil        *agronomy.SoilReport       `json:"soil,omitempty"`
	Yield       *agronomy.YieldForecast    `json:"yield,omitempty"`
	Irrigation  *agronomy.IrrigationAdvice `json:"irrigation,omitempty"`
	Prices      *agronomy.PriceForecast    `json:"prices,omitempty"`
	Profit      *agronomy.ProfitEstimate   `json:"profit,omitempty"`
	Rotation    *agronomy.RotationPlan     `json:"rotation,omitempty"`
	Warnings    []agronomy.Warning         `json:"warnings,omitempty"`
}

// AlertKind labels why an advisory alert fired.
type AlertKind string

const (
	AlertIrrigationUrgent AlertKind = "irrigation_urgent"
	AlertYieldRisk        AlertKind = "yield_risk"
)

// AdvisoryAlert is handed to the notifier when a model run crosses an
// actionable threshold.
type AdvisoryAlert struct {
	FieldID   uuid.UUID              `json:"field_id"`
	FarmerID  uuid.UUID              `json:"farmer_id"`
	Crop      agronomy.CropID        `json:"crop"`
	Kind      AlertKind              `json:"kind"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Notifier fans advisory alerts out to whatever channels are wired up.
// Implementations must not block the request path.
type Notifier interface {
	PublishAlert(ctx context.Context, alert *AdvisoryAlert)
}

// PriceHistory supplies stored market quotes as model input points,
// oldest first.
type PriceHistory interface {
	History(ctx context.Context, crop agronomy.CropID) ([]agronomy.PricePoint, error)
}

// Service defines the advisory business logic
type Service interface {
	// Field management
	CreateField(ctx context.Context, farmerID uuid.UUID, req *CreateFieldRequest) (*FieldProfile, error)
	GetField(ctx context.Context, farmerID, fieldID uuid.UUID) (*FieldProfile, error)
	ListFields(ctx context.Context, farmerID uuid.UUID) ([]FieldProfile, error)
	UpdateField(ctx context.Context, farmerID, fieldID uuid.UUID, req *UpdateFieldRequest) (*FieldProfile, error)
	DeleteField(ctx context.Context, farmerID, fieldID uuid.UUID) error

	// Crop catalog
	ListCrops() []agronomy.CropProfile
	GetCrop(id string) (agronomy.CropProfile, error)

	// Stateless model runs on caller-supplied inputs
	ScoreSoil(in agronomy.SoilScoreInput) (*agronomy.SoilReport, error)
	PredictYield(in agronomy.YieldInput) (*agronomy.YieldForecast, error)
	AssessIrrigation(in agronomy.IrrigationInput) (*agronomy.IrrigationAdvice, error)
	ForecastPrices(in agronomy.PriceForecastInput) (*agronomy.PriceForecast, error)
	PlanRotation(in agronomy.RotationInput) (*agronomy.RotationPlan, error)
	AnalyzeRotation(sequence []agronomy.CropID) (*agronomy.RotationAnalysis, error)

	// Field-scoped model runs
	ScoreFieldSoil(ctx context.Context, farmerID, fieldID uuid.UUID, sample agronomy.SoilSample) (*agronomy.SoilReport, error)
	PredictFieldYield(ctx context.Context, farmerID, fieldID uuid.UUID, req *FieldYieldRequest) (*agronomy.YieldForecast, error)
	AssessFieldIrrigation(ctx context.Context, farmerID, fieldID uuid.UUID, req *FieldIrrigationRequest) (*agronomy.IrrigationAdvice, error)
	PlanFieldRotation(ctx context.Context, farmerID, fieldID uuid.UUID, req *FieldRotationRequest) (*agronomy.RotationPlan, error)
	BuildFieldAdvisory(ctx context.Context, farmerID, fieldID uuid.UUID, req *AdvisoryRequest) (*FieldAdvisory, error)

	// Report exports
	ExportFieldReport(ctx context.Context, farmerID, fieldID uuid.UUID, format ExportFormat, req *AdvisoryRequest) (*ExportExecution, error)
	GetExport(ctx context.Context, farmerID, exportID uuid.UUID) (*ExportExecution, error)
	ListExports(ctx context.Context, farmerID uuid.UUID, limit int) ([]ExportExecution, error)
}

type advisoryService struct {
	repo     Repository
	engine   *agronomy.Engine
	prices   PriceHistory
	notifier Notifier
	storage  storage.S3Client
	bucket   string
}

// NewService creates a new advisory service. The notifier and the
// storage client may be nil; alerts and report uploads are then
// skipped or rejected respectively.
func NewService(repo Repository, engine *agronomy.Engine, prices PriceHistory, notifier Notifier, store storage.S3Client, bucket string) Service {
	return &advisoryService{
		repo:     repo,
		engine:   engine,
		prices:   prices,
		notifier: notifier,
		storage:  store,
		bucket:   bucket,
	}
}

// Field management

func (s *advisoryService) CreateField(ctx context.Context, farmerID uuid.UUID, req *CreateFieldRequest) (*FieldProfile, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: field name is required", agronomy.ErrInvalidInput)
	}
	if req.AreaHectares <= 0 {
		return nil, fmt.Errorf("%w: area must be positive, got %v", agronomy.ErrInvalidInput, req.AreaHectares)
	}
	texture, err := agronomy.ParseSoilTexture(req.SoilTexture)
	if err != nil {
		return nil, err
	}
	method, err := agronomy.ParseIrrigationMethod(req.IrrigationMethod)
	if err != nil {
		return nil, err
	}
	crop, err := s.normalizeCrop(req.CurrentCrop)
	if err != nil {
		return nil, err
	}
	stage, err := s.normalizeStage(req.CurrentStage)
	if err != nil {
		return nil, err
	}

	field := &FieldProfile{
		ID:               uuid.New(),
		FarmerID:         farmerID,
		Name:             strings.TrimSpace(req.Name),
		Village:          strings.TrimSpace(req.Village),
		AreaHectares:     req.AreaHectares,
		SoilTexture:      string(texture),
		IrrigationMethod: string(method),
		CurrentCrop:      string(crop),
		CurrentStage:     stage,
		SowingDate:       req.SowingDate,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Tags:             pq.StringArray(req.Tags),
	}
	if err := s.repo.CreateField(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

func (s *advisoryService) GetField(ctx context.Context, farmerID, fieldID uuid.UUID) (*FieldProfile, error) {
	return s.getOwnedField(ctx, farmerID, fieldID)
}

func (s *advisoryService) ListFields(ctx context.Context, farmerID uuid.UUID) ([]FieldProfile, error) {
	return s.repo.ListFieldsByFarmer(ctx, farmerID)
}

func (s *advisoryService) UpdateField(ctx context.Context, farmerID, fieldID uuid.UUID, req *UpdateFieldRequest) (*FieldProfile, error) {
	field, err := s.getOwnedField(ctx, farmerID, fieldID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: field name cannot be blank", agronomy.ErrInvalidInput)
		}
		field.Name = strings.TrimSpace(*req.Name)
	}
	if req.Village != nil {
		field.Village = strings.TrimSpace(*req.Village)
	}
	if req.AreaHectares != nil {
		if *req.AreaHectares <= 0 {
			return nil, fmt.Errorf("%w: area must be positive, got %v", agronomy.ErrInvalidInput, *req.AreaHectares)
		}
		field.AreaHectares = *req.AreaHectares
	}
	if req.SoilTexture != nil {
		texture, err := agronomy.ParseSoilTexture(*req.SoilTexture)
		if err != nil {
			return nil, err
		}
		field.SoilTexture = string(texture)
	}
	if req.IrrigationMethod != nil {
		method, err := agronomy.ParseIrrigationMethod(*req.IrrigationMethod)
		if err != nil {
			return nil, err
		}
		field.IrrigationMethod = string(method)
	}
	if req.CurrentCrop != nil {
		crop, err := s.normalizeCrop(*req.CurrentCrop)
		if err != nil {
			return nil, err
		}
		field.CurrentCrop = string(crop)
	}
	if req.CurrentStage != nil {
		stage, err := s.normalizeStage(*req.CurrentStage)
		if err != nil {
			return nil, err
		}
		field.CurrentStage = stage
	}
	if req.SowingDate != nil {
		field.SowingDate = req.SowingDate
	}
	if req.Latitude != nil {
		field.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		field.Longitude = req.Longitude
	}
	if req.Tags != nil {
		field.Tags = pq.StringArray(req.Tags)
	}

	if err := s.repo.UpdateField(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

func (s *advisoryService) DeleteField(ctx context.Context, farmerID, fieldID uuid.UUID) error {
	if _, err := s.getOwnedField(ctx, farmerID, fieldID); err != nil {
		return err
	}
	return s.repo.DeleteField(ctx, fieldID)
}

// Crop catalog

func (s *advisoryService) ListCrops() []agronomy.CropProfile {
	return s.engine.Catalog().Profiles()
}

func (s *advisoryService) GetCrop(id string) (agronomy.CropProfile, error) {
	crop := agronomy.CropID(strings.ToLower(strings.TrimSpace(id)))
	return s.engine.Catalog().Profile(crop)
}

// Stateless model runs

func (s *advisoryService) ScoreSoil(in agronomy.SoilScoreInput) (*agronomy.SoilReport, error) {
	return s.engine.ScoreSoil(in)
}

func (s *advisoryService) PredictYield(in agronomy.YieldInput) (*agronomy.YieldForecast, error) {
	return s.engine.PredictYield(in)
}

func (s *advisoryService) AssessIrrigation(in agronomy.IrrigationInput) (*agronomy.IrrigationAdvice, error) {
	return s.engine.AssessIrrigation(in)
}

func (s *advisoryService) ForecastPrices(in agronomy.PriceForecastInput) (*agronomy.PriceForecast, error) {
	return s.engine.ForecastPrices(in)
}

func (s *advisoryService) PlanRotation(in agronomy.RotationInput) (*agronomy.RotationPlan, error) {
	return s.engine.PlanRotation(in)
}

func (s *advisoryService) AnalyzeRotation(sequence []agronomy.CropID) (*agronomy.RotationAnalysis, error) {
	return s.engine.AnalyzeRotation(sequence)
}

// Field-scoped model runs

// ScoreFieldSoil scores a fresh sample against the field's crop and
// stores the sample on the profile. The report itself is not stored;
// re-scoring a stored sample is cheap and always current.
func (s *advisoryService) ScoreFieldSoil(ctx context.Context, farmerID, fieldID uuid.UUID, sample agronomy.SoilSample) (*agronomy.SoilReport, error) {
	field, err := s.getOwnedField(ctx, farmerID, fieldID)
	if err != nil {
		return nil, err
	}
	report, err := s.engine.ScoreSoil(agronomy.SoilScoreInput{
		Crop:   agronomy.CropID(field.CurrentCrop),
		Sample: sample,
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to encode soil sample: %w", err)
	}
	now := time.Now().UTC()
	field.LastSoilSample = datatypes.JSON(raw)
	field.LastSampledAt = &now
	if err := s.repo.UpdateField(ctx, field); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *advisoryService) PredictFieldYield(ctx context.Context, farmerID, fieldID uuid.UUID, req *FieldYieldRequest) (*agronomy.YieldForecast, error) {
	field, err := s.getOwnedField(ctx, farmerID, fieldID)
	if err != nil {
		return nil, err
	}
	soil, err := s.scoreStoredSample(field)
	if err != nil {
		return nil, err
	}
	forecast, err := s.fieldYield(field, soil.Score, req)
	if err != nil {
		return nil, err
	}
	s.notifyYieldRisk(ctx, field, forecast)
	return forecast, nil
}

func (s *advisoryService) AssessFieldIrrigation(ctx context.Context, farmerID, fieldID uuid.UUID, req *FieldIrrigationRequest) (*agronomy.IrrigationAdvice, error) {
	field, err := s.getOwnedField(ctx, farmerID, fieldID)
	if err != nil {
		return nil, err
	}
	advice, err := s.fieldIrrigation(field, req)
	if err != nil {
		return nil, err
	}
	s.notifyIrrigation(ctx, field, advice)
	return advice, nil
}

func (s *advisoryService) PlanFieldRotation(ctx context.Context, farmerID, fieldID uuid.UUID, req *FieldRotationRequest) (*agronomy.RotationPlan, error) {
	field, err := s.getOwnedField(ctx, farmerID, fieldID)
	if err != nil {
		return nil, err
	}
	soil, err := s.scoreStoredSample(field)
	if err != nil {
		return nil, err
	}
	return s.fieldRotation(field, soil.Score, req)
}

// BuildFieldAdvisory runs every model for one field in dependency
// order: the soil score feeds the yield forecast, the predicted yield
// feeds the profit estimate. The field must have a stored soil sample
// and a current crop with its growth stage set.
func (s *advisoryService) BuildFieldAdvisory(ctx context.Context, farmerID, fieldID uuid.UUID, req *AdvisoryRequest) (*FieldAdvisory, error) {
	field, err := s.getOwnedField(ctx, farmerID, fieldID)
	if err != nil {
		return nil, err
	}
	advisory, err := s.buildAdvisory(ctx, field, req)
	if err != nil {
		return nil, err
	}
	s.notifyYieldRisk(ctx, field, advisory.Yield)
	s.notifyIrrigation(ctx, field, advisory.Irrigation)
	return advisory, nil
}

func (s *advisoryService) buildAdvisory(ctx context.Context, field *FieldProfile, req *AdvisoryRequest) (*FieldAdvisory, error) {
	soil, err := s.scoreStoredSample(field)
	if err != nil {
		return nil, err
	}
	yield, err := s.fieldYield(field, soil.Score, &req.Yield)
	if err != nil {
		return nil, err
	}
	irrigation, err := s.fieldIrrigation(field, &req.Irrigation)
	if err != nil {
		return nil, err
	}

	crop := agronomy.CropID(field.CurrentCrop)
	history, err := s.prices.History(ctx, crop)
	if err != nil {
		return nil, err
	}
	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = defaultAdvisoryHorizonDays
	}
	prices, err := s.engine.ForecastPrices(agronomy.PriceForecastInput{
		Crop:        crop,
		History:     history,
		HorizonDays: horizon,
	})
	if err != nil {
		return nil, err
	}
	profit, err := s.engine.EstimateProfit(agronomy.ProfitInput{
		Crop:                     crop,
		History:                  history,
		HarvestInDays:            req.HarvestInDays,
		ExpectedYieldTonnesPerHa: yield.YieldTonnesPerHa,
		AreaHectares:             field.AreaHectares,
	})
	if err != nil {
		return nil, err
	}

	rotation, err := s.fieldRotation(field, soil.Score, &req.Rotation)
	if err != nil {
		return nil, err
	}

	return &FieldAdvisory{
		FieldID:     field.ID,
		FieldName:   field.Name,
		Crop:        crop,
		GeneratedAt: time.Now().UTC(),
		Soil:        soil,
		Yield:       yield,
		Irrigation:  irrigation,
		Prices:      prices,
		Profit:      profit,
		Rotation:    rotation,
		Warnings:    mergeWarnings(prices.Warnings, profit.Warnings),
	}, nil
}

// Report exports

// ExportFieldReport builds the advisory bundle, renders it in the
// requested format and uploads the result to object storage. The
// returned execution carries a presigned download link on success.
func (s *advisoryService) ExportFieldReport(ctx context.Context, farmerID, fieldID uuid.UUID, format ExportFormat, req *AdvisoryRequest) (*ExportExecution, error) {
	if _, err := exportExtension(format); err != nil {
		return nil, err
	}
	field, err := s.getOwnedField(ctx, farmerID, fieldID)
	if err != nil {
		return nil, err
	}
	advisory, err := s.buildAdvisory(ctx, field, req)
	if err != nil {
		return nil, err
	}

	execution := &ExportExecution{
		ID:          uuid.New(),
		FieldID:     field.ID,
		FarmerID:    farmerID,
		Format:      format,
		Status:      ExportStatusPending,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateExport(ctx, execution); err != nil {
		return nil, err
	}

	data, ext, err := renderAdvisory(field, advisory, format)
	if err != nil {
		return nil, s.failExport(ctx, execution, err)
	}
	if s.storage == nil {
		return nil, s.failExport(ctx, execution, fmt.Errorf("object storage is not configured"))
	}

	key := fmt.Sprintf("exports/advisory/%s/%s.%s", field.ID, execution.ID, ext)
	if err := s.storage.Upload(ctx, s.bucket, key, bytes.NewReader(data)); err != nil {
		return nil, s.failExport(ctx, execution, fmt.Errorf("failed to upload report: %w", err))
	}

	now := time.Now().UTC()
	execution.Status = ExportStatusCompleted
	execution.FileName = exportFileName(field, now, ext)
	execution.S3Key = key
	execution.FileSizeBytes = int64(len(data))
	execution.CompletedAt = &now

	if url, err := s.storage.GetPresignedURL(ctx, s.bucket, key, downloadURLTTL); err == nil {
		expires := now.Add(downloadURLTTL)
		execution.DownloadURL = url
		execution.URLExpiresAt = &expires
	}

	if err := s.repo.UpdateExport(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

func (s *advisoryService) GetExport(ctx context.Context, farmerID, exportID uuid.UUID) (*ExportExecution, error) {
	execution, err := s.repo.GetExportByID(ctx, exportID)
	if err != nil {
		return nil, err
	}
	if execution.FarmerID != farmerID {
		return nil, ErrExportNotFound
	}
	return execution, nil
}

func (s *advisoryService) ListExports(ctx context.Context, farmerID uuid.UUID, limit int) ([]ExportExecution, error) {
	return s.repo.ListExportsByFarmer(ctx, farmerID, limit)
}

// Internals

// getOwnedField loads a field and hides it from everyone but its
// owner. Foreign fields read as not found, never as forbidden.
func (s *advisoryService) getOwnedField(ctx context.Context, farmerID, fieldID uuid.UUID) (*FieldProfile, error) {
	field, err := s.repo.GetFieldByID(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if field.FarmerID != farmerID {
		return nil, ErrFieldNotFound
	}
	return field, nil
}

func (s *advisoryService) normalizeCrop(raw string) (agronomy.CropID, error) {
	crop := agronomy.CropID(strings.ToLower(strings.TrimSpace(raw)))
	if crop == "" {
		return "", nil
	}
	if !s.engine.Catalog().Has(crop) {
		return "", fmt.Errorf("%w: %q", agronomy.ErrUnknownCrop, raw)
	}
	return crop, nil
}

func (s *advisoryService) normalizeStage(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	stage, err := agronomy.ParseGrowthStage(raw)
	if err != nil {
		return "", err
	}
	return string(stage), nil
}

// scoreStoredSample re-scores the sample stored on the field profile.
func (s *advisoryService) scoreStoredSample(field *FieldProfile) (*agronomy.SoilReport, error) {
	if len(field.LastSoilSample) == 0 {
		return nil, fmt.Errorf("%w: field %q has no soil sample on record", agronomy.ErrInvalidInput, field.Name)
	}
	var sample agronomy.SoilSample
	if err := json.Unmarshal(field.LastSoilSample, &sample); err != nil {
		return nil, fmt.Errorf("failed to decode stored soil sample: %w", err)
	}
	return s.engine.ScoreSoil(agronomy.SoilScoreInput{
		Crop:   agronomy.CropID(field.CurrentCrop),
		Sample: sample,
	})
}

func (s *advisoryService) fieldYield(field *FieldProfile, soilScore float64, req *FieldYieldRequest) (*agronomy.YieldForecast, error) {
	if field.CurrentCrop == "" {
		return nil, fmt.Errorf("%w: field %q has no current crop", agronomy.ErrInvalidInput, field.Name)
	}
	return s.engine.PredictYield(agronomy.YieldInput{
		Crop:               agronomy.CropID(field.CurrentCrop),
		SoilScore:          soilScore,
		SeasonalRainfallMm: req.SeasonalRainfallMm,
		AvgTemperatureC:    req.AvgTemperatureC,
		AvgHumidityPercent: req.AvgHumidityPercent,
		AreaHectares:       field.AreaHectares,
		Fertilizer:         req.Fertilizer,
	})
}

func (s *advisoryService) fieldIrrigation(field *FieldProfile, req *FieldIrrigationRequest) (*agronomy.IrrigationAdvice, error) {
	if field.CurrentCrop == "" {
		return nil, fmt.Errorf("%w: field %q has no current crop", agronomy.ErrInvalidInput, field.Name)
	}
	if field.CurrentStage == "" {
		return nil, fmt.Errorf("%w: field %q has no growth stage set", agronomy.ErrInvalidInput, field.Name)
	}
	return s.engine.AssessIrrigation(agronomy.IrrigationInput{
		Crop:                agronomy.CropID(field.CurrentCrop),
		Stage:               agronomy.GrowthStage(field.CurrentStage),
		Texture:             agronomy.SoilTexture(field.SoilTexture),
		Method:              agronomy.IrrigationMethod(field.IrrigationMethod),
		SoilMoisturePercent: req.SoilMoisturePercent,
		TemperatureC:        req.TemperatureC,
		HumidityPercent:     req.HumidityPercent,
		WindSpeedKmh:        req.WindSpeedKmh,
		DaysSinceRain:       req.DaysSinceRain,
		RootDepthCm:         req.RootDepthCm,
		AreaHectares:        field.AreaHectares,
	})
}

func (s *advisoryService) fieldRotation(field *FieldProfile, soilScore float64, req *FieldRotationRequest) (*agronomy.RotationPlan, error) {
	if field.CurrentCrop == "" {
		return nil, fmt.Errorf("%w: field %q has no current crop", agronomy.ErrInvalidInput, field.Name)
	}
	season := agronomy.Season(strings.ToLower(strings.TrimSpace(req.Season)))
	if season == "" {
		season = seasonForMonth(time.Now().Month())
	}
	return s.engine.PlanRotation(agronomy.RotationInput{
		CurrentCrop: agronomy.CropID(field.CurrentCrop),
		SoilScore:   soilScore,
		Season:      season,
		TopN:        req.TopN,
	})
}

func (s *advisoryService) notifyIrrigation(ctx context.Context, field *FieldProfile, advice *agronomy.IrrigationAdvice) {
	if s.notifier == nil || advice == nil || advice.Urgency != agronomy.IrrigateNow {
		return
	}
	s.notifier.PublishAlert(ctx, &AdvisoryAlert{
		FieldID:  field.ID,
		FarmerID: field.FarmerID,
		Crop:     advice.Crop,
		Kind:     AlertIrrigationUrgent,
		Severity: "critical",
		Message:  fmt.Sprintf("Field %q needs irrigation now: %.1f mm water deficit", field.Name, advice.WaterDeficitMm),
		Details: map[string]interface{}{
			"status":            string(advice.Status),
			"water_deficit_mm":  advice.WaterDeficitMm,
			"duration_hours":    advice.DurationHours,
			"total_volume_m3":   advice.TotalWaterVolumeM3,
			"daily_need_mm":     advice.DailyWaterNeedMm,
			"next_check_days":   advice.NextCheckDays,
			"soil_texture":      field.SoilTexture,
			"irrigation_method": field.IrrigationMethod,
		},
		CreatedAt: time.Now().UTC(),
	})
}

func (s *advisoryService) notifyYieldRisk(ctx context.Context, field *FieldProfile, forecast *agronomy.YieldForecast) {
	if s.notifier == nil || forecast == nil || len(forecast.RiskFlags) == 0 {
		return
	}
	s.notifier.PublishAlert(ctx, &AdvisoryAlert{
		FieldID:  field.ID,
		FarmerID: field.FarmerID,
		Crop:     forecast.Crop,
		Kind:     AlertYieldRisk,
		Severity: "warning",
		Message:  fmt.Sprintf("Yield forecast for field %q flagged: %s", field.Name, strings.Join(forecast.RiskFlags, "; ")),
		Details: map[string]interface{}{
			"yield_tonnes_per_ha": forecast.YieldTonnesPerHa,
			"confidence":          forecast.Confidence,
			"risk_flags":          forecast.RiskFlags,
		},
		CreatedAt: time.Now().UTC(),
	})
}

func (s *advisoryService) failExport(ctx context.Context, execution *ExportExecution, cause error) error {
	execution.Status = ExportStatusFailed
	execution.ErrorMessage = cause.Error()
	if err := s.repo.UpdateExport(ctx, execution); err != nil {
		return fmt.Errorf("%v (and failed to record it: %w)", cause, err)
	}
	return cause
}

// renderAdvisory turns the bundle into document bytes for the format.
func renderAdvisory(field *FieldProfile, advisory *FieldAdvisory, format ExportFormat) ([]byte, string, error) {
	ext, err := exportExtension(format)
	if err != nil {
		return nil, "", err
	}
	doc := advisoryDocument(field, advisory)

	var data []byte
	switch format {
	case ExportFormatCSV:
		data, err = export.NewCSVExporter(export.DefaultCSVOptions()).Render(doc)
	case ExportFormatExcel:
		data, err = export.NewExcelExporter(export.DefaultExcelOptions()).Render(doc)
	case ExportFormatPDF:
		data, err = export.NewPDFGenerator(export.DefaultPDFOptions()).Render(doc)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to render %s report: %w", format, err)
	}
	return data, ext, nil
}

func advisoryDocument(field *FieldProfile, advisory *FieldAdvisory) *export.Document {
	return &export.Document{
		FieldName:    field.Name,
		Village:      field.Village,
		Crop:         field.CurrentCrop,
		AreaHectares: field.AreaHectares,
		GeneratedAt:  advisory.GeneratedAt,
		Soil:         advisory.Soil,
		Yield:        advisory.Yield,
		Irrigation:   advisory.Irrigation,
		Prices:       advisory.Prices,
		Profit:       advisory.Profit,
		Rotation:     advisory.Rotation,
	}
}

func exportExtension(format ExportFormat) (string, error) {
	switch format {
	case ExportFormatCSV:
		return "csv", nil
	case ExportFormatExcel:
		return "xlsx", nil
	case ExportFormatPDF:
		return "pdf", nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", agronomy.ErrInvalidInput, format)
	}
}

func exportFileName(field *FieldProfile, at time.Time, ext string) string {
	slug := strings.ToLower(strings.TrimSpace(field.Name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return fmt.Sprintf("advisory-%s-%s.%s", slug, at.Format("2006-01-02"), ext)
}

// seasonForMonth maps a calendar month to the planting season underway
// in northern India. November through March is rabi, June through
// October is kharif, April and May count as the summer window.
func seasonForMonth(m time.Month) agronomy.Season {
	switch {
	case m >= time.June && m <= time.October:
		return agronomy.SeasonKharif
	case m == time.April || m == time.May:
		return agronomy.SeasonSummer
	default:
		return agronomy.SeasonRabi
	}
}

func mergeWarnings(groups ...[]agronomy.Warning) []agronomy.Warning {
	var merged []agronomy.Warning
	seen := make(map[agronomy.Warning]bool)
	for _, group := range groups {
		for _, w := range group {
			if seen[w] {
				continue
			}
			seen[w] = true
			merged = append(merged, w)
		}
	}
	return merged
}
