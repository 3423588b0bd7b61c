package advisory

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateField(ctx context.Context, field *FieldProfile) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockRepository) GetFieldByID(ctx context.Context, id uuid.UUID) (*FieldProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FieldProfile), args.Error(1)
}

func (m *MockRepository) ListFieldsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]FieldProfile, error) {
	args := m.Called(ctx, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FieldProfile), args.Error(1)
}

func (m *MockRepository) UpdateField(ctx context.Context, field *FieldProfile) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockRepository) DeleteField(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateExport(ctx context.Context, execution *ExportExecution) error {
	args := m.Called(ctx, execution)
	return args.Error(0)
}

func (m *MockRepository) UpdateExport(ctx context.Context, execution *ExportExecution) error {
	args := m.Called(ctx, execution)
	return args.Error(0)
}

func (m *MockRepository) GetExportByID(ctx context.Context, id uuid.UUID) (*ExportExecution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExportExecution), args.Error(1)
}

func (m *MockRepository) ListExportsByFarmer(ctx context.Context, farmerID uuid.UUID, limit int) ([]ExportExecution, error) {
	args := m.Called(ctx, farmerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ExportExecution), args.Error(1)
}

// MockPriceHistory is a mock implementation of PriceHistory
type MockPriceHistory struct {
	mock.Mock
}

func (m *MockPriceHistory) History(ctx context.Context, crop agronomy.CropID) ([]agronomy.PricePoint, error) {
	args := m.Called(ctx, crop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]agronomy.PricePoint), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishAlert(ctx context.Context, alert *AdvisoryAlert) {
	m.Called(ctx, alert)
}

// MockS3Client is a mock implementation of storage.S3Client
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) Upload(ctx context.Context, bucket, key string, body io.Reader) error {
	args := m.Called(ctx, bucket, key, body)
	return args.Error(0)
}

func (m *MockS3Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockS3Client) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockS3Client) GetPresignedURL(ctx context.Context, bucket, key string, expiration time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, expiration)
	return args.String(0), args.Error(1)
}

func fixedDraw() float64 { return 0.5 }

func newTestService(repo Repository, prices PriceHistory, notifier Notifier, store *MockS3Client) Service {
	engine := agronomy.NewEngine(nil, agronomy.WithUniformSource(fixedDraw))
	if store == nil {
		return NewService(repo, engine, prices, notifier, nil, "advisory-exports")
	}
	return NewService(repo, engine, prices, notifier, store, "advisory-exports")
}

// wheatField is owned by farmerID, cropped with wheat at flowering on
// loamy soil under drip irrigation.
func wheatField(farmerID uuid.UUID) *FieldProfile {
	return &FieldProfile{
		ID:               uuid.New(),
		FarmerID:         farmerID,
		Name:             "North Plot",
		Village:          "Khanna",
		AreaHectares:     2.0,
		SoilTexture:      "loamy",
		IrrigationMethod: "drip",
		CurrentCrop:      "wheat",
		CurrentStage:     "flowering",
	}
}

// wheatSample scores 8.4 against the wheat ideals: pH hits the target,
// the nutrient ramps each sit at 8.
func wheatSample() agronomy.SoilSample {
	return agronomy.SoilSample{
		PH:                   6.5,
		Nitrogen:             100,
		Phosphorus:           40,
		Potassium:            320,
		OrganicMatterPercent: 4,
	}
}

func sampledWheatField(farmerID uuid.UUID) *FieldProfile {
	field := wheatField(farmerID)
	raw, _ := json.Marshal(wheatSample())
	now := time.Now().UTC()
	field.LastSoilSample = datatypes.JSON(raw)
	field.LastSampledAt = &now
	return field
}

// weeklyHistory returns n weekly quotes ending a week ago, starting at
// start and moving by weeklyStep per point.
func weeklyHistory(n int, start, weeklyStep float64) []agronomy.PricePoint {
	end := time.Now().UTC().AddDate(0, 0, -7)
	points := make([]agronomy.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, agronomy.PricePoint{
			Date:            end.AddDate(0, 0, -7*(n-1-i)),
			PricePerQuintal: start + weeklyStep*float64(i),
		})
	}
	return points
}

// calmConditions keeps every yield factor inside the risk band and the
// moisture reading at the optimal threshold, so no alert fires.
func calmConditions() AdvisoryRequest {
	return AdvisoryRequest{
		Yield: FieldYieldRequest{
			SeasonalRainfallMm: 500,
			AvgTemperatureC:    20,
			AvgHumidityPercent: 65,
			Fertilizer:         agronomy.FertilizerApplication{Nitrogen: 100, Phosphorus: 50, Potassium: 50},
		},
		Irrigation: FieldIrrigationRequest{
			SoilMoisturePercent: 72,
			TemperatureC:        22,
			HumidityPercent:     60,
			WindSpeedKmh:        5,
			DaysSinceRain:       0,
		},
		HorizonDays:   28,
		HarvestInDays: 30,
	}
}

func TestCreateField(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil, nil)
	farmerID := uuid.New()

	mockRepo.On("CreateField", mock.Anything, mock.MatchedBy(func(f *FieldProfile) bool {
		return f.FarmerID == farmerID &&
			f.Name == "North Plot" &&
			f.SoilTexture == "loamy" &&
			f.IrrigationMethod == "drip" &&
			f.CurrentCrop == "wheat" &&
			f.CurrentStage == "flowering" &&
			f.ID != uuid.Nil
	})).Return(nil)

	field, err := service.CreateField(context.Background(), farmerID, &CreateFieldRequest{
		Name:             "  North Plot ",
		Village:          "Khanna",
		AreaHectares:     2.0,
		SoilTexture:      "Loamy",
		IrrigationMethod: " DRIP ",
		CurrentCrop:      "Wheat",
		CurrentStage:     "Flowering",
		Tags:             []string{"rabi", "irrigated"},
	})

	require.NoError(t, err)
	assert.Equal(t, "North Plot", field.Name)
	assert.Equal(t, []string{"rabi", "irrigated"}, []string(field.Tags))
	mockRepo.AssertExpectations(t)
}

func TestCreateFieldValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateFieldRequest
		wantErr error
	}{
		{
			name: "blank name",
			req: CreateFieldRequest{
				Name: "   ", AreaHectares: 1, SoilTexture: "loamy", IrrigationMethod: "drip",
			},
			wantErr: agronomy.ErrInvalidInput,
		},
		{
			name: "zero area",
			req: CreateFieldRequest{
				Name: "Plot", AreaHectares: 0, SoilTexture: "loamy", IrrigationMethod: "drip",
			},
			wantErr: agronomy.ErrInvalidInput,
		},
		{
			name: "unknown texture",
			req: CreateFieldRequest{
				Name: "Plot", AreaHectares: 1, SoilTexture: "chalky", IrrigationMethod: "drip",
			},
			wantErr: agronomy.ErrUnknownSoilTexture,
		},
		{
			name: "unknown method",
			req: CreateFieldRequest{
				Name: "Plot", AreaHectares: 1, SoilTexture: "loamy", IrrigationMethod: "bucket",
			},
			wantErr: agronomy.ErrUnknownIrrigationMethod,
		},
		{
			name: "unknown crop",
			req: CreateFieldRequest{
				Name: "Plot", AreaHectares: 1, SoilTexture: "loamy", IrrigationMethod: "drip",
				CurrentCrop: "quinoa",
			},
			wantErr: agronomy.ErrUnknownCrop,
		},
		{
			name: "unknown stage",
			req: CreateFieldRequest{
				Name: "Plot", AreaHectares: 1, SoilTexture: "loamy", IrrigationMethod: "drip",
				CurrentCrop: "wheat", CurrentStage: "sprouting",
			},
			wantErr: agronomy.ErrUnknownGrowthStage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo, nil, nil, nil)

			_, err := service.CreateField(context.Background(), uuid.New(), &tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUpdateFieldAppliesPartialChanges(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil, nil)
	farmerID := uuid.New()
	existing := wheatField(farmerID)

	newName := "South Plot"
	newArea := 3.5
	mockRepo.On("GetFieldByID", mock.Anything, existing.ID).Return(existing, nil)
	mockRepo.On("UpdateField", mock.Anything, mock.MatchedBy(func(f *FieldProfile) bool {
		return f.Name == "South Plot" && f.AreaHectares == 3.5 && f.CurrentCrop == "wheat"
	})).Return(nil)

	field, err := service.UpdateField(context.Background(), farmerID, existing.ID, &UpdateFieldRequest{
		Name:         &newName,
		AreaHectares: &newArea,
	})

	require.NoError(t, err)
	assert.Equal(t, "South Plot", field.Name)
	assert.Equal(t, 3.5, field.AreaHectares)
	assert.Equal(t, "Khanna", field.Village)
	mockRepo.AssertExpectations(t)
}

func TestGetFieldHidesForeignFields(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil, nil)
	field := wheatField(uuid.New())

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)

	_, err := service.GetField(context.Background(), uuid.New(), field.ID)

	assert.ErrorIs(t, err, ErrFieldNotFound)
	mockRepo.AssertExpectations(t)
}

func TestScoreFieldSoilPersistsSample(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil, nil)
	farmerID := uuid.New()
	field := wheatField(farmerID)

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)
	mockRepo.On("UpdateField", mock.Anything, mock.MatchedBy(func(f *FieldProfile) bool {
		if len(f.LastSoilSample) == 0 || f.LastSampledAt == nil {
			return false
		}
		var stored agronomy.SoilSample
		if err := json.Unmarshal(f.LastSoilSample, &stored); err != nil {
			return false
		}
		return stored == wheatSample()
	})).Return(nil)

	report, err := service.ScoreFieldSoil(context.Background(), farmerID, field.ID, wheatSample())

	require.NoError(t, err)
	assert.InDelta(t, 8.4, report.Score, 1e-9)
	assert.Equal(t, agronomy.CropID("wheat"), report.Crop)
	mockRepo.AssertExpectations(t)
}

func TestPredictFieldYieldRequiresSample(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil, nil)
	farmerID := uuid.New()
	field := wheatField(farmerID)

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)

	_, err := service.PredictFieldYield(context.Background(), farmerID, field.ID, &FieldYieldRequest{
		SeasonalRainfallMm: 500, AvgTemperatureC: 20, AvgHumidityPercent: 65,
	})

	assert.ErrorIs(t, err, agronomy.ErrInvalidInput)
	mockRepo.AssertExpectations(t)
}

func TestPredictFieldYieldNotifiesOnRisk(t *testing.T) {
	mockRepo := new(MockRepository)
	mockNotifier := new(MockNotifier)
	service := newTestService(mockRepo, nil, mockNotifier, nil)
	farmerID := uuid.New()
	field := sampledWheatField(farmerID)

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)
	mockNotifier.On("PublishAlert", mock.Anything, mock.MatchedBy(func(a *AdvisoryAlert) bool {
		return a.Kind == AlertYieldRisk &&
			a.FieldID == field.ID &&
			a.FarmerID == farmerID &&
			strings.Contains(a.Message, "low_rainfall_factor")
	})).Return()

	// 150 mm against a 500 mm reference puts the rainfall factor at
	// 0.3, well under the risk threshold.
	forecast, err := service.PredictFieldYield(context.Background(), farmerID, field.ID, &FieldYieldRequest{
		SeasonalRainfallMm: 150,
		AvgTemperatureC:    20,
		AvgHumidityPercent: 65,
		Fertilizer:         agronomy.FertilizerApplication{Nitrogen: 100, Phosphorus: 50, Potassium: 50},
	})

	require.NoError(t, err)
	assert.Contains(t, forecast.RiskFlags, "low_rainfall_factor")
	assert.InDelta(t, 0.3, forecast.Factors.Rainfall, 1e-9)
	mockRepo.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestAssessFieldIrrigationAlertsWhenUrgent(t *testing.T) {
	mockRepo := new(MockRepository)
	mockNotifier := new(MockNotifier)
	service := newTestService(mockRepo, nil, mockNotifier, nil)
	farmerID := uuid.New()
	field := wheatField(farmerID)

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)
	mockNotifier.On("PublishAlert", mock.Anything, mock.MatchedBy(func(a *AdvisoryAlert) bool {
		return a.Kind == AlertIrrigationUrgent && a.Severity == "critical"
	})).Return()

	advice, err := service.AssessFieldIrrigation(context.Background(), farmerID, field.ID, &FieldIrrigationRequest{
		SoilMoisturePercent: 10,
		TemperatureC:        36,
		HumidityPercent:     20,
		WindSpeedKmh:        18,
		DaysSinceRain:       5,
	})

	require.NoError(t, err)
	assert.Equal(t, agronomy.IrrigateNow, advice.Urgency)
	assert.Equal(t, agronomy.MoistureDeficit, advice.Status)
	assert.Greater(t, advice.WaterDeficitMm, 90.0)
	mockRepo.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestAssessFieldIrrigationStaysQuietWhenOptimal(t *testing.T) {
	mockRepo := new(MockRepository)
	mockNotifier := new(MockNotifier)
	service := newTestService(mockRepo, nil, mockNotifier, nil)
	farmerID := uuid.New()
	field := wheatField(farmerID)

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)

	req := calmConditions().Irrigation
	advice, err := service.AssessFieldIrrigation(context.Background(), farmerID, field.ID, &req)

	require.NoError(t, err)
	assert.Equal(t, agronomy.MoistureOptimal, advice.Status)
	assert.NotEqual(t, agronomy.IrrigateNow, advice.Urgency)
	mockNotifier.AssertNotCalled(t, "PublishAlert", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestBuildFieldAdvisoryComposesAllSections(t *testing.T) {
	mockRepo := new(MockRepository)
	mockPrices := new(MockPriceHistory)
	service := newTestService(mockRepo, mockPrices, nil, nil)
	farmerID := uuid.New()
	field := sampledWheatField(farmerID)

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)
	mockPrices.On("History", mock.Anything, agronomy.CropID("wheat")).
		Return(weeklyHistory(10, 2000, 30), nil)

	req := calmConditions()
	advisory, err := service.BuildFieldAdvisory(context.Background(), farmerID, field.ID, &req)

	require.NoError(t, err)
	assert.Equal(t, field.ID, advisory.FieldID)
	assert.Equal(t, agronomy.CropID("wheat"), advisory.Crop)
	require.NotNil(t, advisory.Soil)
	require.NotNil(t, advisory.Yield)
	require.NotNil(t, advisory.Irrigation)
	require.NotNil(t, advisory.Prices)
	require.NotNil(t, advisory.Profit)
	require.NotNil(t, advisory.Rotation)

	// Soil 8.4/7 scales the 4.5 t/ha base; every other factor is 1.
	assert.InDelta(t, 8.4, advisory.Soil.Score, 1e-9)
	assert.InDelta(t, 5.4, advisory.Yield.YieldTonnesPerHa, 1e-3)
	assert.Empty(t, advisory.Yield.RiskFlags)
	assert.Len(t, advisory.Prices.Points, 4)
	assert.Equal(t, advisory.Yield.YieldTonnesPerHa, advisory.Profit.ExpectedYieldTonnesPerHa)
	assert.NotEmpty(t, advisory.Rotation.Candidates)
	for _, candidate := range advisory.Rotation.Candidates {
		assert.NotEqual(t, agronomy.CropID("wheat"), candidate.Crop)
	}
	assert.Empty(t, advisory.Warnings)

	mockRepo.AssertExpectations(t)
	mockPrices.AssertExpectations(t)
}

func TestExportFieldReportUploadsAndCompletes(t *testing.T) {
	mockRepo := new(MockRepository)
	mockPrices := new(MockPriceHistory)
	mockS3 := new(MockS3Client)
	service := newTestService(mockRepo, mockPrices, nil, mockS3)
	farmerID := uuid.New()
	field := sampledWheatField(farmerID)

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)
	mockPrices.On("History", mock.Anything, agronomy.CropID("wheat")).
		Return(weeklyHistory(10, 2000, 30), nil)
	mockRepo.On("CreateExport", mock.Anything, mock.MatchedBy(func(e *ExportExecution) bool {
		return e.Status == ExportStatusPending && e.FieldID == field.ID && e.FarmerID == farmerID
	})).Return(nil)
	mockS3.On("Upload", mock.Anything, "advisory-exports", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "exports/advisory/"+field.ID.String()+"/") &&
			strings.HasSuffix(key, ".csv")
	}), mock.Anything).Return(nil)
	mockS3.On("GetPresignedURL", mock.Anything, "advisory-exports", mock.Anything, downloadURLTTL).
		Return("https://s3.example.com/signed", nil)
	mockRepo.On("UpdateExport", mock.Anything, mock.MatchedBy(func(e *ExportExecution) bool {
		return e.Status == ExportStatusCompleted &&
			e.FileSizeBytes > 0 &&
			e.S3Key != "" &&
			e.DownloadURL == "https://s3.example.com/signed" &&
			e.CompletedAt != nil
	})).Return(nil)

	req := calmConditions()
	execution, err := service.ExportFieldReport(context.Background(), farmerID, field.ID, ExportFormatCSV, &req)

	require.NoError(t, err)
	assert.Equal(t, ExportStatusCompleted, execution.Status)
	assert.Contains(t, execution.FileName, "advisory-north-plot-")
	assert.True(t, strings.HasSuffix(execution.FileName, ".csv"))
	mockRepo.AssertExpectations(t)
	mockPrices.AssertExpectations(t)
	mockS3.AssertExpectations(t)
}

func TestExportFieldReportRejectsUnknownFormat(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil, nil)

	req := calmConditions()
	_, err := service.ExportFieldReport(context.Background(), uuid.New(), uuid.New(), ExportFormat("docx"), &req)

	assert.ErrorIs(t, err, agronomy.ErrInvalidInput)
	mockRepo.AssertExpectations(t)
}

func TestExportFieldReportMarksFailureOnUploadError(t *testing.T) {
	mockRepo := new(MockRepository)
	mockPrices := new(MockPriceHistory)
	mockS3 := new(MockS3Client)
	service := newTestService(mockRepo, mockPrices, nil, mockS3)
	farmerID := uuid.New()
	field := sampledWheatField(farmerID)

	mockRepo.On("GetFieldByID", mock.Anything, field.ID).Return(field, nil)
	mockPrices.On("History", mock.Anything, agronomy.CropID("wheat")).
		Return(weeklyHistory(10, 2000, 30), nil)
	mockRepo.On("CreateExport", mock.Anything, mock.Anything).Return(nil)
	mockS3.On("Upload", mock.Anything, "advisory-exports", mock.Anything, mock.Anything).
		Return(assert.AnError)
	mockRepo.On("UpdateExport", mock.Anything, mock.MatchedBy(func(e *ExportExecution) bool {
		return e.Status == ExportStatusFailed && e.ErrorMessage != ""
	})).Return(nil)

	req := calmConditions()
	_, err := service.ExportFieldReport(context.Background(), farmerID, field.ID, ExportFormatCSV, &req)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload")
	mockRepo.AssertExpectations(t)
	mockS3.AssertExpectations(t)
}

func TestGetExportHidesForeignExports(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil, nil)
	execution := &ExportExecution{ID: uuid.New(), FarmerID: uuid.New(), Status: ExportStatusCompleted}

	mockRepo.On("GetExportByID", mock.Anything, execution.ID).Return(execution, nil)

	_, err := service.GetExport(context.Background(), uuid.New(), execution.ID)

	assert.ErrorIs(t, err, ErrExportNotFound)
	mockRepo.AssertExpectations(t)
}

func TestSeasonForMonth(t *testing.T) {
	assert.Equal(t, agronomy.SeasonRabi, seasonForMonth(time.December))
	assert.Equal(t, agronomy.SeasonRabi, seasonForMonth(time.March))
	assert.Equal(t, agronomy.SeasonSummer, seasonForMonth(time.April))
	assert.Equal(t, agronomy.SeasonSummer, seasonForMonth(time.May))
	assert.Equal(t, agronomy.SeasonKharif, seasonForMonth(time.June))
	assert.Equal(t, agronomy.SeasonKharif, seasonForMonth(time.October))
	assert.Equal(t, agronomy.SeasonRabi, seasonForMonth(time.November))
}
