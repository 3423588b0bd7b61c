package market

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreatePrice(ctx context.Context, price *Price) error {
	args := m.Called(ctx, price)
	return args.Error(0)
}

func (m *MockRepository) GetPrice(ctx context.Context, id uuid.UUID) (*Price, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Price), args.Error(1)
}

func (m *MockRepository) ListPrices(ctx context.Context, filters *PriceFilters) ([]*Price, int, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*Price), args.Int(1), args.Error(2)
}

func (m *MockRepository) GetHistory(ctx context.Context, cropID string, since time.Time) ([]*Price, error) {
	args := m.Called(ctx, cropID, since)
	return args.Get(0).([]*Price), args.Error(1)
}

func (m *MockRepository) GetLatestPrice(ctx context.Context, cropID string) (*Price, error) {
	args := m.Called(ctx, cropID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Price), args.Error(1)
}

func (m *MockRepository) GetPriceStats(ctx context.Context, cropID string, since time.Time) (*PriceStats, error) {
	args := m.Called(ctx, cropID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PriceStats), args.Error(1)
}

func (m *MockRepository) DeletePrice(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService(repo Repository) Service {
	return NewService(repo, agronomy.NewEngine(nil))
}

// weeklyRows builds n weekly quotes ending seven days before now,
// stepping the price by weeklyChange.
func weeklyRows(n int, start, weeklyChange float64) []*Price {
	now := time.Now().UTC()
	rows := make([]*Price, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, &Price{
			ID:              uuid.New(),
			CropID:          "wheat",
			Market:          "khanna",
			PricePerQuintal: start + float64(i)*weeklyChange,
			RecordedAt:      now.AddDate(0, 0, -7*(n-i)),
			CreatedAt:       now,
		})
	}
	return rows
}

func TestRecordPrice(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	recordedAt := time.Date(2025, time.March, 3, 11, 0, 0, 0, time.UTC)
	req := &RecordPriceRequest{
		CropID:          "Wheat",
		Market:          "  khanna ",
		PricePerQuintal: 2250,
		RecordedAt:      &recordedAt,
		Source:          "mandi board",
	}

	mockRepo.On("CreatePrice", ctx, mock.AnythingOfType("*market.Price")).Return(nil)

	price, err := service.RecordPrice(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, price)
	assert.NotEqual(t, uuid.Nil, price.ID)
	assert.Equal(t, "wheat", price.CropID)
	assert.Equal(t, "khanna", price.Market)
	assert.Equal(t, 2250.0, price.PricePerQuintal)
	assert.True(t, price.RecordedAt.Equal(recordedAt))

	mockRepo.AssertExpectations(t)
}

func TestRecordPriceDefaultsRecordedAt(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	mockRepo.On("CreatePrice", ctx, mock.AnythingOfType("*market.Price")).Return(nil)

	price, err := service.RecordPrice(ctx, &RecordPriceRequest{
		CropID:          "maize",
		Market:          "ludhiana",
		PricePerQuintal: 1800,
	})

	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), price.RecordedAt, 5*time.Second)

	mockRepo.AssertExpectations(t)
}

func TestRecordPriceValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     *RecordPriceRequest
		wantErr error
	}{
		{
			name:    "unknown crop",
			req:     &RecordPriceRequest{CropID: "quinoa", Market: "khanna", PricePerQuintal: 2000},
			wantErr: agronomy.ErrUnknownCrop,
		},
		{
			name:    "non-positive price",
			req:     &RecordPriceRequest{CropID: "wheat", Market: "khanna", PricePerQuintal: 0},
			wantErr: agronomy.ErrInvalidInput,
		},
		{
			name:    "blank market",
			req:     &RecordPriceRequest{CropID: "wheat", Market: "   ", PricePerQuintal: 2000},
			wantErr: agronomy.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)

			price, err := service.RecordPrice(context.Background(), tt.req)

			assert.Nil(t, price)
			assert.ErrorIs(t, err, tt.wantErr)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestListPricesAppliesPagingDefaults(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	mockRepo.On("ListPrices", ctx, mock.MatchedBy(func(f *PriceFilters) bool {
		return f.Page == 1 && f.PageSize == 50
	})).Return([]*Price{}, 0, nil)

	_, total, err := service.ListPrices(ctx, &PriceFilters{})

	assert.NoError(t, err)
	assert.Equal(t, 0, total)
	mockRepo.AssertExpectations(t)
}

func TestForecastPricesFromStoredHistory(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	rows := weeklyRows(10, 2000, 30)
	mockRepo.On("GetHistory", ctx, "wheat", mock.AnythingOfType("time.Time")).Return(rows, nil)

	forecast, err := service.ForecastPrices(ctx, &ForecastRequest{CropID: "wheat", HorizonDays: 28})

	assert.NoError(t, err)
	assert.Equal(t, agronomy.CropID("wheat"), forecast.Crop)
	assert.Equal(t, 2270.0, forecast.AnchorPrice)
	assert.Greater(t, forecast.TrendPerWeek, 0.0)
	assert.Empty(t, forecast.Warnings)

	offsets := make([]int, 0, len(forecast.Points))
	for _, p := range forecast.Points {
		offsets = append(offsets, p.DayOffset)
		assert.Greater(t, p.PricePerQuintal, 0.0)
		assert.GreaterOrEqual(t, p.LowerBand, 0.0)
	}
	assert.Equal(t, []int{7, 14, 21, 28}, offsets)
	assert.InDelta(t, 0.88, forecast.Points[0].Confidence, 1e-9)
	assert.InDelta(t, 0.76, forecast.Points[3].Confidence, 1e-9)

	mockRepo.AssertExpectations(t)
}

func TestForecastPricesUnknownCropSkipsRepository(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	forecast, err := service.ForecastPrices(context.Background(), &ForecastRequest{CropID: "quinoa", HorizonDays: 28})

	assert.Nil(t, forecast)
	assert.ErrorIs(t, err, agronomy.ErrUnknownCrop)
	mockRepo.AssertExpectations(t)
}

func TestEstimateProfitWithEmptyHistory(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	mockRepo.On("GetHistory", ctx, "wheat", mock.AnythingOfType("time.Time")).Return([]*Price{}, nil)

	estimate, err := service.EstimateProfit(ctx, &ProfitRequest{
		CropID:                   "wheat",
		HarvestInDays:            0,
		ExpectedYieldTonnesPerHa: 2,
		AreaHectares:             1,
	})

	assert.NoError(t, err)
	// No stored quotes anchors the estimate at the catalog base price.
	assert.Equal(t, 2200.0, estimate.PricePerQuintal)
	assert.Equal(t, 44000.0, estimate.RevenueTotal)
	assert.Equal(t, 35000.0, estimate.CostTotal)
	assert.Equal(t, 9000.0, estimate.ProfitTotal)
	assert.Equal(t, 1750.0, estimate.BreakEvenPricePerQuintal)
	assert.Contains(t, estimate.Warnings, agronomy.WarningLowConfidenceForecast)

	mockRepo.AssertExpectations(t)
}

func TestGetPriceStatsDefaultsWindow(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	want := &PriceStats{CropID: "wheat", Observations: 12, MinPrice: 2100, MaxPrice: 2350, AvgPrice: 2230}
	mockRepo.On("GetPriceStats", ctx, "wheat", mock.MatchedBy(func(since time.Time) bool {
		return time.Since(since) > 89*24*time.Hour && time.Since(since) < 91*24*time.Hour
	})).Return(want, nil)

	stats, err := service.GetPriceStats(ctx, "wheat", 0)

	assert.NoError(t, err)
	assert.Equal(t, want, stats)
	mockRepo.AssertExpectations(t)
}

func TestGetLatestPriceUnknownCrop(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	price, err := service.GetLatestPrice(context.Background(), "quinoa")

	assert.Nil(t, price)
	assert.ErrorIs(t, err, agronomy.ErrUnknownCrop)
	mockRepo.AssertExpectations(t)
}

func TestGetLatestPriceNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	mockRepo.On("GetLatestPrice", ctx, "mustard").Return(nil, ErrPriceNotFound)

	price, err := service.GetLatestPrice(ctx, "mustard")

	assert.Nil(t, price)
	assert.ErrorIs(t, err, ErrPriceNotFound)
	mockRepo.AssertExpectations(t)
}
