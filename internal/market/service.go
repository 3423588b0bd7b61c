package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// historyWindowDays bounds how far back stored quotes feed the price
// model. The model trims to its own trend window on top of this.
const historyWindowDays = 180

// defaultStatsWindowDays is the stats lookback when the caller gives none.
const defaultStatsWindowDays = 90

// Service defines the interface for market price operations
type Service interface {
	RecordPrice(ctx context.Context, req *RecordPriceRequest) (*Price, error)
	GetPrice(ctx context.Context, id uuid.UUID) (*Price, error)
	ListPrices(ctx context.Context, filters *PriceFilters) ([]*Price, int, error)
	DeletePrice(ctx context.Context, id uuid.UUID) error
	GetLatestPrice(ctx context.Context, cropID string) (*Price, error)
	GetPriceStats(ctx context.Context, cropID string, windowDays int) (*PriceStats, error)

	// History returns stored quotes as model input points, oldest first.
	History(ctx context.Context, crop agronomy.CropID) ([]agronomy.PricePoint, error)
	ForecastPrices(ctx context.Context, req *ForecastRequest) (*agronomy.PriceForecast, error)
	EstimateProfit(ctx context.Context, req *ProfitRequest) (*agronomy.ProfitEstimate, error)
}

type marketService struct {
	repo   Repository
	engine *agronomy.Engine
}

// NewService creates a new market price service
func NewService(repo Repository, engine *agronomy.Engine) Service {
	return &marketService{repo: repo, engine: engine}
}

func (s *marketService) RecordPrice(ctx context.Context, req *RecordPriceRequest) (*Price, error) {
	crop := agronomy.CropID(strings.ToLower(strings.TrimSpace(req.CropID)))
	if !s.engine.Catalog().Has(crop) {
		return nil, fmt.Errorf("%w: %q", agronomy.ErrUnknownCrop, req.CropID)
	}
	if req.PricePerQuintal <= 0 {
		return nil, fmt.Errorf("%w: price_per_quintal must be positive", agronomy.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Market) == "" {
		return nil, fmt.Errorf("%w: market is required", agronomy.ErrInvalidInput)
	}

	recordedAt := time.Now().UTC()
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}

	price := &Price{
		ID:              uuid.New(),
		CropID:          string(crop),
		Market:          strings.TrimSpace(req.Market),
		PricePerQuintal: req.PricePerQuintal,
		RecordedAt:      recordedAt,
		Source:          strings.TrimSpace(req.Source),
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.CreatePrice(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to record price: %w", err)
	}

	return price, nil
}

func (s *marketService) GetPrice(ctx context.Context, id uuid.UUID) (*Price, error) {
	return s.repo.GetPrice(ctx, id)
}

func (s *marketService) ListPrices(ctx context.Context, filters *PriceFilters) ([]*Price, int, error) {
	if filters.PageSize < 1 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	return s.repo.ListPrices(ctx, filters)
}

func (s *marketService) DeletePrice(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePrice(ctx, id)
}

func (s *marketService) GetLatestPrice(ctx context.Context, cropID string) (*Price, error) {
	crop := agronomy.CropID(strings.ToLower(strings.TrimSpace(cropID)))
	if !s.engine.Catalog().Has(crop) {
		return nil, fmt.Errorf("%w: %q", agronomy.ErrUnknownCrop, cropID)
	}
	return s.repo.GetLatestPrice(ctx, string(crop))
}

func (s *marketService) GetPriceStats(ctx context.Context, cropID string, windowDays int) (*PriceStats, error) {
	crop := agronomy.CropID(strings.ToLower(strings.TrimSpace(cropID)))
	if !s.engine.Catalog().Has(crop) {
		return nil, fmt.Errorf("%w: %q", agronomy.ErrUnknownCrop, cropID)
	}
	if windowDays < 1 {
		windowDays = defaultStatsWindowDays
	}

	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	return s.repo.GetPriceStats(ctx, string(crop), since)
}

func (s *marketService) History(ctx context.Context, crop agronomy.CropID) ([]agronomy.PricePoint, error) {
	since := time.Now().UTC().AddDate(0, 0, -historyWindowDays)
	prices, err := s.repo.GetHistory(ctx, string(crop), since)
	if err != nil {
		return nil, err
	}

	points := make([]agronomy.PricePoint, 0, len(prices))
	for _, p := range prices {
		points = append(points, agronomy.PricePoint{
			Date:            p.RecordedAt,
			PricePerQuintal: p.PricePerQuintal,
		})
	}

	return points, nil
}

func (s *marketService) ForecastPrices(ctx context.Context, req *ForecastRequest) (*agronomy.PriceForecast, error) {
	crop := agronomy.CropID(strings.ToLower(strings.TrimSpace(req.CropID)))
	if !s.engine.Catalog().Has(crop) {
		return nil, fmt.Errorf("%w: %q", agronomy.ErrUnknownCrop, req.CropID)
	}

	history, err := s.History(ctx, crop)
	if err != nil {
		return nil, err
	}

	return s.engine.ForecastPrices(agronomy.PriceForecastInput{
		Crop:        crop,
		History:     history,
		HorizonDays: req.HorizonDays,
	})
}

func (s *marketService) EstimateProfit(ctx context.Context, req *ProfitRequest) (*agronomy.ProfitEstimate, error) {
	crop := agronomy.CropID(strings.ToLower(strings.TrimSpace(req.CropID)))
	if !s.engine.Catalog().Has(crop) {
		return nil, fmt.Errorf("%w: %q", agronomy.ErrUnknownCrop, req.CropID)
	}

	history, err := s.History(ctx, crop)
	if err != nil {
		return nil, err
	}

	return s.engine.EstimateProfit(agronomy.ProfitInput{
		Crop:                     crop,
		History:                  history,
		HarvestInDays:            req.HarvestInDays,
		ExpectedYieldTonnesPerHa: req.ExpectedYieldTonnesPerHa,
		AreaHectares:             req.AreaHectares,
		CostPerHaOverride:        req.CostPerHaOverride,
	})
}
