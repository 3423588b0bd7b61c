package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// Broadcaster pushes a recomputed forecast to subscribed portal clients.
type Broadcaster interface {
	BroadcastPriceUpdate(ctx context.Context, crop string, forecast *agronomy.PriceForecast) error
}

// RefresherConfig controls the forecast refresh schedule.
type RefresherConfig struct {
	Cron        string
	HorizonDays int
	RunTimeout  time.Duration
}

// DefaultRefresherConfig returns default configuration
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Cron:        "0 6 * * *",
		HorizonDays: 90,
		RunTimeout:  5 * time.Minute,
	}
}

// Refresher recomputes price forecasts on a cron schedule and streams
// them to subscribed clients. Forecasts are never stored; each run is a
// recompute over the quotes present at that moment. It must live in the
// same process as the websocket hub it broadcasts through.
type Refresher struct {
	service     Service
	catalog     *agronomy.Catalog
	broadcaster Broadcaster
	config      RefresherConfig
	cron        *cron.Cron
	logger      *zap.Logger
	mu          sync.Mutex
	running     bool
}

// NewRefresher creates a forecast refresher. Zero config fields fall
// back to the defaults.
func NewRefresher(service Service, catalog *agronomy.Catalog, broadcaster Broadcaster, config RefresherConfig, logger *zap.Logger) *Refresher {
	defaults := DefaultRefresherConfig()
	if config.Cron == "" {
		config.Cron = defaults.Cron
	}
	if config.HorizonDays < 1 {
		config.HorizonDays = defaults.HorizonDays
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = defaults.RunTimeout
	}

	return &Refresher{
		service:     service,
		catalog:     catalog,
		broadcaster: broadcaster,
		config:      config,
		cron:        cron.New(),
		logger:      logger,
	}
}

// Start registers the cron entry and begins the schedule.
func (r *Refresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("forecast refresher already running")
	}

	_, err := r.cron.AddFunc(r.config.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.RunTimeout)
		defer cancel()
		r.RefreshAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule forecast refresh: %w", err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("Forecast refresher started",
		zap.String("cron", r.config.Cron),
		zap.Int("horizon_days", r.config.HorizonDays))

	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()
	r.running = false

	r.logger.Info("Forecast refresher stopped")
}

// RefreshAll recomputes the forecast for every catalog crop that has
// stored quotes and broadcasts each result. It returns the number of
// forecasts pushed. Crops without quotes are skipped; a crop whose
// quotes only anchor a low-confidence forecast is still pushed, with
// its warnings attached.
func (r *Refresher) RefreshAll(ctx context.Context) int {
	refreshed := 0
	for _, profile := range r.catalog.Profiles() {
		select {
		case <-ctx.Done():
			r.logger.Warn("Forecast refresh interrupted",
				zap.Int("refreshed", refreshed), zap.Error(ctx.Err()))
			return refreshed
		default:
		}

		if r.refreshCrop(ctx, profile.ID) {
			refreshed++
		}
	}

	if refreshed > 0 {
		r.logger.Info("Price forecasts refreshed", zap.Int("crops", refreshed))
	}
	return refreshed
}

// refreshCrop recomputes and broadcasts one crop's forecast. A crop is
// skipped, not failed, when it has no quotes in the stats window.
func (r *Refresher) refreshCrop(ctx context.Context, crop agronomy.CropID) bool {
	stats, err := r.service.GetPriceStats(ctx, string(crop), 0)
	if err != nil {
		r.logger.Error("Failed to read price stats",
			zap.String("crop", string(crop)), zap.Error(err))
		return false
	}
	if stats.Observations == 0 {
		return false
	}

	forecast, err := r.service.ForecastPrices(ctx, &ForecastRequest{
		CropID:      string(crop),
		HorizonDays: r.config.HorizonDays,
	})
	if err != nil {
		r.logger.Error("Failed to recompute forecast",
			zap.String("crop", string(crop)), zap.Error(err))
		return false
	}

	if err := r.broadcaster.BroadcastPriceUpdate(ctx, string(crop), forecast); err != nil {
		r.logger.Error("Failed to broadcast forecast",
			zap.String("crop", string(crop)), zap.Error(err))
		return false
	}

	return true
}
