package market

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// Handler handles HTTP requests for market price operations
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new market handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers market routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	market := router.Group("/market")
	{
		// Price ingest and query endpoints
		market.POST("/prices", h.recordPrice)
		market.GET("/prices", h.listPrices)
		market.GET("/prices/:id", h.getPrice)
		market.DELETE("/prices/:id", h.deletePrice)
		market.GET("/crops/:crop/latest", h.getLatestPrice)
		market.GET("/crops/:crop/stats", h.getPriceStats)

		// Model endpoints over the stored history
		market.POST("/forecast", h.forecastPrices)
		market.POST("/profit", h.estimateProfit)
	}
}

// recordPrice handles POST /api/v1/market/prices
func (h *Handler) recordPrice(c *gin.Context) {
	var req RecordPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := h.service.RecordPrice(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to record price", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, price)
}

// listPrices handles GET /api/v1/market/prices
func (h *Handler) listPrices(c *gin.Context) {
	filters := &PriceFilters{
		Page:     h.getIntParam(c, "page", 1),
		PageSize: h.getIntParam(c, "page_size", 50),
	}

	// Parse optional filters
	if crop := c.Query("crop"); crop != "" {
		filters.CropID = &crop
	}
	if market := c.Query("market"); market != "" {
		filters.Market = &market
	}
	if after := c.Query("recorded_after"); after != "" {
		if t, err := time.Parse(time.RFC3339, after); err == nil {
			filters.RecordedAfter = &t
		}
	}
	if before := c.Query("recorded_before"); before != "" {
		if t, err := time.Parse(time.RFC3339, before); err == nil {
			filters.RecordedBefore = &t
		}
	}

	prices, total, err := h.service.ListPrices(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("Failed to list prices", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prices":    prices,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// getPrice handles GET /api/v1/market/prices/:id
func (h *Handler) getPrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price ID"})
		return
	}

	price, err := h.service.GetPrice(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get price", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, price)
}

// deletePrice handles DELETE /api/v1/market/prices/:id
func (h *Handler) deletePrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price ID"})
		return
	}

	if err := h.service.DeletePrice(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete price", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Price deleted successfully"})
}

// getLatestPrice handles GET /api/v1/market/crops/:crop/latest
func (h *Handler) getLatestPrice(c *gin.Context) {
	price, err := h.service.GetLatestPrice(c.Request.Context(), c.Param("crop"))
	if err != nil {
		h.logger.Error("Failed to get latest price", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, price)
}

// getPriceStats handles GET /api/v1/market/crops/:crop/stats
func (h *Handler) getPriceStats(c *gin.Context) {
	windowDays := h.getIntParam(c, "window_days", 0)

	stats, err := h.service.GetPriceStats(c.Request.Context(), c.Param("crop"), windowDays)
	if err != nil {
		h.logger.Error("Failed to get price stats", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// forecastPrices handles POST /api/v1/market/forecast
func (h *Handler) forecastPrices(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	forecast, err := h.service.ForecastPrices(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to forecast prices", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, forecast)
}

// estimateProfit handles POST /api/v1/market/profit
func (h *Handler) estimateProfit(c *gin.Context) {
	var req ProfitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	estimate, err := h.service.EstimateProfit(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to estimate profit", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// statusForError maps model and repository errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, agronomy.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, agronomy.ErrUnknownCrop), errors.Is(err, ErrPriceNotFound):
		return http.StatusNotFound
	case errors.Is(err, agronomy.ErrUnknownGrowthStage),
		errors.Is(err, agronomy.ErrUnknownSoilTexture),
		errors.Is(err, agronomy.ErrUnknownIrrigationMethod):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// getIntParam gets an integer query parameter with a default value
func (h *Handler) getIntParam(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
