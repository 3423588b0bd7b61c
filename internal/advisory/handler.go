package advisory

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

// Handler handles HTTP requests for advisory operations
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new advisory handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the advisory routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	advisory := router.Group("/advisory")
	{
		advisory.POST("/soil-score", h.scoreSoil)
		advisory.POST("/yield", h.predictYield)
		advisory.POST("/irrigation", h.assessIrrigation)
		advisory.POST("/price-forecast", h.forecastPrices)
		advisory.POST("/rotation", h.planRotation)
		advisory.POST("/rotation/analyze", h.analyzeRotation)
	}

	catalog := router.Group("/catalog")
	{
		catalog.GET("/crops", h.listCrops)
		catalog.GET("/crops/:id", h.getCrop)
	}

	fields := router.Group("/fields")
	{
		fields.POST("", h.createField)
		fields.GET("", h.listFields)
		fields.GET("/:id", h.getField)
		fields.PUT("/:id", h.updateField)
		fields.DELETE("/:id", h.deleteField)
		fields.POST("/:id/soil-score", h.scoreFieldSoil)
		fields.POST("/:id/yield", h.predictFieldYield)
		fields.POST("/:id/irrigation", h.assessFieldIrrigation)
		fields.POST("/:id/rotation", h.planFieldRotation)
		fields.POST("/:id/advisory", h.buildFieldAdvisory)
		fields.POST("/:id/report", h.exportFieldReport)
	}

	exports := router.Group("/exports")
	{
		exports.GET("", h.listExports)
		exports.GET("/:id", h.getExport)
	}
}

// Stateless advisory endpoints

// scoreSoil handles POST /api/v1/advisory/soil-score
func (h *Handler) scoreSoil(c *gin.Context) {
	var in agronomy.SoilScoreInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.Crop = normalizeCropID(in.Crop)

	report, err := h.service.ScoreSoil(in)
	if err != nil {
		h.logger.Error("Failed to score soil sample", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// predictYield handles POST /api/v1/advisory/yield
func (h *Handler) predictYield(c *gin.Context) {
	var in agronomy.YieldInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.Crop = normalizeCropID(in.Crop)

	forecast, err := h.service.PredictYield(in)
	if err != nil {
		h.logger.Error("Failed to predict yield", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// assessIrrigation handles POST /api/v1/advisory/irrigation
func (h *Handler) assessIrrigation(c *gin.Context) {
	var in agronomy.IrrigationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.Crop = normalizeCropID(in.Crop)

	// Accept spelling variants for the three enums before the model
	// sees them.
	stage, err := agronomy.ParseGrowthStage(string(in.Stage))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	in.Stage = stage
	texture, err := agronomy.ParseSoilTexture(string(in.Texture))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	in.Texture = texture
	method, err := agronomy.ParseIrrigationMethod(string(in.Method))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	in.Method = method

	advice, err := h.service.AssessIrrigation(in)
	if err != nil {
		h.logger.Error("Failed to assess irrigation", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, advice)
}

// forecastPrices handles POST /api/v1/advisory/price-forecast
func (h *Handler) forecastPrices(c *gin.Context) {
	var in agronomy.PriceForecastInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.Crop = normalizeCropID(in.Crop)

	forecast, err := h.service.ForecastPrices(in)
	if err != nil {
		h.logger.Error("Failed to forecast prices", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// planRotation handles POST /api/v1/advisory/rotation
func (h *Handler) planRotation(c *gin.Context) {
	var in agronomy.RotationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.CurrentCrop = normalizeCropID(in.CurrentCrop)
	in.Season = agronomy.Season(strings.ToLower(strings.TrimSpace(string(in.Season))))

	plan, err := h.service.PlanRotation(in)
	if err != nil {
		h.logger.Error("Failed to plan rotation", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// analyzeRotation handles POST /api/v1/advisory/rotation/analyze
func (h *Handler) analyzeRotation(c *gin.Context) {
	var req struct {
		Sequence []string `json:"sequence" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sequence := make([]agronomy.CropID, 0, len(req.Sequence))
	for _, id := range req.Sequence {
		sequence = append(sequence, normalizeCropID(agronomy.CropID(id)))
	}

	analysis, err := h.service.AnalyzeRotation(sequence)
	if err != nil {
		h.logger.Error("Failed to analyze rotation sequence", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Crop catalog endpoints

// listCrops handles GET /api/v1/catalog/crops
func (h *Handler) listCrops(c *gin.Context) {
	crops := h.service.ListCrops()
	c.JSON(http.StatusOK, gin.H{
		"crops": crops,
		"total": len(crops),
	})
}

// getCrop handles GET /api/v1/catalog/crops/:id
func (h *Handler) getCrop(c *gin.Context) {
	crop, err := h.service.GetCrop(c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, crop)
}

// Field endpoints

// createField handles POST /api/v1/fields
func (h *Handler) createField(c *gin.Context) {
	var req CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	field, err := h.service.CreateField(c.Request.Context(), h.getUserID(c), &req)
	if err != nil {
		h.logger.Error("Failed to create field", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, field)
}

// listFields handles GET /api/v1/fields
func (h *Handler) listFields(c *gin.Context) {
	fields, err := h.service.ListFields(c.Request.Context(), h.getUserID(c))
	if err != nil {
		h.logger.Error("Failed to list fields", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fields": fields,
		"total":  len(fields),
	})
}

// getField handles GET /api/v1/fields/:id
func (h *Handler) getField(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}

	field, err := h.service.GetField(c.Request.Context(), h.getUserID(c), fieldID)
	if err != nil {
		h.logger.Error("Failed to get field", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, field)
}

// updateField handles PUT /api/v1/fields/:id
func (h *Handler) updateField(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	field, err := h.service.UpdateField(c.Request.Context(), h.getUserID(c), fieldID, &req)
	if err != nil {
		h.logger.Error("Failed to update field", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, field)
}

// deleteField handles DELETE /api/v1/fields/:id
func (h *Handler) deleteField(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}

	if err := h.service.DeleteField(c.Request.Context(), h.getUserID(c), fieldID); err != nil {
		h.logger.Error("Failed to delete field", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Field deleted successfully"})
}

// Field-scoped advisory endpoints

// scoreFieldSoil handles POST /api/v1/fields/:id/soil-score
func (h *Handler) scoreFieldSoil(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}
	var sample agronomy.SoilSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.ScoreFieldSoil(c.Request.Context(), h.getUserID(c), fieldID, sample)
	if err != nil {
		h.logger.Error("Failed to score field soil", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// predictFieldYield handles POST /api/v1/fields/:id/yield
func (h *Handler) predictFieldYield(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}
	var req FieldYieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	forecast, err := h.service.PredictFieldYield(c.Request.Context(), h.getUserID(c), fieldID, &req)
	if err != nil {
		h.logger.Error("Failed to predict field yield", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// assessFieldIrrigation handles POST /api/v1/fields/:id/irrigation
func (h *Handler) assessFieldIrrigation(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}
	var req FieldIrrigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	advice, err := h.service.AssessFieldIrrigation(c.Request.Context(), h.getUserID(c), fieldID, &req)
	if err != nil {
		h.logger.Error("Failed to assess field irrigation", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, advice)
}

// planFieldRotation handles POST /api/v1/fields/:id/rotation
func (h *Handler) planFieldRotation(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}
	// The body is optional; season and top_n have sensible defaults.
	var req FieldRotationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	plan, err := h.service.PlanFieldRotation(c.Request.Context(), h.getUserID(c), fieldID, &req)
	if err != nil {
		h.logger.Error("Failed to plan field rotation", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// buildFieldAdvisory handles POST /api/v1/fields/:id/advisory
func (h *Handler) buildFieldAdvisory(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}
	var req AdvisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	advisory, err := h.service.BuildFieldAdvisory(c.Request.Context(), h.getUserID(c), fieldID, &req)
	if err != nil {
		h.logger.Error("Failed to build field advisory", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, advisory)
}

// Export endpoints

// exportFieldReport handles POST /api/v1/fields/:id/report?format=csv|excel|pdf
func (h *Handler) exportFieldReport(c *gin.Context) {
	fieldID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field ID"})
		return
	}
	format := ExportFormat(strings.ToLower(c.DefaultQuery("format", "pdf")))
	var req AdvisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	execution, err := h.service.ExportFieldReport(c.Request.Context(), h.getUserID(c), fieldID, format, &req)
	if err != nil {
		h.logger.Error("Failed to export field report", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, execution)
}

// listExports handles GET /api/v1/exports
func (h *Handler) listExports(c *gin.Context) {
	limit := h.getIntParam(c, "limit", 20)

	executions, err := h.service.ListExports(c.Request.Context(), h.getUserID(c), limit)
	if err != nil {
		h.logger.Error("Failed to list exports", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"exports": executions,
		"total":   len(executions),
	})
}

// getExport handles GET /api/v1/exports/:id
func (h *Handler) getExport(c *gin.Context) {
	exportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid export ID"})
		return
	}

	execution, err := h.service.GetExport(c.Request.Context(), h.getUserID(c), exportID)
	if err != nil {
		h.logger.Error("Failed to get export", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, execution)
}

// Helpers

// getUserID extracts the farmer ID set by the auth middleware, with a
// header fallback for unauthenticated deployments.
func (h *Handler) getUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	if header := c.GetHeader("X-User-ID"); header != "" {
		if id, err := uuid.Parse(header); err == nil {
			return id
		}
	}
	return uuid.MustParse("00000000-0000-0000-0000-000000000001")
}

func (h *Handler) getIntParam(c *gin.Context, key string, defaultValue int) int {
	if value := c.Query(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func normalizeCropID(crop agronomy.CropID) agronomy.CropID {
	return agronomy.CropID(strings.ToLower(strings.TrimSpace(string(crop))))
}

// statusForError maps the advisory error taxonomy onto HTTP statuses.
// Unknown enum values are semantic errors, not routing misses, so they
// read as 422 rather than 404.
func statusForError(err error) int {
	switch {
	case errors.Is(err, agronomy.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrFieldNotFound),
		errors.Is(err, ErrExportNotFound),
		errors.Is(err, agronomy.ErrUnknownCrop):
		return http.StatusNotFound
	case errors.Is(err, agronomy.ErrUnknownGrowthStage),
		errors.Is(err, agronomy.ErrUnknownSoilTexture),
		errors.Is(err, agronomy.ErrUnknownIrrigationMethod):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
