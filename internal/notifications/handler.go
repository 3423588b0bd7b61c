package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the farmer's alert inbox and the live stream.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new notifications handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers notification routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", h.listAlerts)
		notifications.GET("/unread-count", h.unreadCount)
		notifications.POST("/:id/read", h.markRead)
		notifications.GET("/stream", h.stream)
	}
}

// listAlerts handles GET /api/v1/notifications
func (h *Handler) listAlerts(c *gin.Context) {
	farmerID := h.getUserID(c)
	limit := getIntParam(c, "limit", 20)
	offset := getIntParam(c, "offset", 0)

	alerts, err := h.service.ListAlerts(c.Request.Context(), farmerID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"total":  len(alerts),
	})
}

// unreadCount handles GET /api/v1/notifications/unread-count
func (h *Handler) unreadCount(c *gin.Context) {
	farmerID := h.getUserID(c)

	count, err := h.service.UnreadCount(c.Request.Context(), farmerID)
	if err != nil {
		h.logger.Error("Failed to count unread alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// markRead handles POST /api/v1/notifications/:id/read
func (h *Handler) markRead(c *gin.Context) {
	farmerID := h.getUserID(c)

	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert ID"})
		return
	}

	if err := h.service.MarkAlertRead(c.Request.Context(), farmerID, alertID); err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to mark alert read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alert marked as read"})
}

// stream handles GET /api/v1/notifications/stream and upgrades the
// request to a websocket. The authenticated farmer is forwarded to the
// hub through the identity header so the connection lands in the right
// inbox.
func (h *Handler) stream(c *gin.Context) {
	hub := h.service.Hub()
	if hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live stream is not enabled"})
		return
	}

	farmerID := h.getUserID(c)
	c.Request.Header.Set("X-User-ID", farmerID.String())

	if _, err := hub.HandleConnection(c.Writer, c.Request); err != nil {
		h.logger.Error("Failed to open websocket", zap.Error(err))
	}
}

// getUserID extracts user ID from context (set by auth middleware)
func (h *Handler) getUserID(c *gin.Context) uuid.UUID {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(uuid.UUID); ok {
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

func getIntParam(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
