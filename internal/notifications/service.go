package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agrisight/farm-portal/farm-portal-backend/internal/advisory"
	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
	"agrisight/farm-portal/farm-portal-backend/internal/notifications/websocket"
)

// ErrAlertNotFound is returned when an alert does not exist or belongs
// to another farmer.
var ErrAlertNotFound = errors.New("alert not found")

// RecipientDirectory resolves a farmer to their notification email.
type RecipientDirectory interface {
	EmailFor(ctx context.Context, farmerID uuid.UUID) (string, error)
}

// Preferences exposes the per-farmer delivery opt-outs.
type Preferences interface {
	AlertChannels(ctx context.Context, farmerID uuid.UUID) (email, push bool)
}

// Service stores advisory alerts and fans them out over the wired
// channels. Every alert lands in the in-app inbox; the websocket gets
// a frame when the farmer is connected; email and the SNS topic are
// reserved for critical severity.
type Service struct {
	db        *gorm.DB
	hub       *websocket.Manager
	email     EmailSender
	topic     TopicPublisher
	directory RecipientDirectory
	prefs     Preferences
	logger    *zap.Logger
}

// NewService creates the notification service and migrates its tables.
// The hub, email, topic, directory and prefs may each be nil; the
// matching channel (or opt-out check) is then skipped.
func NewService(db *gorm.DB, hub *websocket.Manager, email EmailSender, topic TopicPublisher, directory RecipientDirectory, prefs Preferences, logger *zap.Logger) (*Service, error) {
	if err := db.AutoMigrate(&AlertRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notification tables: %w", err)
	}
	return &Service{
		db:        db,
		hub:       hub,
		email:     email,
		topic:     topic,
		directory: directory,
		prefs:     prefs,
		logger:    logger,
	}, nil
}

// PublishAlert implements the advisory notifier. Channel failures are
// logged and recorded on the alert row, never surfaced to the caller;
// the advisory request that raised the alert must not fail because a
// mail gateway is down.
func (s *Service) PublishAlert(ctx context.Context, alert *advisory.AdvisoryAlert) {
	record := &AlertRecord{
		ID:        uuid.New(),
		FarmerID:  alert.FarmerID,
		FieldID:   alert.FieldID,
		Crop:      string(alert.Crop),
		Kind:      string(alert.Kind),
		Severity:  alert.Severity,
		Message:   alert.Message,
		Channels:  pq.StringArray{ChannelInApp},
		Status:    StatusPending,
		CreatedAt: alert.CreatedAt,
	}
	if len(alert.Details) > 0 {
		if raw, err := json.Marshal(alert.Details); err == nil {
			record.Details = datatypes.JSON(raw)
		}
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logger.Error("Failed to store alert",
			zap.String("farmer_id", alert.FarmerID.String()),
			zap.Error(err))
	}

	emailEnabled, pushEnabled := true, true
	if s.prefs != nil {
		emailEnabled, pushEnabled = s.prefs.AlertChannels(ctx, alert.FarmerID)
	}

	failures := 0

	if s.hub != nil && pushEnabled {
		frame := websocket.StreamMessage{
			Type: websocket.StreamTypeAlert,
			Data: map[string]interface{}{
				"alert_id": record.ID.String(),
				"field_id": alert.FieldID.String(),
				"crop":     string(alert.Crop),
				"kind":     string(alert.Kind),
				"severity": alert.Severity,
				"message":  alert.Message,
				"details":  alert.Details,
			},
			Timestamp: time.Now(),
		}
		if err := s.hub.SendToFarmer(alert.FarmerID.String(), frame); err != nil {
			// Not connected is the common case, not a failure.
			s.logger.Debug("No live websocket for alert",
				zap.String("farmer_id", alert.FarmerID.String()))
		} else {
			record.Channels = append(record.Channels, ChannelWebSocket)
		}
	}

	if alert.Severity == "critical" {
		subject, body := alertEmailContent(alert)

		if s.email != nil && s.directory != nil && emailEnabled {
			if to, err := s.directory.EmailFor(ctx, alert.FarmerID); err != nil || to == "" {
				s.logger.Warn("No email address for critical alert",
					zap.String("farmer_id", alert.FarmerID.String()))
			} else if err := s.email.Send(ctx, to, subject, body); err != nil {
				failures++
				s.logger.Error("Failed to send alert email", zap.Error(err))
			} else {
				record.Channels = append(record.Channels, ChannelEmail)
			}
		}

		if s.topic != nil {
			if err := s.topic.Publish(ctx, subject, body); err != nil {
				failures++
				s.logger.Error("Failed to publish alert to topic", zap.Error(err))
			} else {
				record.Channels = append(record.Channels, ChannelSNS)
			}
		}
	}

	record.Status = StatusDelivered
	if failures > 0 {
		record.Status = StatusPartial
	}
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		s.logger.Error("Failed to update alert delivery status", zap.Error(err))
	}
}

// ListAlerts returns a farmer's alerts, newest first.
func (s *Service) ListAlerts(ctx context.Context, farmerID uuid.UUID, limit, offset int) ([]AlertRecord, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var alerts []AlertRecord
	err := s.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// UnreadCount returns how many alerts the farmer has not opened.
func (s *Service) UnreadCount(ctx context.Context, farmerID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&AlertRecord{}).
		Where("farmer_id = ? AND read_at IS NULL", farmerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread alerts: %w", err)
	}
	return count, nil
}

// MarkAlertRead stamps the alert as opened by its owner.
func (s *Service) MarkAlertRead(ctx context.Context, farmerID, alertID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&AlertRecord{}).
		Where("id = ? AND farmer_id = ?", alertID, farmerID).
		Update("read_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("failed to mark alert read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// BroadcastPriceUpdate pushes a recomputed forecast to every websocket
// subscribed to the crop. A crop with no subscribers is not an error.
func (s *Service) BroadcastPriceUpdate(ctx context.Context, crop string, forecast *agronomy.PriceForecast) error {
	if s.hub == nil {
		return nil
	}

	frame := websocket.StreamMessage{
		Type: websocket.StreamTypePriceUpdate,
		Data: map[string]interface{}{
			"crop":           crop,
			"generated_at":   forecast.GeneratedAt,
			"anchor_price":   forecast.AnchorPrice,
			"trend_per_week": forecast.TrendPerWeek,
			"points":         forecast.Points,
			"warnings":       forecast.Warnings,
		},
		Timestamp: time.Now(),
		Source:    "forecast-worker",
	}

	if err := s.hub.SendToCrop(crop, frame); err != nil {
		s.logger.Debug("No subscribers for price update", zap.String("crop", crop))
	}
	return nil
}

// Hub exposes the websocket manager for the HTTP handler.
func (s *Service) Hub() *websocket.Manager {
	return s.hub
}

// Close shuts the websocket hub down.
func (s *Service) Close() error {
	if s.hub != nil {
		s.hub.Close()
	}
	return nil
}

func alertEmailContent(alert *advisory.AdvisoryAlert) (subject, body string) {
	kind := strings.ReplaceAll(string(alert.Kind), "_", " ")
	subject = fmt.Sprintf("[AgriSight] %s alert for your %s field", strings.Title(kind), alert.Crop)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", alert.Message)
	if len(alert.Details) > 0 {
		b.WriteString("Details:\n")
		for key, value := range alert.Details {
			fmt.Fprintf(&b, "  %s: %v\n", strings.ReplaceAll(key, "_", " "), value)
		}
	}
	b.WriteString("\nOpen the AgriSight portal for the full advisory.\n")
	return subject, b.String()
}
