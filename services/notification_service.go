package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/blousecraft/blousecraft-api/metrics"
	"github.com/blousecraft/blousecraft-api/models"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationEvent is the payload published for every stored notification.
type NotificationEvent struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	RelatedID string    `json:"related_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationService stores in-app notifications and fans them out as events.
type NotificationService struct {
	db        *gorm.DB
	publisher EventPublisher
	topic     string
}

// NewNotificationService uses the process-wide event publisher.
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, publisher: GetEventPublisher(), topic: notificationTopic}
}

// Notify persists n and publishes it. Only the write can fail the call;
// a publish failure is logged and counted.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.UserID == "" || n.Title == "" {
		return errors.NotValidf("notification without recipient or title")
	}
	if n.Type == "" {
		n.Type = models.NotificationGeneral
	}
	n.IsRead = false

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return errors.Annotate(err, "storing notification")
	}

	payload, err := json.Marshal(NotificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		RelatedID: n.RelatedID,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return errors.Trace(err)
	}

	if err := s.publisher.Publish(ctx, s.topic, n.UserID, payload); err != nil {
		metrics.NotificationsPublished.WithLabelValues("failed").Inc()
		logger.FromCtx(ctx).Warn("failed to publish notification event",
			zap.Uint("notification_id", n.ID),
			zap.Error(err),
		)
		return nil
	}
	metrics.NotificationsPublished.WithLabelValues("published").Inc()
	return nil
}

// notifyQuietly is used after a committed write whose outcome must not
// depend on the notification.
func (s *NotificationService) notifyQuietly(ctx context.Context, n *models.Notification) {
	if err := s.Notify(ctx, n); err != nil {
		logger.FromCtx(ctx).Warn("failed to create notification",
			zap.String("user_id", n.UserID),
			zap.String("title", n.Title),
			zap.Error(err),
		)
	}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	notifications := []models.Notification{}
	if err := q.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, errors.Annotate(err, "listing notifications")
	}
	return notifications, nil
}

// MarkRead flags one notification as read. Only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, lookupErr(err, "notification %d", id)
	}
	if n.UserID != userID {
		return nil, errors.Forbiddenf("access to notification %d", id)
	}

	if !n.IsRead {
		if err := s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
			return nil, errors.Annotate(err, "marking notification read")
		}
	}
	n.IsRead = true
	return &n, nil
}

// MarkAllRead flags every unread notification of the user and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, errors.Annotate(res.Error, "marking notifications read")
	}
	return res.RowsAffected, nil
}

func relatedID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
