package services

import (
	"context"
	"strings"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/juju/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageService is the conversation attached to an order.
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

func (s *MessageService) participantOrder(ctx context.Context, callerID string, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Tailor").First(&order, orderID).Error; err != nil {
		return nil, lookupErr(err, "order %d", orderID)
	}
	if !isParticipant(&order, callerID) {
		return nil, errors.Forbiddenf("conversation of order %d", orderID)
	}
	return &order, nil
}

// Send appends a message from callerID, who must be the order's customer or tailor.
func (s *MessageService) Send(ctx context.Context, callerID string, orderID uint, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NotValidf("empty message")
	}
	if _, err := s.participantOrder(ctx, callerID, orderID); err != nil {
		return nil, err
	}

	message := models.Message{OrderID: orderID, SenderID: callerID, Text: text}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&message).Error; err != nil {
		return nil, errors.Annotate(err, "storing message")
	}

	if err := s.db.WithContext(ctx).Preload("Sender").First(&message, message.ID).Error; err != nil {
		return nil, lookupErr(err, "message %d", message.ID)
	}
	return &message, nil
}

// List returns the order's conversation, oldest first.
func (s *MessageService) List(ctx context.Context, callerID string, orderID uint) ([]models.Message, error) {
	if _, err := s.participantOrder(ctx, callerID, orderID); err != nil {
		return nil, err
	}

	messages := []models.Message{}
	err := s.db.WithContext(ctx).Preload("Sender").
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, errors.Annotate(err, "listing messages")
	}
	return messages, nil
}
