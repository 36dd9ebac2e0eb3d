package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blousecraft/blousecraft-api/metrics"
	"github.com/blousecraft/blousecraft-api/models"
	"github.com/blousecraft/blousecraft-api/utils"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Order list perspectives.
const (
	AsCustomer = "customer"
	AsTailor   = "tailor"
)

// CreateOrderInput is what a customer supplies when booking a tailor.
type CreateOrderInput struct {
	TailorID            uint                 `json:"tailor_id"`
	BlouseType          string               `json:"blouse_type"`
	FabricType          string               `json:"fabric_type"`
	SleeveStyle         string               `json:"sleeve_style"`
	Neckline            string               `json:"neckline"`
	Measurements        *models.Measurements `json:"measurements"`
	SpecialInstructions string               `json:"special_instructions"`
	ReferenceImages     []string             `json:"reference_images"`
	PickupAddress       string               `json:"pickup_address"`
	PickupDate          *time.Time           `json:"pickup_date"`
	DeliveryAddress     string               `json:"delivery_address"`
	EstimatedPrice      *decimal.Decimal     `json:"estimated_price"`
	EstimatedDelivery   *time.Time           `json:"estimated_delivery"`
}

func (in CreateOrderInput) validate() error {
	if in.TailorID == 0 {
		return errors.NotValidf("missing tailor id")
	}
	if strings.TrimSpace(in.BlouseType) == "" {
		return errors.NotValidf("missing blouse type")
	}
	if strings.TrimSpace(in.PickupAddress) == "" {
		return errors.NotValidf("missing pickup address")
	}
	if m := in.Measurements; m != nil && (m.Bust < 0 || m.Waist < 0 || m.Shoulder < 0 || m.Length < 0) {
		return errors.NotValidf("negative measurement")
	}
	if in.EstimatedPrice != nil && in.EstimatedPrice.IsNegative() {
		return errors.NotValidf("estimated price %s", in.EstimatedPrice)
	}
	return nil
}

// OrderService runs the order lifecycle.
type OrderService struct {
	db            *gorm.DB
	notifications *NotificationService
	now           func() time.Time
}

func NewOrderService(db *gorm.DB, notifications *NotificationService) *OrderService {
	return &OrderService{db: db, notifications: notifications, now: time.Now}
}

// newOrderNumber builds a human-facing identifier such as BC20261018-1A2B3C4D.
func newOrderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("BC%s-%s", now.UTC().Format("20060102"), strings.ToUpper(suffix))
}

// Create books a verified tailor for customerID. The new order starts
// pending with progress 0 and the tailor's user is notified.
func (s *OrderService) Create(ctx context.Context, customerID string, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var customer models.User
	if err := db.First(&customer, "id = ?", customerID).Error; err != nil {
		return nil, lookupErr(err, "user %s", customerID)
	}

	var tailor models.Tailor
	if err := db.First(&tailor, in.TailorID).Error; err != nil {
		return nil, lookupErr(err, "tailor %d", in.TailorID)
	}
	if tailor.UserID == customerID {
		return nil, errors.NotValidf("booking your own tailor profile")
	}
	if !tailor.IsVerified {
		return nil, invalidStatef("tailor %d is not verified", tailor.ID)
	}

	now := s.now()
	order := models.Order{
		OrderNumber:         newOrderNumber(now),
		CustomerID:          customerID,
		TailorID:            tailor.ID,
		BlouseType:          strings.TrimSpace(in.BlouseType),
		FabricType:          in.FabricType,
		SleeveStyle:         in.SleeveStyle,
		Neckline:            in.Neckline,
		Measurements:        in.Measurements,
		SpecialInstructions: in.SpecialInstructions,
		ReferenceImages:     pq.StringArray(in.ReferenceImages),
		PickupAddress:       strings.TrimSpace(in.PickupAddress),
		PickupDate:          in.PickupDate,
		DeliveryAddress:     in.DeliveryAddress,
		Status:              models.StatusPending,
		Progress:            0,
		PaymentStatus:       models.PaymentPending,
		EstimatedDelivery:   in.EstimatedDelivery,
	}
	if in.EstimatedPrice != nil {
		order.EstimatedPrice = decimal.NewNullDecimal(*in.EstimatedPrice)
	}

	if err := db.Omit(clause.Associations).Create(&order).Error; err != nil {
		return nil, duplicateErr(err, "order number %s", order.OrderNumber)
	}
	metrics.OrdersCreated.Inc()

	s.notifications.notifyQuietly(ctx, &models.Notification{
		UserID:    tailor.UserID,
		Title:     "New Order Received",
		Message:   fmt.Sprintf("You have received a new order for %s", order.BlouseType),
		Type:      models.NotificationOrderUpdate,
		RelatedID: relatedID(order.ID),
	})

	return s.load(ctx, order.ID)
}

func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Tailor.User").
		Preload("Review").
		First(&order, id).Error
	if err != nil {
		return nil, lookupErr(err, "order %d", id)
	}
	return &order, nil
}

func isParticipant(order *models.Order, userID string) bool {
	return order.CustomerID == userID || (order.Tailor != nil && order.Tailor.UserID == userID)
}

// Get returns an order to its customer or its tailor.
func (s *OrderService) Get(ctx context.Context, callerID string, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParticipant(order, callerID) {
		return nil, errors.Forbiddenf("access to order %d", id)
	}
	return order, nil
}

// List pages through the caller's orders, newest first. As AsTailor it lists
// orders placed with the caller's tailor profile, otherwise the caller's own bookings.
func (s *OrderService) List(ctx context.Context, callerID, as string, page utils.Pagination) ([]models.Order, int64, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Order{})

	switch as {
	case AsTailor:
		var tailor models.Tailor
		if err := db.Where("user_id = ?", callerID).First(&tailor).Error; err != nil {
			return nil, 0, lookupErr(err, "tailor profile for user %s", callerID)
		}
		q = q.Where("tailor_id = ?", tailor.ID)
	case AsCustomer, "":
		q = q.Where("customer_id = ?", callerID)
	default:
		return nil, 0, errors.NotValidf("order list type %q", as)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Annotate(err, "counting orders")
	}

	orders := []models.Order{}
	err := q.Preload("Customer").
		Preload("Tailor.User").
		Preload("Review").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, errors.Annotate(err, "listing orders")
	}
	return orders, total, nil
}

// loadForTailor loads an order and checks that callerID is its tailor.
func (s *OrderService) loadForTailor(ctx context.Context, callerID string, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Tailor == nil || order.Tailor.UserID != callerID {
		return nil, errors.Forbiddenf("updating order %d", id)
	}
	return order, nil
}

// casUpdate applies updates only if the order still has the version it was
// read at, bumping the version on success.
func (s *OrderService) casUpdate(ctx context.Context, order *models.Order, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = s.now()

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(updates)
	if res.Error != nil {
		return errors.Annotatef(res.Error, "updating order %d", order.ID)
	}
	if res.RowsAffected == 0 {
		return conflictf("order %d was modified concurrently", order.ID)
	}
	return nil
}

// UpdateStatus moves an order along its lifecycle. Only the order's tailor
// may do this. Reaching delivered stamps the actual delivery time.
func (s *OrderService) UpdateStatus(ctx context.Context, callerID string, id uint, status models.OrderStatus, progress *int) (*models.Order, error) {
	if !status.Valid() {
		return nil, errors.NotValidf("status %q", status)
	}
	if progress != nil && (*progress < 0 || *progress > 100) {
		return nil, errors.NotValidf("progress %d", *progress)
	}

	order, err := s.loadForTailor(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, invalidStatef("order %d is %s and can no longer change", order.ID, order.Status)
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, invalidStatef("order %d cannot move from %s back to %s", order.ID, order.Status, status)
	}

	updates := map[string]interface{}{"status": status}
	if progress != nil {
		updates["progress"] = *progress
	}
	if status == models.StatusDelivered {
		updates["actual_delivery"] = s.now()
		if progress == nil {
			updates["progress"] = 100
		}
	}
	if err := s.casUpdate(ctx, order, updates); err != nil {
		return nil, err
	}
	metrics.OrderTransitions.WithLabelValues(string(status)).Inc()

	s.notifications.notifyQuietly(ctx, &models.Notification{
		UserID:    order.CustomerID,
		Title:     "Order Status Updated",
		Message:   fmt.Sprintf("Your order status has been updated to: %s", status),
		Type:      models.NotificationOrderUpdate,
		RelatedID: relatedID(order.ID),
	})

	return s.load(ctx, id)
}

// UpdatePrice sets the final price of a non-terminal order.
func (s *OrderService) UpdatePrice(ctx context.Context, callerID string, id uint, price decimal.Decimal) (*models.Order, error) {
	if !price.IsPositive() {
		return nil, errors.NotValidf("final price %s", price)
	}

	order, err := s.loadForTailor(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, invalidStatef("order %d is %s and can no longer change", order.ID, order.Status)
	}

	if err := s.casUpdate(ctx, order, map[string]interface{}{"final_price": price}); err != nil {
		return nil, err
	}

	s.notifications.notifyQuietly(ctx, &models.Notification{
		UserID:    order.CustomerID,
		Title:     "Order Price Updated",
		Message:   fmt.Sprintf("The final price for order %s is %s", order.OrderNumber, price.StringFixed(2)),
		Type:      models.NotificationOrderUpdate,
		RelatedID: relatedID(order.ID),
	})

	return s.load(ctx, id)
}
