package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderStatus is a state in the order lifecycle.
type OrderStatus string

const (
	StatusPending      OrderStatus = "pending"
	StatusConfirmed    OrderStatus = "confirmed"
	StatusPickedUp     OrderStatus = "picked_up"
	StatusInProgress   OrderStatus = "in_progress"
	StatusQualityCheck OrderStatus = "quality_check"
	StatusReady        OrderStatus = "ready"
	StatusDelivered    OrderStatus = "delivered"
	StatusCancelled    OrderStatus = "cancelled"
)

// lifecycle is the forward order of the non-cancelled states.
var lifecycle = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPickedUp,
	StatusInProgress,
	StatusQualityCheck,
	StatusReady,
	StatusDelivered,
}

// Payment states. Payment processing itself happens elsewhere.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

func (s OrderStatus) rank() int {
	for i, st := range lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s == StatusCancelled || s.rank() >= 0
}

// IsTerminal reports whether no further status change is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo allows staying put or moving forward along the lifecycle,
// and cancelling from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return next.rank() >= s.rank()
}

// Measurements are in inches.
type Measurements struct {
	Bust     float64 `json:"bust"`
	Waist    float64 `json:"waist"`
	Shoulder float64 `json:"shoulder"`
	Length   float64 `json:"length"`
}

// Order is a booking between a customer and a tailor.
type Order struct {
	ID                  uint                `gorm:"primaryKey" json:"id"`
	OrderNumber         string              `gorm:"not null;uniqueIndex" json:"order_number"`
	CustomerID          string              `gorm:"type:varchar(255);not null;index" json:"customer_id"`
	Customer            *User               `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TailorID            uint                `gorm:"not null;index" json:"tailor_id"`
	Tailor              *Tailor             `gorm:"foreignKey:TailorID" json:"tailor,omitempty"`
	BlouseType          string              `gorm:"not null" json:"blouse_type"`
	FabricType          string              `json:"fabric_type"`
	SleeveStyle         string              `json:"sleeve_style"`
	Neckline            string              `json:"neckline"`
	Measurements        *Measurements       `gorm:"type:jsonb;serializer:json" json:"measurements"`
	SpecialInstructions string              `gorm:"type:text" json:"special_instructions"`
	ReferenceImages     pq.StringArray      `gorm:"type:text[]" json:"reference_images"`
	PickupAddress       string              `gorm:"type:text;not null" json:"pickup_address"`
	PickupDate          *time.Time          `json:"pickup_date"`
	DeliveryAddress     string              `gorm:"type:text" json:"delivery_address"`
	EstimatedPrice      decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"estimated_price"`
	FinalPrice          decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"final_price"`
	Status              OrderStatus         `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	Progress            int                 `gorm:"not null;default:0;check:progress >= 0 AND progress <= 100" json:"progress"` // percentage
	PaymentStatus       string              `gorm:"type:varchar(32);not null;default:'pending'" json:"payment_status"`
	EstimatedDelivery   *time.Time          `json:"estimated_delivery"`
	ActualDelivery      *time.Time          `json:"actual_delivery"`
	Version             int                 `gorm:"not null;default:0" json:"version"` // bumped on every lifecycle write
	Review              *Review             `gorm:"foreignKey:OrderID" json:"review,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
