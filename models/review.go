package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is the single review a customer may leave on a delivered order.
type Review struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OrderID    uint           `gorm:"not null;uniqueIndex" json:"order_id"`
	CustomerID string         `gorm:"type:varchar(255);not null;index" json:"customer_id"`
	Customer   *User          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TailorID   uint           `gorm:"not null;index" json:"tailor_id"`
	Rating     int            `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment    string         `gorm:"type:text" json:"comment"`
	Images     pq.StringArray `gorm:"type:text[]" json:"images"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}
