package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DefaultPriceRange is assumed for tailors that never published one.
var DefaultPriceRange = PriceRange{Min: decimal.NewFromInt(800), Max: decimal.NewFromInt(5000)}

// PriceRange is the band a tailor usually charges, stored as JSON.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Within reports whether r lies entirely inside [min, max].
func (r PriceRange) Within(min, max decimal.Decimal) bool {
	return r.Min.GreaterThanOrEqual(min) && r.Max.LessThanOrEqual(max)
}

// Tailor is the provider extension of a User with role tailor.
type Tailor struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"user_id"`
	User            User           `gorm:"foreignKey:UserID" json:"user"`
	BusinessName    string         `gorm:"not null" json:"business_name"`
	Bio             string         `gorm:"type:text" json:"bio"`
	Experience      int            `gorm:"not null;default:0" json:"experience"` // years
	Specializations pq.StringArray `gorm:"type:text[]" json:"specializations"`
	PriceRange      *PriceRange    `gorm:"type:jsonb;serializer:json" json:"price_range"`
	PortfolioImages pq.StringArray `gorm:"type:text[]" json:"portfolio_images"`
	AverageRating   float64        `gorm:"type:decimal(3,2);not null;default:0" json:"average_rating"` // derived from reviews
	TotalReviews    int            `gorm:"not null;default:0" json:"total_reviews"`                    // derived from reviews
	IsVerified      bool           `gorm:"not null;default:false;index" json:"is_verified"`
	DeliveryRadius  int            `gorm:"not null;default:10" json:"delivery_radius"` // km
	DistanceKm      *float64       `gorm:"-" json:"distance_km,omitempty"`             // set by proximity search
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the Tailor model
func (Tailor) TableName() string {
	return "tailors"
}

// EffectivePriceRange returns the published range or DefaultPriceRange.
func (t Tailor) EffectivePriceRange() PriceRange {
	if t.PriceRange == nil {
		return DefaultPriceRange
	}
	return *t.PriceRange
}

// HasSpecialization is an exact, case-sensitive membership test.
func (t Tailor) HasSpecialization(s string) bool {
	for _, spec := range t.Specializations {
		if spec == s {
			return true
		}
	}
	return false
}
