package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database. The pool is pinned
// to one connection so every query sees the same memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate test database")
	return db
}

// CreateUser inserts a user with the given role and optional coordinates.
func CreateUser(t *testing.T, db *gorm.DB, id, role string, coords ...float64) *models.User {
	t.Helper()

	email := id + "@example.com"
	user := models.User{
		ID:        id,
		Email:     &email,
		FirstName: "Test",
		LastName:  id,
		Role:      role,
		IsActive:  true,
	}
	if len(coords) == 2 {
		lat, lng := coords[0], coords[1]
		user.Latitude = &lat
		user.Longitude = &lng
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// TailorOption customises CreateTailor.
type TailorOption func(*models.Tailor)

func WithRating(rating float64, reviews int) TailorOption {
	return func(t *models.Tailor) {
		t.AverageRating = rating
		t.TotalReviews = reviews
	}
}

func WithSpecializations(specs ...string) TailorOption {
	return func(t *models.Tailor) { t.Specializations = pq.StringArray(specs) }
}

func WithPriceRange(min, max int64) TailorOption {
	return func(t *models.Tailor) {
		t.PriceRange = &models.PriceRange{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
	}
}

func WithExperience(years int) TailorOption {
	return func(t *models.Tailor) { t.Experience = years }
}

func WithBio(bio string) TailorOption {
	return func(t *models.Tailor) { t.Bio = bio }
}

func Unverified() TailorOption {
	return func(t *models.Tailor) { t.IsVerified = false }
}

// CreateTailor inserts a verified tailor profile owned by an existing user.
func CreateTailor(t *testing.T, db *gorm.DB, userID, businessName string, opts ...TailorOption) *models.Tailor {
	t.Helper()

	tailor := models.Tailor{
		UserID:         userID,
		BusinessName:   businessName,
		IsVerified:     true,
		DeliveryRadius: 10,
	}
	for _, opt := range opts {
		opt(&tailor)
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&tailor).Error)
	return &tailor
}

var orderSeq atomic.Int64

// CreateOrder inserts an order between customerID and tailorID in the given status.
func CreateOrder(t *testing.T, db *gorm.DB, customerID string, tailorID uint, status models.OrderStatus) *models.Order {
	t.Helper()

	order := models.Order{
		OrderNumber:   fmt.Sprintf("BC-TEST-%d", orderSeq.Add(1)),
		CustomerID:    customerID,
		TailorID:      tailorID,
		BlouseType:    "Princess Cut",
		PickupAddress: "12 MG Road",
		Status:        status,
		PaymentStatus: models.PaymentPending,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&order).Error)
	return &order
}
