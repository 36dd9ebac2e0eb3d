package services

import (
	"context"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	TotalUsers       int64           `json:"total_users"`
	TotalTailors     int64           `json:"total_tailors"`
	VerifiedTailors  int64           `json:"verified_tailors"`
	TotalOrders      int64           `json:"total_orders"`
	DeliveredOrders  int64           `json:"delivered_orders"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalCourses     int64           `json:"total_courses"`
	TotalEnrollments int64           `json:"total_enrollments"`
}

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Platform counts the main entities. Revenue sums final prices of delivered orders.
func (s *StatsService) Platform(ctx context.Context) (*PlatformStats, error) {
	db := s.db.WithContext(ctx)
	stats := &PlatformStats{}

	counts := []struct {
		model interface{}
		where []interface{}
		dest  *int64
	}{
		{&models.User{}, nil, &stats.TotalUsers},
		{&models.Tailor{}, nil, &stats.TotalTailors},
		{&models.Tailor{}, []interface{}{"is_verified = ?", true}, &stats.VerifiedTailors},
		{&models.Order{}, nil, &stats.TotalOrders},
		{&models.Order{}, []interface{}{"status = ?", models.StatusDelivered}, &stats.DeliveredOrders},
		{&models.Course{}, nil, &stats.TotalCourses},
		{&models.Enrollment{}, nil, &stats.TotalEnrollments},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, errors.Annotate(err, "counting")
		}
	}

	var revenue decimal.NullDecimal
	err := db.Model(&models.Order{}).
		Select("SUM(final_price)").
		Where("status = ?", models.StatusDelivered).
		Row().Scan(&revenue)
	if err != nil {
		return nil, errors.Annotate(err, "summing revenue")
	}
	stats.TotalRevenue = revenue.Decimal
	return stats, nil
}
