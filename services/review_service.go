package services

import (
	"context"
	"time"

	"github.com/blousecraft/blousecraft-api/metrics"
	"github.com/blousecraft/blousecraft-api/models"
	"github.com/juju/errors"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recomputeRatingSQL derives both aggregates from the reviews table in one
// statement so concurrent reviews cannot leave a stale average behind.
const recomputeRatingSQL = `UPDATE tailors SET ` +
	`average_rating = COALESCE((SELECT ROUND(AVG(rating), 2) FROM reviews WHERE reviews.tailor_id = ?), 0), ` +
	`total_reviews = (SELECT COUNT(*) FROM reviews WHERE reviews.tailor_id = ?), ` +
	`updated_at = ? ` +
	`WHERE id = ?`

// CreateReviewInput is a customer's review of one delivered order.
type CreateReviewInput struct {
	OrderID uint     `json:"order_id"`
	Rating  int      `json:"rating"`
	Comment string   `json:"comment"`
	Images  []string `json:"images"`
}

// ReviewService records reviews and keeps tailor ratings in step with them.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// Create stores the review and recomputes the tailor's aggregates in the
// same transaction. The order must be delivered, belong to customerID and
// not already carry a review.
func (s *ReviewService) Create(ctx context.Context, customerID string, in CreateReviewInput) (*models.Review, error) {
	if in.OrderID == 0 {
		return nil, errors.NotValidf("missing order id")
	}
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, errors.NotValidf("rating %d", in.Rating)
	}

	review := models.Review{
		OrderID:    in.OrderID,
		CustomerID: customerID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		Images:     pq.StringArray(in.Images),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, in.OrderID).Error; err != nil {
			return lookupErr(err, "order %d", in.OrderID)
		}
		if order.CustomerID != customerID {
			return errors.Forbiddenf("reviewing order %d", order.ID)
		}
		if order.Status != models.StatusDelivered {
			return invalidStatef("order %d is %s, only delivered orders can be reviewed", order.ID, order.Status)
		}

		var existing int64
		if err := tx.Model(&models.Review{}).Where("order_id = ?", order.ID).Count(&existing).Error; err != nil {
			return errors.Trace(err)
		}
		if existing > 0 {
			return errors.AlreadyExistsf("review for order %d", order.ID)
		}

		review.TailorID = order.TailorID
		if err := tx.Omit(clause.Associations).Create(&review).Error; err != nil {
			return duplicateErr(err, "review for order %d", order.ID)
		}
		return recomputeRating(tx, order.TailorID)
	})
	if err != nil {
		return nil, err
	}

	metrics.ReviewsCreated.Inc()
	return &review, nil
}

// RecomputeRating rebuilds a tailor's average rating and review count from
// its reviews. Running it twice in a row changes nothing.
func (s *ReviewService) RecomputeRating(ctx context.Context, tailorID uint) error {
	return recomputeRating(s.db.WithContext(ctx), tailorID)
}

func recomputeRating(db *gorm.DB, tailorID uint) error {
	res := db.Exec(recomputeRatingSQL, tailorID, tailorID, time.Now(), tailorID)
	if res.Error != nil {
		return errors.Annotatef(res.Error, "recomputing rating for tailor %d", tailorID)
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundf("tailor %d", tailorID)
	}
	return nil
}

// ListForTailor returns a tailor's reviews, newest first.
func (s *ReviewService) ListForTailor(ctx context.Context, tailorID uint) ([]models.Review, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Tailor{}).Where("id = ?", tailorID).Count(&count).Error; err != nil {
		return nil, errors.Trace(err)
	}
	if count == 0 {
		return nil, errors.NotFoundf("tailor %d", tailorID)
	}

	reviews := []models.Review{}
	err := db.Preload("Customer").Where("tailor_id = ?", tailorID).
		Order("created_at DESC, id DESC").Find(&reviews).Error
	if err != nil {
		return nil, errors.Annotate(err, "listing reviews")
	}
	return reviews, nil
}
