package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/juju/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchFilters narrows a text search. Zero values mean "no constraint".
type SearchFilters struct {
	Specialization string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	MinRating      float64
	MinExperience  int
}

// matches applies the filters the database query does not cover.
func (f SearchFilters) matches(t models.Tailor) bool {
	if f.Specialization != "" && !t.HasSpecialization(f.Specialization) {
		return false
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		r := t.EffectivePriceRange()
		min, max := decimal.Zero, r.Max
		if f.MinPrice != nil {
			min = *f.MinPrice
		}
		if f.MaxPrice != nil {
			max = *f.MaxPrice
		}
		if !r.Within(min, max) {
			return false
		}
	}
	if t.AverageRating < f.MinRating {
		return false
	}
	return t.Experience >= f.MinExperience
}

// TailorInput is the editable part of a tailor profile.
type TailorInput struct {
	BusinessName    *string            `json:"business_name"`
	Bio             *string            `json:"bio"`
	Experience      *int               `json:"experience"`
	Specializations []string           `json:"specializations"`
	PriceRange      *models.PriceRange `json:"price_range"`
	PortfolioImages []string           `json:"portfolio_images"`
	DeliveryRadius  *int               `json:"delivery_radius"`
}

func (in TailorInput) validate() error {
	if in.BusinessName != nil && strings.TrimSpace(*in.BusinessName) == "" {
		return errors.NotValidf("empty business name")
	}
	if in.Experience != nil && *in.Experience < 0 {
		return errors.NotValidf("experience %d", *in.Experience)
	}
	if r := in.PriceRange; r != nil && (r.Min.IsNegative() || r.Max.LessThan(r.Min)) {
		return errors.NotValidf("price range %s-%s", r.Min, r.Max)
	}
	if in.DeliveryRadius != nil && *in.DeliveryRadius <= 0 {
		return errors.NotValidf("delivery radius %d", *in.DeliveryRadius)
	}
	return nil
}

// apply copies the supplied fields onto t and returns their column names.
func (in TailorInput) apply(t *models.Tailor) []string {
	var columns []string
	if in.BusinessName != nil {
		t.BusinessName = strings.TrimSpace(*in.BusinessName)
		columns = append(columns, "business_name")
	}
	if in.Bio != nil {
		t.Bio = *in.Bio
		columns = append(columns, "bio")
	}
	if in.Experience != nil {
		t.Experience = *in.Experience
		columns = append(columns, "experience")
	}
	if in.Specializations != nil {
		t.Specializations = pq.StringArray(in.Specializations)
		columns = append(columns, "specializations")
	}
	if in.PriceRange != nil {
		t.PriceRange = in.PriceRange
		columns = append(columns, "price_range")
	}
	if in.PortfolioImages != nil {
		t.PortfolioImages = pq.StringArray(in.PortfolioImages)
		columns = append(columns, "portfolio_images")
	}
	if in.DeliveryRadius != nil {
		t.DeliveryRadius = *in.DeliveryRadius
		columns = append(columns, "delivery_radius")
	}
	return columns
}

// TailorService owns tailor profiles and discovery.
type TailorService struct {
	db *gorm.DB
}

func NewTailorService(db *gorm.DB) *TailorService {
	return &TailorService{db: db}
}

// verifiedWithUser selects verified tailors joined to their user row.
func (s *TailorService) verifiedWithUser(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Tailor{}).
		Select("tailors.*").
		Joins("JOIN users ON users.id = tailors.user_id").
		Where("tailors.is_verified = ?", true).
		Preload("User")
}

// Nearby returns verified tailors whose user location lies within radiusKm
// of (lat, lng), ordered by average rating then id. Each result carries
// its distance. A radius of zero matches only coincident coordinates.
func (s *TailorService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.Tailor, error) {
	if !ValidCoordinate(lat, lng) {
		return nil, errors.NotValidf("coordinates (%v, %v)", lat, lng)
	}
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return nil, errors.NotValidf("radius %v", radiusKm)
	}

	box := newBoundingBox(lat, lng, radiusKm)
	q := s.verifiedWithUser(ctx).
		Where("users.latitude IS NOT NULL AND users.longitude IS NOT NULL").
		Where("users.latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if !box.AllLongitudes {
		q = q.Where("users.longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}

	var candidates []models.Tailor
	if err := q.Order("tailors.average_rating DESC, tailors.id ASC").Find(&candidates).Error; err != nil {
		return nil, errors.Annotate(err, "searching nearby tailors")
	}

	results := make([]models.Tailor, 0, len(candidates))
	for _, t := range candidates {
		if !t.User.HasCoordinates() {
			continue
		}
		d := DistanceKm(lat, lng, *t.User.Latitude, *t.User.Longitude)
		if d > radiusKm {
			continue
		}
		t.DistanceKm = &d
		results = append(results, t)
	}
	return results, nil
}

// Search matches query case-insensitively against business name, bio and the
// owner's names, then applies filters. An empty query matches every verified tailor.
func (s *TailorService) Search(ctx context.Context, query string, filters SearchFilters) ([]models.Tailor, error) {
	q := s.verifiedWithUser(ctx)
	if term := strings.TrimSpace(query); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(
			`(LOWER(tailors.business_name) LIKE ? ESCAPE '\' OR LOWER(tailors.bio) LIKE ? ESCAPE '\' `+
				`OR LOWER(users.first_name) LIKE ? ESCAPE '\' OR LOWER(users.last_name) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern,
		)
	}

	var candidates []models.Tailor
	if err := q.Order("tailors.average_rating DESC, tailors.id ASC").Find(&candidates).Error; err != nil {
		return nil, errors.Annotate(err, "searching tailors")
	}

	results := make([]models.Tailor, 0, len(candidates))
	for _, t := range candidates {
		if filters.matches(t) {
			results = append(results, t)
		}
	}
	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Get loads a tailor with its user, verified or not.
func (s *TailorService) Get(ctx context.Context, id uint) (*models.Tailor, error) {
	var tailor models.Tailor
	if err := s.db.WithContext(ctx).Preload("User").First(&tailor, id).Error; err != nil {
		return nil, lookupErr(err, "tailor %d", id)
	}
	return &tailor, nil
}

// GetByUserID loads the tailor profile owned by a user.
func (s *TailorService) GetByUserID(ctx context.Context, userID string) (*models.Tailor, error) {
	var tailor models.Tailor
	if err := s.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&tailor).Error; err != nil {
		return nil, lookupErr(err, "tailor profile for user %s", userID)
	}
	return &tailor, nil
}

// Create registers a tailor profile for userID and switches the user to
// the tailor role. New profiles start unverified.
func (s *TailorService) Create(ctx context.Context, userID string, in TailorInput) (*models.Tailor, error) {
	if in.BusinessName == nil {
		return nil, errors.NotValidf("missing business name")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	tailor := models.Tailor{UserID: userID, DeliveryRadius: 10}
	in.apply(&tailor)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return lookupErr(err, "user %s", userID)
		}

		var existing int64
		if err := tx.Model(&models.Tailor{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return errors.Trace(err)
		}
		if existing > 0 {
			return errors.AlreadyExistsf("tailor profile for user %s", userID)
		}

		if err := tx.Omit(clause.Associations).Create(&tailor).Error; err != nil {
			return duplicateErr(err, "tailor profile for user %s", userID)
		}
		if !user.IsAdmin() {
			return setRole(tx, userID, models.RoleTailor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tailor.ID)
}

// Update edits a tailor profile. Only the owning user may do so.
func (s *TailorService) Update(ctx context.Context, callerID string, id uint, in TailorInput) (*models.Tailor, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tailor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tailor.UserID != callerID {
		return nil, errors.Forbiddenf("editing tailor %d", id)
	}

	columns := in.apply(tailor)
	if len(columns) > 0 {
		tailor.UpdatedAt = time.Now()
		err := s.db.WithContext(ctx).Model(tailor).
			Select(append(columns, "updated_at")).
			Omit(clause.Associations).
			Updates(tailor).Error
		if err != nil {
			return nil, errors.Annotate(err, "updating tailor")
		}
	}
	return s.Get(ctx, id)
}

// SetVerified flips the verification flag that controls discoverability.
func (s *TailorService) SetVerified(ctx context.Context, id uint, verified bool) (*models.Tailor, error) {
	res := s.db.WithContext(ctx).Model(&models.Tailor{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_verified": verified, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, errors.Annotate(res.Error, "verifying tailor")
	}
	if res.RowsAffected == 0 {
		return nil, errors.NotFoundf("tailor %d", id)
	}
	return s.Get(ctx, id)
}
