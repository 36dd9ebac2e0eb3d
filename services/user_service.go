package services

import (
	"context"
	"strings"
	"time"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/juju/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileInput carries the profile fields supplied on login or profile edit.
// Nil fields are left untouched on an existing user.
type ProfileInput struct {
	Email           *string  `json:"email"`
	FirstName       *string  `json:"first_name"`
	LastName        *string  `json:"last_name"`
	ProfileImageURL *string  `json:"profile_image_url"`
	Phone           *string  `json:"phone"`
	Address         *string  `json:"address"`
	City            *string  `json:"city"`
	State           *string  `json:"state"`
	Pincode         *string  `json:"pincode"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

// apply copies the supplied fields onto u and returns their column names.
func (in ProfileInput) apply(u *models.User) []string {
	var columns []string
	setString := func(column string, src *string, dst *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			columns = append(columns, column)
		}
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			u.Email = nil
		} else {
			u.Email = &email
		}
		columns = append(columns, "email")
	}
	setString("first_name", in.FirstName, &u.FirstName)
	setString("last_name", in.LastName, &u.LastName)
	setString("profile_image_url", in.ProfileImageURL, &u.ProfileImageURL)
	setString("phone", in.Phone, &u.Phone)
	setString("address", in.Address, &u.Address)
	setString("city", in.City, &u.City)
	setString("state", in.State, &u.State)
	setString("pincode", in.Pincode, &u.Pincode)
	if in.Latitude != nil {
		u.Latitude = in.Latitude
		columns = append(columns, "latitude")
	}
	if in.Longitude != nil {
		u.Longitude = in.Longitude
		columns = append(columns, "longitude")
	}
	return columns
}

func (in ProfileInput) validate() error {
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return errors.NotValidf("latitude %v", *in.Latitude)
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return errors.NotValidf("longitude %v", *in.Longitude)
	}
	return nil
}

// UserService manages identity-linked user records.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Upsert creates the user keyed by the identity subject, or updates only the
// supplied fields of an existing one. Role is never changed here.
func (s *UserService) Upsert(ctx context.Context, id string, in ProfileInput) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NotValidf("empty user id")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	user := models.User{ID: id, Role: models.RoleCustomer, IsActive: true}
	columns := in.apply(&user)

	db := s.db.WithContext(ctx)
	if err := upsertUser(db, columns).Create(&user).Error; err != nil {
		return nil, duplicateErr(err, "email")
	}
	return s.Get(ctx, id)
}

// upsertUser adds the ON CONFLICT clause that refreshes the supplied
// columns and updated_at when the id already exists.
func upsertUser(db *gorm.DB, columns []string) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	})
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "user %s", id)
	}
	return &user, nil
}

// setRole changes a user's role inside tx.
func setRole(tx *gorm.DB, id, role string) error {
	res := tx.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"role": role, "updated_at": time.Now()})
	if res.Error != nil {
		return errors.Annotate(res.Error, "updating role")
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundf("user %s", id)
	}
	return nil
}
