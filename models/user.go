package models

import (
	"time"
)

// Roles a user can hold. The tailor role is paired with exactly one Tailor row.
const (
	RoleCustomer = "customer"
	RoleTailor   = "tailor"
	RoleAdmin    = "admin"
)

// User is keyed by the identity provider's subject claim.
type User struct {
	ID              string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Email           *string   `gorm:"uniqueIndex" json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	ProfileImageURL string    `json:"profile_image_url"`
	Phone           string    `json:"phone"`
	Address         string    `gorm:"type:text" json:"address"`
	City            string    `json:"city"`
	State           string    `json:"state"`
	Pincode         string    `json:"pincode"`
	Latitude        *float64  `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude       *float64  `gorm:"type:decimal(11,8)" json:"longitude"`
	Role            string    `gorm:"not null;default:'customer'" json:"role"`
	IsActive        bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// HasCoordinates reports whether the user can take part in proximity search.
func (u User) HasCoordinates() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
