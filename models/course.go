package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Course levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Course is an instructional course; Materials holds object-store keys.
type Course struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	Title            string              `gorm:"not null" json:"title"`
	Description      string              `gorm:"type:text" json:"description"`
	InstructorID     string              `gorm:"type:varchar(255);not null;index" json:"instructor_id"`
	Instructor       *User               `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Price            decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice    decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"original_price"`
	Duration         int                 `json:"duration"` // hours
	Level            string              `json:"level"`
	ThumbnailURL     string              `json:"thumbnail_url"`
	VideoURL         string              `json:"video_url"`
	Materials        pq.StringArray      `gorm:"type:text[]" json:"-"`
	Rating           float64             `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	TotalEnrollments int                 `gorm:"not null;default:0" json:"total_enrollments"`
	IsActive         bool                `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// TableName specifies the table name for the Course model
func (Course) TableName() string {
	return "courses"
}

// ValidLevel reports whether level is empty or one of the known levels.
func ValidLevel(level string) bool {
	switch level {
	case "", LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Enrollment links a user to a course. A user enrolls in a course at most once.
type Enrollment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID    uint       `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	Course      *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Progress    int        `gorm:"not null;default:0" json:"progress"` // percentage
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for the Enrollment model
func (Enrollment) TableName() string {
	return "enrollments"
}
