package models

import "time"

// Notification types.
const (
	NotificationOrderUpdate    = "order_update"
	NotificationCourseReminder = "course_reminder"
	NotificationGeneral        = "general"
)

// Notification is an in-app message addressed to a user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(255);not null;index" json:"user_id"`
	Title     string    `gorm:"not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Type      string    `gorm:"type:varchar(32);not null" json:"type"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	RelatedID string    `json:"related_id"` // order or course id
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
