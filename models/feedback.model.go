package models

import "gorm.io/gorm"

// SiteFeedback stores a user's feedback about the platform
type SiteFeedback struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	Message   string `json:"message" gorm:"not null"`
	Rating    *int   `json:"rating"` // 1-5, optional
	IsDeleted bool   `json:"-" gorm:"default:false"`
}

// ActivityLog records notable events (enrollments, attempt completions)
type ActivityLog struct {
	gorm.Model
	Message string `json:"message" gorm:"not null"`
}

// LogActivity appends a message to the activity stream. Failures are ignored;
// the stream is informational only.
func LogActivity(db *gorm.DB, message string) {
	db.Create(&ActivityLog{Message: message})
}
