package models

import "gorm.io/gorm"

// Program groups courses under a degree program
type Program struct {
	gorm.Model
	Title     string `json:"title" gorm:"unique;not null"`
	Summary   string `json:"summary"`
	IsDeleted bool   `json:"-" gorm:"default:false"`
}

// Course represents a course offering owned by an instructor
type Course struct {
	gorm.Model
	Title        string `json:"title"`
	Code         string `json:"code" gorm:"unique"`
	Summary      string `json:"summary"`
	ProgramID    uint   `json:"program_id" gorm:"index"`
	InstructorID uint   `json:"instructor_id" gorm:"index;not null"`
	Level        string `json:"level" gorm:"default:'bachelor'"` // bachelor, master
	Year         int    `json:"year" gorm:"default:1"`
	Semester     string `json:"semester" gorm:"default:'fall'"` // fall, spring
	Status       string `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, INACTIVE
	IsDeleted    bool   `json:"-" gorm:"default:false"`
}

// Enrollment associates a user with a course
type Enrollment struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index;not null;uniqueIndex:enroll_user_course_idx"`
	CourseID  uint   `json:"course_id" gorm:"index;not null;uniqueIndex:enroll_user_course_idx"`
	Course    Course `json:"course" gorm:"foreignKey:CourseID"`
	IsDeleted bool   `json:"-" gorm:"default:false"`
}

// IsEnrolled reports whether a user has an enrollment record for a course.
func IsEnrolled(db *gorm.DB, userID, courseID uint) bool {
	var count int64
	db.Model(&Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		Count(&count)
	return count > 0
}
