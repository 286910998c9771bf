package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleParent     = "PARENT"
	RoleDeptHead   = "DEPT_HEAD"
	RoleAdmin      = "ADMIN"
)

type User struct {
	gorm.Model
	Name      string     `json:"name" gorm:"default:''"`
	Email     string     `json:"email" gorm:"unique;not null"`
	Mobile    string     `json:"mobile" gorm:"default:''"`
	Role      string     `json:"role" gorm:"default:'STUDENT'"` // STUDENT, INSTRUCTOR, PARENT, DEPT_HEAD, ADMIN
	Password  string     `json:"-" gorm:"not null"`
	LastLogin *time.Time `json:"last_login"`
	IsDeleted bool       `json:"-" gorm:"default:false"`
}

// IsStaff reports whether the user may see draft quizzes and correct-answer flags.
func (u *User) IsStaff() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin || u.Role == RoleDeptHead
}
