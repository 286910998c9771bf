package models

import "gorm.io/gorm"

// Semester represents an academic term; at most one row is current at a time
type Semester struct {
	gorm.Model
	Name      string `json:"name"`
	Term      string `json:"term"` // fall, spring
	Year      int    `json:"year"`
	IsCurrent bool   `json:"is_current" gorm:"default:false"`
}

// SetCurrentSemester clears the current flag on every other semester and sets it
// on the target, all inside one transaction, so the at-most-one-current
// invariant holds even under concurrent calls.
func SetCurrentSemester(db *gorm.DB, semesterID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var semester Semester
		if err := tx.Where("id = ?", semesterID).First(&semester).Error; err != nil {
			return err
		}
		if err := tx.Model(&Semester{}).Where("id <> ?", semesterID).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Model(&semester).Update("is_current", true).Error
	})
}
