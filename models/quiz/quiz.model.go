package quiz

import (
	"errors"

	"gorm.io/gorm"
)

// Question types
const (
	TypeMultipleChoice = "mcq"
	TypeFreeResponse   = "free_response"
)

var ErrInvalidPassMark = errors.New("pass_mark must be between 0 and 100")

// Quiz is a gradable assessment owned by a course
type Quiz struct {
	gorm.Model
	CourseID      uint   `json:"course_id" gorm:"index;not null"`
	Title         string `json:"title" gorm:"not null"`
	Description   string `json:"description"`
	RandomOrder   bool   `json:"random_order" gorm:"default:false"`   // shuffle question/choice order per view
	SingleAttempt bool   `json:"single_attempt" gorm:"default:false"` // one completed attempt per user
	PassMark      int    `json:"pass_mark" gorm:"default:50"`         // informational threshold, 0-100
	Draft         bool   `json:"draft" gorm:"default:false"`
	IsDeleted     bool   `json:"-" gorm:"default:false"`
}

// BeforeSave enforces the pass-mark range at the store boundary.
func (q *Quiz) BeforeSave(tx *gorm.DB) error {
	if q.PassMark < 0 || q.PassMark > 100 {
		return ErrInvalidPassMark
	}
	return nil
}

// Question belongs to a quiz; only mcq questions count toward scoring
type Question struct {
	gorm.Model
	QuizID    uint   `json:"quiz_id" gorm:"index;not null"`
	Text      string `json:"text" gorm:"not null"`
	Order     int    `json:"order" gorm:"column:question_order;index;default:0"`
	Type      string `json:"type" gorm:"default:'mcq'"` // mcq, free_response
	IsDeleted bool   `json:"-" gorm:"default:false"`
}

// Choice is one selectable option of an mcq question
type Choice struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	Text       string `json:"text" gorm:"not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	IsDeleted  bool   `json:"-" gorm:"default:false"`
}

// MCQQuestionCount returns how many questions of the quiz are gradable.
func (q *Quiz) MCQQuestionCount(db *gorm.DB) int64 {
	var count int64
	db.Model(&Question{}).
		Where("quiz_id = ? AND type = ? AND is_deleted = ?", q.ID, TypeMultipleChoice, false).
		Count(&count)
	return count
}

// Questions returns the quiz's questions in display/grading sequence:
// ascending order, insertion order breaking ties.
func (q *Quiz) Questions(db *gorm.DB) ([]Question, error) {
	var questions []Question
	err := db.Where("quiz_id = ? AND is_deleted = ?", q.ID, false).
		Order("question_order asc, id asc").
		Find(&questions).Error
	return questions, err
}
