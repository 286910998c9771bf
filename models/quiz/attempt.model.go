package quiz

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"openlearn/models"
)

// Validation/permission failures surfaced to the controllers
var (
	ErrNotEnrolled       = errors.New("user is not enrolled in the quiz's course")
	ErrSingleAttemptUsed = errors.New("quiz allows a single attempt and one was already completed")
	ErrQuestionNotInQuiz = errors.New("question does not belong to this quiz")
	ErrChoiceMismatch    = errors.New("selected choice does not belong to the given question")
	ErrChoiceRequired    = errors.New("mcq questions require a selected_choice")
	ErrResponseRequired  = errors.New("free-response questions require free_response")
	ErrAttemptCompleted  = errors.New("attempt is already completed")
)

// QuizAttempt is one run of a user through a quiz.
// Score and CompletedAt are both null until completion, then both set, never reset.
type QuizAttempt struct {
	gorm.Model
	UserID        uint                `json:"user_id" gorm:"index;not null;uniqueIndex:qa_quiz_user_attempt_idx"`
	QuizID        uint                `json:"quiz_id" gorm:"index;not null;uniqueIndex:qa_quiz_user_attempt_idx"`
	AttemptNumber int                 `json:"attempt_number" gorm:"not null;uniqueIndex:qa_quiz_user_attempt_idx"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	Score         decimal.NullDecimal `json:"score" gorm:"type:decimal(5,2)"` // percentage 0.00-100.00
}

// IsCompleted reports whether the attempt reached its terminal state.
func (a *QuizAttempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// Answer is the single recorded answer per (attempt, question); re-submissions replace it
type Answer struct {
	gorm.Model
	AttemptID        uint    `json:"attempt_id" gorm:"not null;uniqueIndex:answer_attempt_question_idx"`
	QuestionID       uint    `json:"question_id" gorm:"not null;uniqueIndex:answer_attempt_question_idx"`
	SelectedChoiceID *uint   `json:"selected_choice_id"`
	FreeResponse     *string `json:"free_response"`
}

// UserHasCompletedAttempt reports whether the user has finished any attempt of the quiz.
func (q *Quiz) UserHasCompletedAttempt(db *gorm.DB, userID uint) bool {
	var count int64
	db.Model(&QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ? AND completed_at IS NOT NULL", q.ID, userID).
		Count(&count)
	return count > 0
}

// CanStartAttempt is the enrollment gate: a pure check with no side effects.
// An uncompleted previous attempt does not block starting a new one; only a
// completed attempt blocks when the quiz is single-attempt.
func CanStartAttempt(db *gorm.DB, userID uint, q *Quiz) error {
	if !models.IsEnrolled(db, userID, q.CourseID) {
		return ErrNotEnrolled
	}
	if q.SingleAttempt && q.UserHasCompletedAttempt(db, userID) {
		return ErrSingleAttemptUsed
	}
	return nil
}

// StartAttempt numbers and creates a new in-progress attempt. The unique index
// on (quiz, user, attempt_number) is the authoritative guard against two
// concurrent starts picking the same number; callers map gorm.ErrDuplicatedKey
// to a retryable conflict.
func StartAttempt(db *gorm.DB, userID uint, q *Quiz) (*QuizAttempt, error) {
	var attemptCount int64
	if err := db.Model(&QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", q.ID, userID).
		Count(&attemptCount).Error; err != nil {
		return nil, err
	}

	attempt := QuizAttempt{
		UserID:        userID,
		QuizID:        q.ID,
		AttemptNumber: int(attemptCount) + 1,
		StartedAt:     time.Now(),
	}
	if err := db.Create(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// answerValidators dispatches per-type answer validation. Choice ownership is
// checked in SubmitAnswer before dispatch; these only enforce the per-type
// required field.
var answerValidators = map[string]func(selectedChoiceID *uint, freeResponse string) error{
	TypeMultipleChoice: validateMCQAnswer,
	TypeFreeResponse:   validateFreeResponseAnswer,
}

func validateMCQAnswer(selectedChoiceID *uint, _ string) error {
	if selectedChoiceID == nil {
		return ErrChoiceRequired
	}
	return nil
}

func validateFreeResponseAnswer(_ *uint, freeResponse string) error {
	if freeResponse == "" {
		return ErrResponseRequired
	}
	return nil
}

// SubmitAnswer validates and upserts the answer for (attempt, question).
// It returns the resulting row and whether it was newly created.
func SubmitAnswer(db *gorm.DB, attempt *QuizAttempt, question *Question, selectedChoiceID *uint, freeResponse string) (*Answer, bool, error) {
	if attempt.IsCompleted() {
		return nil, false, ErrAttemptCompleted
	}
	if question.QuizID != attempt.QuizID {
		return nil, false, ErrQuestionNotInQuiz
	}

	// Whenever a choice is submitted it must belong to the answered question,
	// whatever the question type.
	if selectedChoiceID != nil {
		var choice Choice
		if err := db.Where("id = ? AND is_deleted = ?", *selectedChoiceID, false).First(&choice).Error; err != nil {
			return nil, false, ErrChoiceMismatch
		}
		if choice.QuestionID != question.ID {
			return nil, false, ErrChoiceMismatch
		}
	}

	validate, ok := answerValidators[question.Type]
	if !ok {
		validate = validateMCQAnswer
	}
	if err := validate(selectedChoiceID, freeResponse); err != nil {
		return nil, false, err
	}

	var response *string
	if freeResponse != "" {
		response = &freeResponse
	}

	var answer Answer
	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("attempt_id = ? AND question_id = ?", attempt.ID, question.ID).
			First(&answer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			answer = Answer{
				AttemptID:        attempt.ID,
				QuestionID:       question.ID,
				SelectedChoiceID: selectedChoiceID,
				FreeResponse:     response,
			}
			return tx.Create(&answer).Error
		}
		if err != nil {
			return err
		}
		answer.SelectedChoiceID = selectedChoiceID
		answer.FreeResponse = response
		return tx.Save(&answer).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &answer, created, nil
}

// ScoreAttempt computes the percentage score over the quiz's mcq questions from
// the answers persisted at call time. Free-response questions are never scored.
// A quiz with no mcq questions scores 0.00. Pure read; calling it twice without
// new answers yields the same result.
func ScoreAttempt(db *gorm.DB, attempt *QuizAttempt) decimal.Decimal {
	quiz := Quiz{Model: gorm.Model{ID: attempt.QuizID}}
	total := quiz.MCQQuestionCount(db)
	if total == 0 {
		return decimal.Zero.Round(2)
	}

	// Same is_deleted predicates as MCQQuestionCount so the numerator can never
	// count an answer the denominator excludes.
	var correct int64
	db.Model(&Answer{}).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Joins("JOIN choices ON choices.id = answers.selected_choice_id").
		Where("answers.attempt_id = ? AND questions.type = ? AND questions.is_deleted = ? AND choices.is_deleted = ? AND choices.is_correct = ?",
			attempt.ID, TypeMultipleChoice, false, false, true).
		Count(&correct)

	return decimal.NewFromInt(correct * 100).
		Div(decimal.NewFromInt(total)).
		Round(2)
}

// CompleteAttempt grades the attempt and moves it to its terminal state, setting
// score and completed_at together in one transaction. Completing an already
// completed attempt is a no-op that returns the stored score: grading is
// deterministic and a delivered result must not silently change.
func CompleteAttempt(db *gorm.DB, attempt *QuizAttempt) (decimal.Decimal, bool, error) {
	if attempt.IsCompleted() {
		return attempt.Score.Decimal, true, nil
	}

	var score decimal.Decimal
	err := db.Transaction(func(tx *gorm.DB) error {
		score = ScoreAttempt(tx, attempt)
		completedAt := time.Now()
		if err := tx.Model(attempt).Updates(map[string]interface{}{
			"score":        score,
			"completed_at": completedAt,
		}).Error; err != nil {
			return err
		}
		attempt.Score = decimal.NewNullDecimal(score)
		attempt.CompletedAt = &completedAt
		return nil
	})
	if err != nil {
		return decimal.Zero, false, err
	}
	return score, false, nil
}
