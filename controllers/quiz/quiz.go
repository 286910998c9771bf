package controllers

import (
	"errors"
	"math/rand"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"openlearn/database"
	"openlearn/middleware"
	"openlearn/models"
	quizModels "openlearn/models/quiz"
)

// choiceView hides is_correct unless the viewer may grade the quiz
type choiceView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type questionView struct {
	ID      uint         `json:"id"`
	Text    string       `json:"text"`
	Order   int          `json:"order"`
	Type    string       `json:"type"`
	Choices []choiceView `json:"choices"`
}

// canSeeAnswers reports whether the user may view correct-answer flags and
// draft quizzes: admins, department heads and the owning course's instructor.
func canSeeAnswers(user *models.User, course *models.Course) bool {
	if user.Role == models.RoleAdmin || user.Role == models.RoleDeptHead {
		return true
	}
	return user.Role == models.RoleInstructor && course.InstructorID == user.ID
}

// GetQuizList lists non-draft quizzes of the caller's enrolled courses.
// Instructors additionally see every quiz of the courses they teach,
// drafts included.
func GetQuizList(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	db := database.Database.Db

	var courseIDs []uint
	db.Model(&models.Enrollment{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Pluck("course_id", &courseIDs)

	quizzes := make([]quizModels.Quiz, 0)
	query := db.Where("course_id IN ? AND draft = ? AND is_deleted = ?", courseIDs, false, false)

	if user.Role == models.RoleInstructor {
		var taughtIDs []uint
		db.Model(&models.Course{}).
			Where("instructor_id = ? AND is_deleted = ?", userID, false).
			Pluck("id", &taughtIDs)
		query = db.Where(
			db.Where("course_id IN ? AND draft = ? AND is_deleted = ?", courseIDs, false, false).
				Or("course_id IN ? AND is_deleted = ?", taughtIDs, false),
		)
	}

	if err := query.Order("created_at desc").Find(&quizzes).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quizzes!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quizzes fetched successfully!", fiber.Map{
		"quizzes": quizzes,
	})
}

// GetQuizDetail returns a quiz with its nested questions and choices.
// Drafts 404 for students; is_correct is stripped for students; random_order
// quizzes present questions and choices shuffled per request.
func GetQuizDetail(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	quizID := c.Locals("quizID").(int)
	db := database.Database.Db

	var quiz quizModels.Quiz
	if err := db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	var course models.Course
	if err := db.Where("id = ? AND is_deleted = ?", quiz.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	staff := canSeeAnswers(&user, &course)

	// Draft quizzes are invisible to everyone but the grading side
	if quiz.Draft && !staff {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	if !staff && !models.IsEnrolled(db, userID, course.ID) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	questions, err := quiz.Questions(db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch questions!", nil)
	}

	views := make([]questionView, len(questions))
	for i, q := range questions {
		var choices []quizModels.Choice
		db.Where("question_id = ? AND is_deleted = ?", q.ID, false).Order("id asc").Find(&choices)

		choiceViews := make([]choiceView, len(choices))
		for j, ch := range choices {
			view := choiceView{ID: ch.ID, Text: ch.Text}
			if staff {
				isCorrect := ch.IsCorrect
				view.IsCorrect = &isCorrect
			}
			choiceViews[j] = view
		}

		if quiz.RandomOrder && !staff {
			rand.Shuffle(len(choiceViews), func(a, b int) {
				choiceViews[a], choiceViews[b] = choiceViews[b], choiceViews[a]
			})
		}

		views[i] = questionView{
			ID:      q.ID,
			Text:    q.Text,
			Order:   q.Order,
			Type:    q.Type,
			Choices: choiceViews,
		}
	}

	if quiz.RandomOrder && !staff {
		rand.Shuffle(len(views), func(a, b int) {
			views[a], views[b] = views[b], views[a]
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", fiber.Map{
		"quiz":      quiz,
		"questions": views,
	})
}

// CreateQuiz creates a quiz on a course the caller teaches
func CreateQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedQuiz").(*struct {
		CourseID      uint   `json:"course_id"`
		Title         string `json:"title"`
		Description   string `json:"description"`
		RandomOrder   bool   `json:"random_order"`
		SingleAttempt bool   `json:"single_attempt"`
		PassMark      *int   `json:"pass_mark"`
		Draft         bool   `json:"draft"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ? AND is_deleted = ?", reqData.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var user models.User
	db.Where("id = ?", userID).First(&user)
	if !canSeeAnswers(&user, &course) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not teach this course!", nil)
	}

	quiz := quizModels.Quiz{
		CourseID:      course.ID,
		Title:         reqData.Title,
		Description:   reqData.Description,
		RandomOrder:   reqData.RandomOrder,
		SingleAttempt: reqData.SingleAttempt,
		Draft:         reqData.Draft,
		PassMark:      50,
	}
	if reqData.PassMark != nil {
		quiz.PassMark = *reqData.PassMark
	}

	if err := db.Create(&quiz).Error; err != nil {
		if errors.Is(err, quizModels.ErrInvalidPassMark) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "pass_mark must be between 0 and 100!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created successfully!", quiz)
}

// AddQuestion appends a question (and optional choices) to a quiz the caller teaches
func AddQuestion(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(int)

	reqData, ok := c.Locals("validatedQuestion").(*struct {
		Text    string `json:"text"`
		Order   int    `json:"order"`
		Type    string `json:"type"`
		Choices []struct {
			Text      string `json:"text"`
			IsCorrect bool   `json:"is_correct"`
		} `json:"choices"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var quiz quizModels.Quiz
	if err := db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	var course models.Course
	if err := db.Where("id = ? AND is_deleted = ?", quiz.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	var user models.User
	db.Where("id = ?", userID).First(&user)
	if !canSeeAnswers(&user, &course) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not teach this course!", nil)
	}

	question := quizModels.Question{
		QuizID: quiz.ID,
		Text:   reqData.Text,
		Order:  reqData.Order,
		Type:   reqData.Type,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for _, ch := range reqData.Choices {
			choice := quizModels.Choice{
				QuestionID: question.ID,
				Text:       ch.Text,
				IsCorrect:  ch.IsCorrect,
			}
			if err := tx.Create(&choice).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question added successfully!", question)
}
