package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"openlearn/database"
	"openlearn/middleware"
	"openlearn/models"
	quizModels "openlearn/models/quiz"
	"openlearn/utils"
)

// StartAttempt starts a new quiz attempt for the calling user.
// The enrollment gate runs first; the unique (quiz, user, attempt_number)
// index turns a concurrent-start race into a 409 the client can retry.
func StartAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData := new(struct {
		Quiz uint `json:"quiz"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	if reqData.Quiz == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing 'quiz' field!", nil)
	}

	db := database.Database.Db

	var quiz quizModels.Quiz
	if err := db.Where("id = ? AND is_deleted = ?", reqData.Quiz, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	// Drafts are not startable by students
	if quiz.Draft {
		var course models.Course
		db.Where("id = ?", quiz.CourseID).First(&course)
		if !canSeeAnswers(&user, &course) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
		}
	}

	if err := quizModels.CanStartAttempt(db, userID, &quiz); err != nil {
		switch {
		case errors.Is(err, quizModels.ErrNotEnrolled):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
		case errors.Is(err, quizModels.ErrSingleAttemptUsed):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not allowed another attempt for this quiz!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start attempt!", nil)
		}
	}

	attempt, err := quizModels.StartAttempt(db, userID, &quiz)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Attempt already being started, please retry!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start attempt!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Attempt started successfully!", attempt)
}

// loadOwnedAttempt fetches the attempt and enforces ownership: non-owners get 403.
func loadOwnedAttempt(c *fiber.Ctx, userID uint) (*quizModels.QuizAttempt, error) {
	attemptID, err := strconv.Atoi(c.Params("id"))
	if err != nil || attemptID < 1 {
		return nil, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt id!", nil)
	}

	var attempt quizModels.QuizAttempt
	if err := database.Database.Db.Where("id = ?", attemptID).First(&attempt).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attempt not found!", nil)
	}

	if attempt.UserID != userID {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "This attempt does not belong to you!", nil)
	}

	return &attempt, nil
}

// SubmitAnswer records (or replaces) the caller's answer for one question of
// an in-progress attempt. 201 on first submission, 200 on replacement.
func SubmitAnswer(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	attempt, errResp := loadOwnedAttempt(c, userID)
	if attempt == nil {
		return errResp
	}

	reqData := new(struct {
		Question       uint   `json:"question"`
		SelectedChoice *uint  `json:"selected_choice"`
		FreeResponse   string `json:"free_response"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	if reqData.Question == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing 'question' field!", nil)
	}

	db := database.Database.Db

	var question quizModels.Question
	if err := db.Where("id = ? AND is_deleted = ?", reqData.Question, false).First(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	answer, created, err := quizModels.SubmitAnswer(db, attempt, &question, reqData.SelectedChoice, reqData.FreeResponse)
	if err != nil {
		switch {
		case errors.Is(err, quizModels.ErrAttemptCompleted):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Attempt is already completed, answers are locked!", nil)
		case errors.Is(err, quizModels.ErrQuestionNotInQuiz):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Question does not belong to this quiz!", nil)
		case errors.Is(err, quizModels.ErrChoiceMismatch):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Selected choice does not belong to the given question!", nil)
		case errors.Is(err, quizModels.ErrChoiceRequired):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "MCQ questions require a selected_choice!", nil)
		case errors.Is(err, quizModels.ErrResponseRequired):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Free-response questions require free_response!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record answer!", nil)
		}
	}

	status := fiber.StatusOK
	message := "Answer updated!"
	if created {
		status = fiber.StatusCreated
		message = "Answer recorded!"
	}
	return middleware.JsonResponse(c, status, true, message, answer)
}

// CompleteAttempt grades the attempt and closes it. A repeated call is a
// no-op that returns the stored score.
func CompleteAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	attempt, errResp := loadOwnedAttempt(c, userID)
	if attempt == nil {
		return errResp
	}

	db := database.Database.Db

	score, alreadyCompleted, err := quizModels.CompleteAttempt(db, attempt)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to complete attempt!", nil)
	}

	if !alreadyCompleted {
		var quiz quizModels.Quiz
		db.Where("id = ?", attempt.QuizID).First(&quiz)

		models.LogActivity(db, user.Name+" completed '"+quiz.Title+"' with score "+score.StringFixed(2)+".")
		go utils.SendCompletionEmail(user.Email, user.Name, quiz.Title, score.StringFixed(2))
		go utils.NotifyAttemptCompleted(attempt.ID, attempt.QuizID, userID, score)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt completed!", fiber.Map{
		"score": score.StringFixed(2),
	})
}

// GetAttempt returns an attempt with its recorded answers
func GetAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	attempt, errResp := loadOwnedAttempt(c, userID)
	if attempt == nil {
		return errResp
	}

	var answers []quizModels.Answer
	database.Database.Db.Where("attempt_id = ?", attempt.ID).Order("question_id asc").Find(&answers)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt fetched successfully!", fiber.Map{
		"attempt": attempt,
		"answers": answers,
	})
}

// GetMyAttempts lists the caller's attempts, newest first
func GetMyAttempts(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var attempts []quizModels.QuizAttempt
	if err := database.Database.Db.Where("user_id = ?", userID).Order("started_at desc").Find(&attempts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attempts!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully!", fiber.Map{
		"attempts": attempts,
	})
}
