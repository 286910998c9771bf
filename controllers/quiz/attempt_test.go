package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"openlearn/config"
	"openlearn/database"
	"openlearn/middleware"
	"openlearn/models"
	quizModels "openlearn/models/quiz"
	quizRoutes "openlearn/routers/quizRoutes"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	config.LoadConfig()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()
	quizRoutes.SetupQuizRoutes(app)
	return app, db
}

type fixture struct {
	student    models.User
	instructor models.User
	outsider   models.User
	course     models.Course
	quiz       quizModels.Quiz
	q1, q2     quizModels.Question
	c1a, c1b   quizModels.Choice // q1: right, wrong
	c2a, c2b   quizModels.Choice // q2: right, wrong
}

func seed(t *testing.T, db *gorm.DB) *fixture {
	f := &fixture{}

	f.student = models.User{Name: "Student", Email: "student@example.com", Password: "x"}
	f.instructor = models.User{Name: "Instructor", Email: "instructor@example.com", Role: models.RoleInstructor, Password: "x"}
	f.outsider = models.User{Name: "Outsider", Email: "outsider@example.com", Password: "x"}
	require.NoError(t, db.Create(&f.student).Error)
	require.NoError(t, db.Create(&f.instructor).Error)
	require.NoError(t, db.Create(&f.outsider).Error)

	f.course = models.Course{Title: "Anatomy 101", Code: "ANAT101", InstructorID: f.instructor.ID}
	require.NoError(t, db.Create(&f.course).Error)
	require.NoError(t, db.Create(&models.Enrollment{UserID: f.student.ID, CourseID: f.course.ID}).Error)

	f.quiz = quizModels.Quiz{CourseID: f.course.ID, Title: "Midterm", PassMark: 50}
	require.NoError(t, db.Create(&f.quiz).Error)

	f.q1 = quizModels.Question{QuizID: f.quiz.ID, Text: "Q1", Order: 1, Type: quizModels.TypeMultipleChoice}
	require.NoError(t, db.Create(&f.q1).Error)
	f.c1a = quizModels.Choice{QuestionID: f.q1.ID, Text: "right", IsCorrect: true}
	f.c1b = quizModels.Choice{QuestionID: f.q1.ID, Text: "wrong"}
	require.NoError(t, db.Create(&f.c1a).Error)
	require.NoError(t, db.Create(&f.c1b).Error)

	f.q2 = quizModels.Question{QuizID: f.quiz.ID, Text: "Q2", Order: 2, Type: quizModels.TypeMultipleChoice}
	require.NoError(t, db.Create(&f.q2).Error)
	f.c2a = quizModels.Choice{QuestionID: f.q2.ID, Text: "right", IsCorrect: true}
	f.c2b = quizModels.Choice{QuestionID: f.q2.ID, Text: "wrong"}
	require.NoError(t, db.Create(&f.c2a).Error)
	require.NoError(t, db.Create(&f.c2b).Error)

	return f
}

func token(t *testing.T, user *models.User) string {
	tok, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return tok
}

func doRequest(t *testing.T, app *fiber.App, method, path, bearer string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return res.StatusCode, payload
}

func data(payload map[string]interface{}) map[string]interface{} {
	d, _ := payload["data"].(map[string]interface{})
	return d
}

func startAttempt(t *testing.T, app *fiber.App, bearer string, quizID uint) uint {
	status, payload := doRequest(t, app, http.MethodPost, "/quiz/attempts", bearer, fiber.Map{"quiz": quizID})
	require.Equal(t, http.StatusCreated, status)
	id := data(payload)["ID"].(float64)
	return uint(id)
}

func TestStartAttempt(t *testing.T) {
	app, db := setupApp(t)
	f := seed(t, db)

	studentToken := token(t, &f.student)

	// Missing quiz id
	status, _ := doRequest(t, app, http.MethodPost, "/quiz/attempts", studentToken, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, status)

	// Unknown quiz
	status, _ = doRequest(t, app, http.MethodPost, "/quiz/attempts", studentToken, fiber.Map{"quiz": 9999})
	assert.Equal(t, http.StatusNotFound, status)

	// Not enrolled
	status, _ = doRequest(t, app, http.MethodPost, "/quiz/attempts", token(t, &f.outsider), fiber.Map{"quiz": f.quiz.ID})
	assert.Equal(t, http.StatusForbidden, status)

	// Enrolled
	status, payload := doRequest(t, app, http.MethodPost, "/quiz/attempts", studentToken, fiber.Map{"quiz": f.quiz.ID})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(1), data(payload)["attempt_number"])
	assert.Nil(t, data(payload)["completed_at"])
	assert.Nil(t, data(payload)["score"])
}

func TestAnswerUpsertStatusCodes(t *testing.T) {
	app, db := setupApp(t)
	f := seed(t, db)

	studentToken := token(t, &f.student)
	attemptID := startAttempt(t, app, studentToken, f.quiz.ID)
	answerPath := fmt.Sprintf("/quiz/attempts/%d/answer", attemptID)

	// First submission creates
	status, _ := doRequest(t, app, http.MethodPost, answerPath, studentToken,
		fiber.Map{"question": f.q1.ID, "selected_choice": f.c1b.ID})
	assert.Equal(t, http.StatusCreated, status)

	// Second submission for the same question replaces
	status, payload := doRequest(t, app, http.MethodPost, answerPath, studentToken,
		fiber.Map{"question": f.q1.ID, "selected_choice": f.c1a.ID})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(f.c1a.ID), data(payload)["selected_choice_id"])

	var count int64
	db.Model(&quizModels.Answer{}).Where("attempt_id = ?", attemptID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAnswerValidationFailures(t *testing.T) {
	app, db := setupApp(t)
	f := seed(t, db)

	studentToken := token(t, &f.student)
	attemptID := startAttempt(t, app, studentToken, f.quiz.ID)
	answerPath := fmt.Sprintf("/quiz/attempts/%d/answer", attemptID)

	// Non-owner gets 403
	status, _ := doRequest(t, app, http.MethodPost, answerPath, token(t, &f.outsider),
		fiber.Map{"question": f.q1.ID, "selected_choice": f.c1a.ID})
	assert.Equal(t, http.StatusForbidden, status)

	// Choice belongs to a different question
	status, _ = doRequest(t, app, http.MethodPost, answerPath, studentToken,
		fiber.Map{"question": f.q1.ID, "selected_choice": f.c2a.ID})
	assert.Equal(t, http.StatusBadRequest, status)

	// MCQ without a choice
	status, _ = doRequest(t, app, http.MethodPost, answerPath, studentToken,
		fiber.Map{"question": f.q1.ID})
	assert.Equal(t, http.StatusBadRequest, status)

	// Nothing was recorded
	var count int64
	db.Model(&quizModels.Answer{}).Where("attempt_id = ?", attemptID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCompleteScoresAttempt(t *testing.T) {
	app, db := setupApp(t)
	f := seed(t, db)

	studentToken := token(t, &f.student)
	attemptID := startAttempt(t, app, studentToken, f.quiz.ID)
	answerPath := fmt.Sprintf("/quiz/attempts/%d/answer", attemptID)
	completePath := fmt.Sprintf("/quiz/attempts/%d/complete", attemptID)

	// One right, one wrong
	status, _ := doRequest(t, app, http.MethodPost, answerPath, studentToken,
		fiber.Map{"question": f.q1.ID, "selected_choice": f.c1a.ID})
	require.Equal(t, http.StatusCreated, status)
	status, _ = doRequest(t, app, http.MethodPost, answerPath, studentToken,
		fiber.Map{"question": f.q2.ID, "selected_choice": f.c2b.ID})
	require.Equal(t, http.StatusCreated, status)

	status, payload := doRequest(t, app, http.MethodPost, completePath, studentToken, fiber.Map{})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "50.00", data(payload)["score"])

	// Repeat completion is a no-op returning the same score
	status, payload = doRequest(t, app, http.MethodPost, completePath, studentToken, fiber.Map{})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "50.00", data(payload)["score"])

	// Answers are locked after grading
	status, _ = doRequest(t, app, http.MethodPost, answerPath, studentToken,
		fiber.Map{"question": f.q2.ID, "selected_choice": f.c2a.ID})
	assert.Equal(t, http.StatusConflict, status)
}

func TestCompleteForbiddenForNonOwner(t *testing.T) {
	app, db := setupApp(t)
	f := seed(t, db)

	attemptID := startAttempt(t, app, token(t, &f.student), f.quiz.ID)
	completePath := fmt.Sprintf("/quiz/attempts/%d/complete", attemptID)

	status, _ := doRequest(t, app, http.MethodPost, completePath, token(t, &f.outsider), fiber.Map{})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSingleAttemptDeniedAfterCompletion(t *testing.T) {
	app, db := setupApp(t)
	f := seed(t, db)

	require.NoError(t, db.Model(&f.quiz).Update("single_attempt", true).Error)

	studentToken := token(t, &f.student)
	attemptID := startAttempt(t, app, studentToken, f.quiz.ID)

	// A second start is still allowed while the first is in progress
	status, _ := doRequest(t, app, http.MethodPost, "/quiz/attempts", studentToken, fiber.Map{"quiz": f.quiz.ID})
	assert.Equal(t, http.StatusCreated, status)

	completePath := fmt.Sprintf("/quiz/attempts/%d/complete", attemptID)
	status, _ = doRequest(t, app, http.MethodPost, completePath, studentToken, fiber.Map{})
	require.Equal(t, http.StatusOK, status)

	// After one completed attempt, further starts are rejected
	status, _ = doRequest(t, app, http.MethodPost, "/quiz/attempts", studentToken, fiber.Map{"quiz": f.quiz.ID})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestDraftQuizHiddenFromStudents(t *testing.T) {
	app, db := setupApp(t)
	f := seed(t, db)

	require.NoError(t, db.Model(&f.quiz).Update("draft", true).Error)

	studentToken := token(t, &f.student)
	detailPath := fmt.Sprintf("/quiz/%d", f.quiz.ID)

	status, _ := doRequest(t, app, http.MethodGet, detailPath, studentToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodPost, "/quiz/attempts", studentToken, fiber.Map{"quiz": f.quiz.ID})
	assert.Equal(t, http.StatusNotFound, status)

	// Draft quizzes never show up in the student listing
	status, payload := doRequest(t, app, http.MethodGet, "/quiz/list", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	quizzes := data(payload)["quizzes"].([]interface{})
	assert.Empty(t, quizzes)

	// The owning instructor still sees it
	status, _ = doRequest(t, app, http.MethodGet, detailPath, token(t, &f.instructor), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestIsCorrectHiddenFromStudents(t *testing.T) {
	app, db := setupApp(t)
	f := seed(t, db)

	detailPath := fmt.Sprintf("/quiz/%d", f.quiz.ID)

	status, payload := doRequest(t, app, http.MethodGet, detailPath, token(t, &f.student), nil)
	require.Equal(t, http.StatusOK, status)

	questions := data(payload)["questions"].([]interface{})
	require.NotEmpty(t, questions)
	for _, q := range questions {
		choices := q.(map[string]interface{})["choices"].([]interface{})
		for _, ch := range choices {
			_, leaked := ch.(map[string]interface{})["is_correct"]
			assert.False(t, leaked, "is_correct must not be exposed to students")
		}
	}

	// The owning instructor sees the flags
	status, payload = doRequest(t, app, http.MethodGet, detailPath, token(t, &f.instructor), nil)
	require.Equal(t, http.StatusOK, status)
	questions = data(payload)["questions"].([]interface{})
	found := false
	for _, q := range questions {
		choices := q.(map[string]interface{})["choices"].([]interface{})
		for _, ch := range choices {
			if _, ok := ch.(map[string]interface{})["is_correct"]; ok {
				found = true
			}
		}
	}
	assert.True(t, found, "instructor view should include is_correct")
}
