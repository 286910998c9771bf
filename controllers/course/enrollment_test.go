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
	courseRoutes "openlearn/routers/courseRoutes"
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
	courseRoutes.SetupCourseRoutes(app)
	return app, db
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

func TestEnrollInCourse(t *testing.T) {
	app, db := setupApp(t)

	student := models.User{Name: "Student", Email: "student@example.com", Password: "x"}
	instructor := models.User{Name: "Instructor", Email: "instructor@example.com", Role: models.RoleInstructor, Password: "x"}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&instructor).Error)

	course := models.Course{Title: "Anatomy 101", Code: "ANAT101", InstructorID: instructor.ID}
	require.NoError(t, db.Create(&course).Error)

	studentToken := token(t, &student)
	enrollPath := fmt.Sprintf("/course/%d/enroll", course.ID)

	status, _ := doRequest(t, app, http.MethodPost, enrollPath, studentToken, fiber.Map{})
	assert.Equal(t, http.StatusOK, status)

	// Enrolling twice conflicts
	status, _ = doRequest(t, app, http.MethodPost, enrollPath, studentToken, fiber.Map{})
	assert.Equal(t, http.StatusConflict, status)

	// Unknown course
	status, _ = doRequest(t, app, http.MethodPost, "/course/9999/enroll", studentToken, fiber.Map{})
	assert.Equal(t, http.StatusNotFound, status)

	// The enrollment shows up in the student's list
	status, payload := doRequest(t, app, http.MethodGet, "/user/enrollments", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	enrollments := payload["data"].(map[string]interface{})["enrollments"].([]interface{})
	require.Len(t, enrollments, 1)
	enrolledCourse := enrollments[0].(map[string]interface{})["course"].(map[string]interface{})
	assert.Equal(t, "ANAT101", enrolledCourse["code"])
}

func TestCourseListPagination(t *testing.T) {
	app, db := setupApp(t)

	student := models.User{Name: "Student", Email: "student@example.com", Password: "x"}
	instructor := models.User{Name: "Instructor", Email: "instructor@example.com", Role: models.RoleInstructor, Password: "x"}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&instructor).Error)

	for i := 1; i <= 3; i++ {
		course := models.Course{Title: fmt.Sprintf("Course %d", i), Code: fmt.Sprintf("C%03d", i), InstructorID: instructor.ID}
		require.NoError(t, db.Create(&course).Error)
	}

	// Query params drive the page size, not the defaults
	status, payload := doRequest(t, app, http.MethodGet, "/course/list?page=1&limit=2", token(t, &student), nil)
	require.Equal(t, http.StatusOK, status)

	body := payload["data"].(map[string]interface{})
	courses := body["courses"].([]interface{})
	assert.Len(t, courses, 2)

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["limit"])
	assert.Equal(t, float64(3), pagination["total"])
}

func TestCreateCourseRequiresInstructorRole(t *testing.T) {
	app, db := setupApp(t)

	student := models.User{Name: "Student", Email: "student@example.com", Password: "x"}
	instructor := models.User{Name: "Instructor", Email: "instructor@example.com", Role: models.RoleInstructor, Password: "x"}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&instructor).Error)

	body := fiber.Map{"title": "Physiology", "code": "PHYS200", "level": "bachelor", "year": 2, "semester": "spring"}

	status, _ := doRequest(t, app, http.MethodPost, "/course/", token(t, &student), body)
	assert.Equal(t, http.StatusForbidden, status)

	status, payload := doRequest(t, app, http.MethodPost, "/course/", token(t, &instructor), body)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "PHYS200", payload["data"].(map[string]interface{})["code"])
}
