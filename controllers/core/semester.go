package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"openlearn/database"
	"openlearn/middleware"
	"openlearn/models"
)

// CreateSemester adds an academic term (admin only, enforced at the router)
func CreateSemester(c *fiber.Ctx) error {
	reqData := new(struct {
		Name string `json:"name"`
		Term string `json:"term"`
		Year int    `json:"year"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	errs := make(map[string]string)
	if reqData.Name == "" {
		errs["name"] = "Name is required!"
	}
	if reqData.Term != "fall" && reqData.Term != "spring" {
		errs["term"] = "Term must be 'fall' or 'spring'!"
	}
	if reqData.Year < 2000 {
		errs["year"] = "Year is required!"
	}
	if len(errs) > 0 {
		return middleware.ValidationErrorResponse(c, errs)
	}

	semester := models.Semester{
		Name: reqData.Name,
		Term: reqData.Term,
		Year: reqData.Year,
	}
	if err := database.Database.Db.Create(&semester).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create semester!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Semester created successfully!", semester)
}

// SetCurrentSemester marks one semester as current and clears the flag on all
// others, in a single transaction (admin only, enforced at the router).
func SetCurrentSemester(c *fiber.Ctx) error {
	semesterID, err := strconv.Atoi(c.Params("id"))
	if err != nil || semesterID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid semester id!", nil)
	}

	if err := models.SetCurrentSemester(database.Database.Db, uint(semesterID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Semester not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to set current semester!", nil)
	}

	var semester models.Semester
	database.Database.Db.Where("id = ?", semesterID).First(&semester)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Current semester updated!", semester)
}

// GetCurrentSemester returns the semester flagged as current, if any
func GetCurrentSemester(c *fiber.Ctx) error {
	var semester models.Semester
	if err := database.Database.Db.Where("is_current = ?", true).First(&semester).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No current semester set!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Current semester fetched!", semester)
}
