package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"openlearn/database"
	"openlearn/middleware"
	"openlearn/models"
)

// SubmitFeedback records site feedback from the calling user
func SubmitFeedback(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData := new(struct {
		Message string `json:"message"`
		Rating  *int   `json:"rating"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	errors := make(map[string]string)
	if strings.TrimSpace(reqData.Message) == "" {
		errors["message"] = "Message is required!"
	}
	if reqData.Rating != nil && (*reqData.Rating < 1 || *reqData.Rating > 5) {
		errors["rating"] = "Rating must be between 1 and 5!"
	}
	if len(errors) > 0 {
		return middleware.ValidationErrorResponse(c, errors)
	}

	feedback := models.SiteFeedback{
		UserID:  userID,
		Message: strings.TrimSpace(reqData.Message),
		Rating:  reqData.Rating,
	}

	if err := database.Database.Db.Create(&feedback).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit feedback!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Feedback submitted successfully!", feedback)
}

// GetMyFeedback lists the caller's feedback entries
func GetMyFeedback(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var feedbacks []models.SiteFeedback
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false).Order("created_at desc").Find(&feedbacks).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch feedback!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feedback fetched successfully!", fiber.Map{
		"feedbacks": feedbacks,
	})
}
