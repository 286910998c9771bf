package coreRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "openlearn/controllers/core"
	"openlearn/middleware"
	"openlearn/models"
)

// SetupCoreRoutes sets up feedback and semester administration routes
func SetupCoreRoutes(app *fiber.App) {
	feedbackGroup := app.Group("/feedback")
	feedbackGroup.Post("/", middleware.JWTMiddleware, controllers.SubmitFeedback)
	feedbackGroup.Get("/", middleware.JWTMiddleware, controllers.GetMyFeedback)

	semesterGroup := app.Group("/semester")
	semesterGroup.Get("/current", middleware.JWTMiddleware, controllers.GetCurrentSemester)
	semesterGroup.Post("/",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
		controllers.CreateSemester)
	semesterGroup.Post("/:id/current",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
		controllers.SetCurrentSemester)
}
