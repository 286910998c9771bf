package quizRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "openlearn/controllers/quiz"
	"openlearn/middleware"
	"openlearn/models"
	validators "openlearn/validators/quiz"
)

// SetupQuizRoutes sets up quiz content and attempt lifecycle routes
func SetupQuizRoutes(app *fiber.App) {
	quizGroup := app.Group("/quiz")

	// Attempt lifecycle: start -> answer (repeatable) -> complete (terminal)
	quizGroup.Post("/attempts", middleware.JWTMiddleware, controllers.StartAttempt)
	quizGroup.Get("/attempts", middleware.JWTMiddleware, controllers.GetMyAttempts)
	quizGroup.Get("/attempts/:id", middleware.JWTMiddleware, controllers.GetAttempt)
	quizGroup.Post("/attempts/:id/answer", middleware.JWTMiddleware, controllers.SubmitAnswer)
	quizGroup.Post("/attempts/:id/complete", middleware.JWTMiddleware, controllers.CompleteAttempt)

	// Quiz content
	quizGroup.Get("/list", middleware.JWTMiddleware, controllers.GetQuizList)
	quizGroup.Get("/:id", middleware.JWTMiddleware, validators.QuizID(), controllers.GetQuizDetail)

	// Authoring (instructors and admins)
	quizGroup.Post("/",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleInstructor, models.RoleAdmin),
		validators.CreateQuiz(),
		controllers.CreateQuiz)
	quizGroup.Post("/:id/question",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleInstructor, models.RoleAdmin),
		validators.QuizID(),
		validators.AddQuestion(),
		controllers.AddQuestion)
}
