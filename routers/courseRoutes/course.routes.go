package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "openlearn/controllers/course"
	"openlearn/middleware"
	"openlearn/models"
	validators "openlearn/validators/course"
)

// SetupCourseRoutes sets up all course and enrollment routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Course listing and details
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseDetails)

	// Course creation (instructors and admins)
	courseGroup.Post("/",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleInstructor, models.RoleAdmin),
		validators.CreateCourse(),
		controllers.CreateCourse)

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.CourseID(), controllers.EnrollInCourse)

	// User enrollments
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetEnrollments)
}
