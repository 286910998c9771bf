package quizValidator

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"openlearn/middleware"
	quizModels "openlearn/models/quiz"
)

// QuizID validates the :id path param and stashes it as quizID
func QuizID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quizID, err := strconv.Atoi(c.Params("id"))
		if err != nil || quizID < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz id!", nil)
		}

		c.Locals("quizID", quizID)
		return c.Next()
	}
}

func CreateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID      uint   `json:"course_id"`
			Title         string `json:"title"`
			Description   string `json:"description"`
			RandomOrder   bool   `json:"random_order"`
			SingleAttempt bool   `json:"single_attempt"`
			PassMark      *int   `json:"pass_mark"`
			Draft         bool   `json:"draft"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.CourseID == 0 {
			errors["course_id"] = "Course id is required!"
		}
		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.PassMark != nil && (*reqData.PassMark < 0 || *reqData.PassMark > 100) {
			errors["pass_mark"] = "Pass mark must be between 0 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuiz", reqData)
		return c.Next()
	}
}

func AddQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Text    string `json:"text"`
			Order   int    `json:"order"`
			Type    string `json:"type"`
			Choices []struct {
				Text      string `json:"text"`
				IsCorrect bool   `json:"is_correct"`
			} `json:"choices"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Type == "" {
			reqData.Type = quizModels.TypeMultipleChoice
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Text) == "" {
			errors["text"] = "Question text is required!"
		}
		if reqData.Type != quizModels.TypeMultipleChoice && reqData.Type != quizModels.TypeFreeResponse {
			errors["type"] = "Type must be 'mcq' or 'free_response'!"
		}
		if reqData.Type == quizModels.TypeMultipleChoice && len(reqData.Choices) == 0 {
			errors["choices"] = "MCQ questions need at least one choice!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuestion", reqData)
		return c.Next()
	}
}
