package utils

import (
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"openlearn/config"
)

// NotifyAttemptCompleted POSTs a completion event to the configured webhook so
// the surrounding application shell (gradebook, parent portal) can react.
// No-op when ATTEMPT_WEBHOOK_URL is unset; failures are logged, never surfaced
// to the grading request.
func NotifyAttemptCompleted(attemptID, quizID, userID uint, score decimal.Decimal) {
	url := config.AppConfig.AttemptWebhookURL
	if url == "" {
		return
	}

	client := resty.New().SetTimeout(10 * time.Second)

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"event":      "attempt.completed",
			"attempt_id": attemptID,
			"quiz_id":    quizID,
			"user_id":    userID,
			"score":      score.StringFixed(2),
		}).
		Post(url)
	if err != nil {
		log.Printf("[WEBHOOK] Error posting attempt completion: %v", err)
		return
	}

	if resp.StatusCode() >= 300 {
		log.Printf("[WEBHOOK] Attempt completion webhook returned %d: %s", resp.StatusCode(), resp.String())
	}
}
