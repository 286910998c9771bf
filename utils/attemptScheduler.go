package utils

import (
	"log"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"

	"openlearn/database"
	"openlearn/models"
	quizModels "openlearn/models/quiz"
)

// InitializeAttemptScheduler sets up the stale-attempt reminder scheduler
func InitializeAttemptScheduler() {
	log.Println("[ATTEMPT-SCHEDULER] Initializing attempt scheduler...")

	c := cron.New()

	// Run daily at 9 AM to remind users about attempts left in progress
	c.AddFunc("0 9 * * *", func() {
		log.Println("[ATTEMPT-SCHEDULER] Running daily stale attempt check...")
		RemindStaleAttempts()
	})

	c.Start()
	log.Println("[ATTEMPT-SCHEDULER] Attempt scheduler started - runs daily at 9 AM")
}

// RemindStaleAttempts emails users holding attempts that were started before
// today and never completed. Starting a new attempt stays allowed; the
// reminder just surfaces the dangling state.
func RemindStaleAttempts() {
	db := database.Database.Db
	startOfToday := now.BeginningOfDay()

	var staleAttempts []quizModels.QuizAttempt
	if err := db.
		Where("completed_at IS NULL AND started_at < ?", startOfToday).
		Find(&staleAttempts).Error; err != nil {
		log.Printf("[ATTEMPT-SCHEDULER] Error fetching stale attempts: %v", err)
		return
	}

	log.Printf("[ATTEMPT-SCHEDULER] Found %d stale in-progress attempts", len(staleAttempts))

	for _, attempt := range staleAttempts {
		var user models.User
		if err := db.Where("id = ? AND is_deleted = ?", attempt.UserID, false).First(&user).Error; err != nil {
			log.Printf("[ATTEMPT-SCHEDULER] Error fetching user %d: %v", attempt.UserID, err)
			continue
		}

		var quiz quizModels.Quiz
		if err := db.Where("id = ?", attempt.QuizID).First(&quiz).Error; err != nil {
			log.Printf("[ATTEMPT-SCHEDULER] Error fetching quiz %d: %v", attempt.QuizID, err)
			continue
		}

		SendStaleAttemptReminder(user.Email, user.Name, quiz.Title)
		log.Printf("[ATTEMPT-SCHEDULER] Sent stale attempt reminder for attempt %d to %s", attempt.ID, user.Email)
	}
}
