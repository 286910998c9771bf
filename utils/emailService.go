package utils

import (
	"fmt"
	"net/smtp"

	"openlearn/config"
)

const (
	smtpHost = "smtp.gmail.com"
	smtpPort = "587"
)

func sendMail(to, subject, body string) error {
	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password // App password

	if from == "" || password == "" {
		// Email transport not configured; skip silently in dev setups
		return nil
	}

	header := fmt.Sprintf("Subject: %s\nMIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n", subject)
	message := []byte(header + "\n" + body)

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, []string{to}, message)
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}

	return nil
}

// SendEnrollmentEmail sends an email notification when a user enrolls in a course
func SendEnrollmentEmail(email, userName, courseName string) error {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 600px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2 style="color: #333333; text-align: center;">Enrollment Successful!</h2>
					<p style="font-size: 16px; color: #555555;">Dear %s,</p>
					<p style="font-size: 16px; color: #555555;">You have successfully enrolled in:</p>
					<h3 style="text-align: center; color: #4CAF50; margin: 20px 0;">%s</h3>
					<p style="font-size: 14px; color: #666666;">You can now access the course material and take its quizzes.</p>
					<p style="text-align: center; font-size: 12px; color: #bbbbbb; margin-top: 20px;">OpenLearn Team</p>
				</div>
			</body>
		</html>
	`, userName, courseName)

	return sendMail(email, "Course Enrollment Confirmation - OpenLearn", body)
}

// SendCompletionEmail sends the quiz result when an attempt is completed
func SendCompletionEmail(email, userName, quizTitle, score string) error {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 600px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2 style="color: #333333; text-align: center;">Quiz Completed</h2>
					<p style="font-size: 16px; color: #555555;">Dear %s,</p>
					<p style="font-size: 16px; color: #555555;">Your attempt at <b>%s</b> has been graded:</p>
					<h1 style="text-align: center; color: #4CAF50; font-size: 40px; margin: 20px 0;">%s%%</h1>
					<p style="text-align: center; font-size: 12px; color: #bbbbbb; margin-top: 20px;">OpenLearn Team</p>
				</div>
			</body>
		</html>
	`, userName, quizTitle, score)

	return sendMail(email, "Quiz Result - OpenLearn", body)
}

// SendStaleAttemptReminder nudges a user about an attempt left in progress
func SendStaleAttemptReminder(email, userName, quizTitle string) error {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 600px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2 style="color: #333333; text-align: center;">Unfinished Quiz Attempt</h2>
					<p style="font-size: 16px; color: #555555;">Dear %s,</p>
					<p style="font-size: 16px; color: #555555;">You started <b>%s</b> but never completed it. Your answers are saved; complete the attempt to receive a score.</p>
					<p style="text-align: center; font-size: 12px; color: #bbbbbb; margin-top: 20px;">OpenLearn Team</p>
				</div>
			</body>
		</html>
	`, userName, quizTitle)

	return sendMail(email, "Unfinished Quiz Attempt - OpenLearn", body)
}
