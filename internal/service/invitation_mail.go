package service

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const otpMailSubject = "Quiz access code"

// inviteLink builds the landing URL a student opens from the email.
func inviteLink(baseURL string, quizID uuid.UUID, email, name string) string {
	v := url.Values{}
	v.Set("email", email)
	v.Set("name", name)
	return fmt.Sprintf("%s/q/%s?%s", strings.TrimRight(baseURL, "/"), quizID, v.Encode())
}

func otpMailText(name, link, code string) string {
	return strings.Join([]string{
		fmt.Sprintf("Hello %s,", name),
		"",
		fmt.Sprintf("Quiz link: %s", link),
		fmt.Sprintf("OTP: %s", code),
		"Expires in 15 minutes.",
		"",
		"If you did not request this, please ignore this email.",
	}, "\n")
}

func otpMailHTML(name, link, code string) string {
	return fmt.Sprintf(
		`<p>Hello %s,</p><p>Quiz link: <a href="%s">%s</a></p><p>OTP: <strong>%s</strong></p><p>Expires in 15 minutes.</p><p>If you did not request this, please ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(link), html.EscapeString(link), html.EscapeString(code),
	)
}
