package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/rs/zerolog"
)

func TestSMTPMailerCheck(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{"complete", config.Config{SMTPFrom: "quiz@example.com", AppBaseURL: "https://q", SMTPHost: "smtp", SMTPPort: 587}, ""},
		{"no from", config.Config{AppBaseURL: "https://q", SMTPHost: "smtp", SMTPPort: 587}, "SMTP_FROM"},
		{"no base url", config.Config{SMTPFrom: "quiz@example.com", SMTPHost: "smtp", SMTPPort: 587}, "APP_BASE_URL"},
		{"no host", config.Config{SMTPFrom: "quiz@example.com", AppBaseURL: "https://q"}, "SMTP_HOST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSMTPMailer(&tt.cfg, zerolog.Nop()).Check()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Check() = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrNotConfigured) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Check() = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestSMTPMailerMessage(t *testing.T) {
	m := NewSMTPMailer(&config.Config{SMTPFrom: "quiz@example.com"}, zerolog.Nop())
	if _, err := m.message(&model.MailJob{To: "not an address", Subject: "s", Text: "t"}); err == nil {
		t.Fatal("expected invalid recipient to fail")
	}
	if _, err := m.message(&model.MailJob{To: "ada@example.com", Subject: "s", Text: "t", HTML: "<p>t</p>"}); err != nil {
		t.Fatal(err)
	}
}

func TestNewPicksLogMailerInDevMode(t *testing.T) {
	m := New(&config.Config{DevEmailMode: true, AppBaseURL: "https://q"}, zerolog.Nop())
	if _, ok := m.(*LogMailer); !ok {
		t.Fatalf("got %T, want *LogMailer", m)
	}
	if err := m.Check(); err != nil {
		t.Fatal(err)
	}
	if err := m.Send(context.Background(), &model.MailJob{To: "ada@example.com", Text: "hi"}); err != nil {
		t.Fatal(err)
	}
}
