// Package mailer delivers OTP mails over SMTP, or to the log in dev mode.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is wrapped by Check when a required setting is missing.
var ErrNotConfigured = errors.New("mail is not configured")

// Mailer sends one queued mail job.
type Mailer interface {
	Check() error
	Send(ctx context.Context, job *model.MailJob) error
}

// New picks the log mailer in dev mode and SMTP otherwise.
func New(cfg *config.Config, log zerolog.Logger) Mailer {
	if cfg.DevEmailMode {
		return NewLogMailer(cfg.AppBaseURL, log)
	}
	return NewSMTPMailer(cfg, log)
}

func missing(names ...string) error {
	return fmt.Errorf("%w: %s not set", ErrNotConfigured, strings.Join(names, ", "))
}

// SMTPMailer sends through a single SMTP relay.
type SMTPMailer struct {
	host    string
	port    int
	user    string
	pass    string
	from    string
	baseURL string
	timeout time.Duration
	log     zerolog.Logger
}

// NewSMTPMailer creates an SMTPMailer from the SMTP_* settings.
func NewSMTPMailer(cfg *config.Config, log zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:    cfg.SMTPHost,
		port:    cfg.SMTPPort,
		user:    cfg.SMTPUser,
		pass:    cfg.SMTPPass,
		from:    cfg.SMTPFrom,
		baseURL: cfg.AppBaseURL,
		timeout: 15 * time.Second,
		log:     log.With().Str("component", "smtp_mailer").Logger(),
	}
}

// Check reports the first missing setting. Sending is refused until it
// returns nil.
func (m *SMTPMailer) Check() error {
	var names []string
	if m.from == "" {
		names = append(names, "SMTP_FROM")
	}
	if m.baseURL == "" {
		names = append(names, "APP_BASE_URL")
	}
	if m.host == "" || m.port == 0 {
		names = append(names, "SMTP_HOST/SMTP_PORT")
	}
	if len(names) > 0 {
		return missing(names...)
	}
	return nil
}

func (m *SMTPMailer) message(job *model.MailJob) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(job.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(job.Subject)
	msg.SetBodyString(mail.TypeTextPlain, job.Text)
	if job.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, job.HTML)
	}
	return msg, nil
}

// Send delivers job. Errors are returned for the worker to retry.
func (m *SMTPMailer) Send(ctx context.Context, job *model.MailJob) error {
	if err := m.Check(); err != nil {
		return err
	}
	msg, err := m.message(job)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTimeout(m.timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.user),
			mail.WithPassword(m.pass),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.Debug().Str("to", job.To).Str("job_id", job.ID).Msg("Mail sent")
	return nil
}

// LogMailer writes mails to the log instead of sending them.
type LogMailer struct {
	baseURL string
	log     zerolog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(baseURL string, log zerolog.Logger) *LogMailer {
	return &LogMailer{baseURL: baseURL, log: log.With().Str("component", "log_mailer").Logger()}
}

// Check only needs the base URL so the invite link is usable.
func (m *LogMailer) Check() error {
	if m.baseURL == "" {
		return missing("APP_BASE_URL")
	}
	return nil
}

// Send logs the plain-text body.
func (m *LogMailer) Send(_ context.Context, job *model.MailJob) error {
	m.log.Info().
		Str("to", job.To).
		Str("subject", job.Subject).
		Str("job_id", job.ID).
		Msg(job.Text)
	return nil
}
