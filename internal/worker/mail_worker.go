package worker

import (
	"context"
	"errors"
	"time"

	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/queue"
	"github.com/rs/zerolog"
)

const (
	PollTimeout         = 1 * time.Second // Must be >= 1s to satisfy Redis
	MaxDeliveryAttempts = 3
	SendTimeout         = 30 * time.Second
)

// MailSource is the queue side the worker drains.
type MailSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*model.MailJob, error)
	Requeue(ctx context.Context, job *model.MailJob) error
}

// MailSender delivers one job.
type MailSender interface {
	Send(ctx context.Context, job *model.MailJob) error
}

// AuditAppender records delivery failures on the quiz trail.
type AuditAppender interface {
	Append(ctx context.Context, entry *model.AuditLog) error
}

// MailWorker delivers queued OTP mail, retrying a failed job until it has
// been tried MaxDeliveryAttempts times.
type MailWorker struct {
	src        MailSource
	sender     MailSender
	audit      AuditAppender
	log        zerolog.Logger
	retryDelay time.Duration
	errBackoff time.Duration
	now        func() time.Time
}

func NewMailWorker(src MailSource, sender MailSender, audit AuditAppender, log zerolog.Logger) *MailWorker {
	return &MailWorker{
		src:        src,
		sender:     sender,
		audit:      audit,
		log:        log.With().Str("component", "mail_worker").Logger(),
		retryDelay: 2 * time.Second,
		errBackoff: 3 * time.Second,
		now:        time.Now,
	}
}

// Start blocks until ctx is cancelled. The job in flight when that happens
// is still delivered.
func (w *MailWorker) Start(ctx context.Context) {
	w.log.Info().Msg("MailWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("MailWorker stopping")
			return
		default:
		}

		job, err := w.src.Pop(ctx, PollTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			var bad *queue.MalformedError
			if errors.As(err, &bad) {
				w.log.Error().Err(err).Str("data", bad.Raw).Msg("Discarding malformed mail job")
				continue
			}
			w.log.Error().Err(err).Msg("Queue error, backing off")
			sleepCtx(ctx, w.errBackoff)
			continue
		}

		w.deliver(ctx, job)
	}
}

func (w *MailWorker) deliver(ctx context.Context, job *model.MailJob) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SendTimeout)
	defer cancel()

	err := w.sender.Send(sendCtx, job)
	if err == nil {
		w.log.Info().Str("job_id", job.ID).Str("to", job.To).Msg("Mail delivered")
		return
	}

	job.Attempts++
	l := w.log.Warn().Err(err).Str("job_id", job.ID).Str("to", job.To).Int("attempts", job.Attempts)
	if job.Attempts < MaxDeliveryAttempts {
		l.Msg("Delivery failed, requeueing")
		sleepCtx(ctx, w.retryDelay)
		if err := w.src.Requeue(context.WithoutCancel(ctx), job); err != nil {
			w.log.Error().Err(err).Str("job_id", job.ID).Msg("CRITICAL: failed to requeue mail job")
			w.recordFailure(job, err)
		}
		return
	}

	l.Msg("Delivery failed, giving up")
	w.recordFailure(job, err)
}

func (w *MailWorker) recordFailure(job *model.MailJob, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := model.NewAuditLog(job.QuizID, model.AuditOTPDeliveryFailed,
		"OTP delivery failed to "+job.To,
		map[string]any{
			"email":    job.To,
			"job_id":   job.ID,
			"attempts": job.Attempts,
			"error":    cause.Error(),
		}, w.now())
	if err := w.audit.Append(ctx, entry); err != nil {
		w.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to record delivery failure")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
