// Package worker drains the email queue and delivers messages over SMTP.
//
// One Worker runs a single polling loop: lease a batch, resolve every row
// with bounded concurrency, sleep for the poll interval, repeat. Leased
// rows are driven to a terminal status or a scheduled retry even while the
// loop is shutting down, so the stale-lease horizon only matters after a
// hard crash.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/odiseo-io/email-service/internal/config"
	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/model"
	"github.com/odiseo-io/email-service/pkg/mail"
	"github.com/odiseo-io/email-service/pkg/queue"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"
	"github.com/zeromicro/go-zero/core/syncx"
	"github.com/zeromicro/go-zero/core/threading"
	"golang.org/x/time/rate"
)

// Queue is the store surface the worker consumes. model.EmailQueueModel
// satisfies it.
type Queue interface {
	Lease(ctx context.Context, limit int) ([]*model.Email, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ScheduleRetry(ctx context.Context, id int64, errMsg string, backoff time.Duration) error
	Stats(ctx context.Context) (map[string]int, error)
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

// Renderer produces email bodies from a template context.
type Renderer interface {
	RenderHTML(emailType string, data map[string]any) (string, error)
	RenderText(emailType string, data map[string]any) (string, error)
}

// Transport delivers assembled messages.
type Transport interface {
	Send(ctx context.Context, msg mail.Message) error
	Validate(ctx context.Context) error
	Close() error
}

// Outcome summarises one processed batch.
type Outcome struct {
	Sent    int `json:"sent"`
	Retried int `json:"retried"`
	Failed  int `json:"failed"`
}

// Total returns the number of rows the batch resolved.
func (o Outcome) Total() int { return o.Sent + o.Retried + o.Failed }

// disposition is the terminal fate of one leased row. The zero value is
// failed so a recovered panic counts as a failure.
type disposition int

const (
	dispositionFailed disposition = iota
	dispositionRetried
	dispositionSent
)

// Metric reason labels for permanent failures.
const (
	reasonTransient = "transient"
	reasonPermanent = "permanent"
	reasonTemplate  = "template"
	reasonStore     = "store"
	reasonPanic     = "panic"
)

// janitorInterval bounds how often the retention purge runs.
const janitorInterval = 24 * time.Hour

// Worker polls the queue and delivers pending emails.
type Worker struct {
	conf      config.WorkerConf
	store     Queue
	renderer  Renderer
	transport Transport
	events    *queue.EventRecorder
	limiter   *rate.Limiter
	running   *syncx.AtomicBool

	ctx    context.Context
	cancel context.CancelFunc
	group  *threading.RoutineGroup

	startedAt   time.Time
	lastCleanup time.Time
	processed   atomic.Int64
	retried     atomic.Int64
	failed      atomic.Int64
}

// NewWorker wires the delivery loop. events may be nil when the audit
// trail is disabled.
func NewWorker(conf config.WorkerConf, store Queue, renderer Renderer, transport Transport, events *queue.EventRecorder) *Worker {
	var limiter *rate.Limiter
	if conf.RateLimitPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(conf.RateLimitPerMinute)), 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		conf:      conf,
		store:     store,
		renderer:  renderer,
		transport: transport,
		events:    events,
		limiter:   limiter,
		running:   syncx.NewAtomicBool(),
		ctx:       ctx,
		cancel:    cancel,
		group:     threading.NewRoutineGroup(),
	}
}

// Start launches the polling loop. It is a no-op when the worker is
// disabled or already running. A failed SMTP validation is logged, not
// fatal: individual deliveries carry their own retries.
func (w *Worker) Start() {
	if !w.conf.Enabled {
		logx.Info("Email worker disabled, delivery loop not started")
		return
	}
	if !w.running.CompareAndSwap(false, true) {
		return
	}

	w.startedAt = time.Now()
	logx.Infow("Email worker started",
		logx.Field("poll_interval", w.conf.PollInterval()),
		logx.Field("batch_size", w.conf.BatchSize),
		logx.Field("concurrency", w.conf.Concurrency),
		logx.Field("max_retries", w.conf.MaxRetries),
		logx.Field("retry_backoff", w.conf.Backoff()),
	)

	if err := w.transport.Validate(w.ctx); err != nil {
		logx.Errorf("SMTP validation failed, deliveries will retry per email: %v", err)
	}

	w.group.RunSafe(w.loop)
}

// Stop cancels the loop, waits for in-flight deliveries to finish, flushes
// the audit trail and closes the SMTP connection before reporting final
// statistics. The transport closes before the caller tears down the store.
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}

	logx.Info("Email worker stopping, draining in-flight deliveries")
	w.cancel()
	w.group.Wait()

	w.events.Flush()
	if err := w.transport.Close(); err != nil {
		logx.Errorf("Closing SMTP transport: %v", err)
	}

	processed, retried, failed := w.processed.Load(), w.retried.Load(), w.failed.Load()
	successRate := 0.0
	if total := processed + failed; total > 0 {
		successRate = float64(processed) / float64(total) * 100
	}
	logx.Infow("Email worker stopped",
		logx.Field("uptime", time.Since(w.startedAt).Round(time.Second)),
		logx.Field("processed", processed),
		logx.Field("retried", retried),
		logx.Field("failed", failed),
		logx.Field("success_rate", fmt.Sprintf("%.1f%%", successRate)),
	)
}

func (w *Worker) loop() {
	for {
		outcome, err := w.ProcessBatch(w.ctx, w.conf.BatchSize)
		switch {
		case err != nil && w.ctx.Err() != nil:
			return
		case err != nil:
			logx.Errorf("Email batch failed, retrying next poll: %v", err)
		case outcome.Total() == 0:
			w.updateQueueDepth()
		}

		w.maybeCleanup()

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.conf.PollInterval()):
		}
	}
}

// maybeCleanup purges terminal rows past the retention horizon, at most
// once per janitorInterval. Only the loop goroutine touches lastCleanup.
func (w *Worker) maybeCleanup() {
	if w.conf.RetentionDays <= 0 || time.Since(w.lastCleanup) < janitorInterval {
		return
	}
	w.lastCleanup = time.Now()

	removed, err := w.store.Cleanup(w.ctx, w.conf.RetentionDays)
	if err != nil {
		logx.Errorf("Queue cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		logx.Infow("Purged expired queue rows",
			logx.Field("removed", removed),
			logx.Field("retention_days", w.conf.RetentionDays),
		)
	}
}

// ProcessBatch leases up to limit pending emails and resolves each one. It
// is the body of the polling loop and also serves manual queue triggers.
// Cancelling ctx stops leasing and rate-limiter waits; rows already being
// delivered run to completion.
func (w *Worker) ProcessBatch(ctx context.Context, limit int) (Outcome, error) {
	rows, err := w.store.Lease(ctx, limit)
	if err != nil {
		return Outcome{}, err
	}
	if len(rows) == 0 {
		return Outcome{}, nil
	}

	logx.WithContext(ctx).Infow("Processing email batch", logx.Field("count", len(rows)))

	var sent, retried, failed atomic.Int64
	deliverCtx := context.WithoutCancel(ctx)

	mr.ForEach(func(source chan<- *model.Email) {
		for _, row := range rows {
			source <- row
		}
	}, func(email *model.Email) {
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				// Shutdown mid-batch: the row stays leased and returns to
				// pending once the lease horizon passes.
				return
			}
		}
		switch w.process(deliverCtx, email) {
		case dispositionSent:
			sent.Add(1)
		case dispositionRetried:
			retried.Add(1)
		default:
			failed.Add(1)
		}
	}, mr.WithWorkers(w.conf.Concurrency))

	out := Outcome{Sent: int(sent.Load()), Retried: int(retried.Load()), Failed: int(failed.Load())}
	w.processed.Add(sent.Load())
	w.retried.Add(retried.Load())
	w.failed.Add(failed.Load())
	return out, nil
}

// process drives one leased row to sent, scheduled or failed. A panic is
// recovered, logged with its stack and counted as a permanent failure so a
// single malformed row cannot kill the loop.
func (w *Worker) process(ctx context.Context, email *model.Email) (d disposition) {
	ctx = logx.ContextWithFields(ctx,
		logx.Field("email_id", email.Id),
		logx.Field("email_type", email.EmailType),
		logx.Field("recipient", email.RecipientEmail),
		logx.Field("attempt", email.RetryCount+1),
	)

	defer func() {
		if p := recover(); p != nil {
			logx.WithContext(ctx).Errorf("Email delivery panic: %v\n%s", p, debug.Stack())
			emailsFailed.Inc(email.EmailType, reasonPanic)
			if err := w.store.MarkFailed(ctx, email.Id, "panic during delivery"); err != nil {
				logx.WithContext(ctx).Errorf("Marking panicked email failed: %v", err)
			}
			w.events.RecordEvent(email.Id, queue.EventFailed, "panic during delivery")
		}
	}()

	start := time.Now()

	msg, err := w.compose(email)
	if err != nil {
		return w.resolveFailure(ctx, email, err)
	}

	if err := w.transport.Send(ctx, msg); err != nil {
		return w.resolveFailure(ctx, email, err)
	}

	if err := w.store.MarkSent(ctx, email.Id, time.Now()); err != nil {
		// Delivered but not recorded: the row becomes leasable again after
		// the lease horizon and the send may repeat.
		logx.WithContext(ctx).Errorf("Email sent but status update failed: %v", err)
		emailsFailed.Inc(email.EmailType, reasonStore)
		return dispositionFailed
	}

	emailsSent.Inc(email.EmailType)
	deliveryDuration.ObserveFloat(time.Since(start).Seconds(), email.EmailType)
	w.events.RecordEvent(email.Id, queue.EventSent, "")
	logx.WithContext(ctx).Info("Email sent")
	return dispositionSent
}

// compose builds the outgoing message, rendering templates when the row
// carries a context and falling back to the stored bodies otherwise.
func (w *Worker) compose(email *model.Email) (mail.Message, error) {
	msg := mail.Message{
		To:      email.RecipientEmail,
		ToName:  model.NullStringValue(email.RecipientName),
		Subject: email.Subject,
	}

	data := model.ParseContext(email.TemplateContext)
	if data == nil {
		msg.HTML = email.BodyHtml
		msg.Text = model.NullStringValue(email.BodyText)
		return msg, nil
	}

	emailType := model.NormalizeEmailType(email.EmailType)
	html, err := w.renderer.RenderHTML(emailType, data)
	if err != nil {
		return msg, errorx.NewTemplateError(emailType, "render html body", err)
	}
	text, err := w.renderer.RenderText(emailType, data)
	if err != nil {
		return msg, errorx.NewTemplateError(emailType, "render text body", err)
	}

	msg.HTML = html
	msg.Text = text
	return msg, nil
}

// resolveFailure schedules a retry for transient errors with budget left
// and marks the row failed otherwise. Template errors never retry: a
// missing or broken template does not self-heal.
func (w *Worker) resolveFailure(ctx context.Context, email *model.Email, sendErr error) disposition {
	reason := failureReason(sendErr)
	errMsg := sendErr.Error()

	if reason == reasonTransient && email.RetryCount < email.MaxRetries {
		backoff := w.conf.Backoff()
		if err := w.store.ScheduleRetry(ctx, email.Id, errMsg, backoff); err != nil {
			logx.WithContext(ctx).Errorf("Scheduling retry: %v", err)
			emailsFailed.Inc(email.EmailType, reasonStore)
			return dispositionFailed
		}
		emailsRetried.Inc(email.EmailType)
		w.events.RecordEvent(email.Id, queue.EventRetry,
			fmt.Sprintf("attempt %d of %d, backoff %s: %s", email.RetryCount+1, email.MaxRetries, backoff, errMsg))
		logx.WithContext(ctx).Infof("Email delivery retrying in %s: %s", backoff, errMsg)
		return dispositionRetried
	}

	if err := w.store.MarkFailed(ctx, email.Id, errMsg); err != nil {
		logx.WithContext(ctx).Errorf("Marking email failed: %v", err)
	}
	emailsFailed.Inc(email.EmailType, reason)
	w.events.RecordEvent(email.Id, queue.EventFailed, errMsg)
	logx.WithContext(ctx).Errorf("Email delivery failed permanently on attempt %d: %s", email.RetryCount+1, errMsg)
	return dispositionFailed
}

// failureReason classifies a delivery error for metrics and the retry
// decision.
func failureReason(err error) string {
	var tmplErr *errorx.TemplateError
	if errors.As(err, &tmplErr) {
		return reasonTemplate
	}
	if errorx.IsTransient(err) {
		return reasonTransient
	}
	return reasonPermanent
}

// updateQueueDepth refreshes the depth gauge on idle polls, zero-filling
// every status so drained series drop to zero instead of lingering.
func (w *Worker) updateQueueDepth() {
	stats, err := w.store.Stats(w.ctx)
	if err != nil {
		return
	}
	for _, status := range model.Statuses {
		queueDepth.Set(float64(stats[status]), status)
	}
}
