package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ EmailQueueModel = (*customEmailQueueModel)(nil)

// emailQueueRows is the scan column list, in table order.
const emailQueueRows = "id, email_type, recipient_email, recipient_name, subject, " +
	"body_html, body_text, status, retry_count, max_retries, last_error, " +
	"next_retry_at, scheduled_for, sent_at, priority, booking_id, " +
	"template_context, created_at, updated_at"

type (
	// Email is one queued message for one recipient.
	Email struct {
		Id              int64          `db:"id"`
		EmailType       string         `db:"email_type"`
		RecipientEmail  string         `db:"recipient_email"`
		RecipientName   sql.NullString `db:"recipient_name"`
		Subject         string         `db:"subject"`
		BodyHtml        string         `db:"body_html"`
		BodyText        sql.NullString `db:"body_text"`
		Status          string         `db:"status"`
		RetryCount      int            `db:"retry_count"`
		MaxRetries      int            `db:"max_retries"`
		LastError       sql.NullString `db:"last_error"`
		NextRetryAt     sql.NullTime   `db:"next_retry_at"`
		ScheduledFor    time.Time      `db:"scheduled_for"`
		SentAt          sql.NullTime   `db:"sent_at"`
		Priority        int            `db:"priority"`
		BookingId       sql.NullInt64  `db:"booking_id"`
		TemplateContext sql.NullString `db:"template_context"`
		CreatedAt       time.Time      `db:"created_at"`
		UpdatedAt       time.Time      `db:"updated_at"`
	}

	emailQueueModel interface {
		Enqueue(ctx context.Context, data *Email) (int64, error)
		Lease(ctx context.Context, limit int) ([]*Email, error)
		MarkSent(ctx context.Context, id int64, sentAt time.Time) error
		MarkFailed(ctx context.Context, id int64, errMsg string) error
		ScheduleRetry(ctx context.Context, id int64, errMsg string, backoff time.Duration) error
		FindOne(ctx context.Context, id int64) (*Email, error)
		List(ctx context.Context, status string, limit int) ([]*Email, error)
		Stats(ctx context.Context) (map[string]int, error)
		Cleanup(ctx context.Context, retentionDays int) (int64, error)
		Ping(ctx context.Context) error
	}

	// EmailQueueModel is an interface to be customized, add more methods here,
	// and implement the added methods in customEmailQueueModel.
	EmailQueueModel interface {
		emailQueueModel
		withSession(session sqlx.Session) EmailQueueModel
	}

	customEmailQueueModel struct {
		*defaultEmailQueueModel
	}

	defaultEmailQueueModel struct {
		conn         sqlx.SqlConn
		table        string
		leaseTimeout time.Duration
	}
)

// Option customises the queue model.
type Option func(*defaultEmailQueueModel)

// WithLeaseTimeout sets the horizon after which a processing row counts as
// orphaned and becomes leasable again.
func WithLeaseTimeout(d time.Duration) Option {
	return func(m *defaultEmailQueueModel) {
		if d > 0 {
			m.leaseTimeout = d
		}
	}
}

// NewEmailQueueModel returns a model for the email_queue table.
func NewEmailQueueModel(conn sqlx.SqlConn, opts ...Option) EmailQueueModel {
	return &customEmailQueueModel{
		defaultEmailQueueModel: newEmailQueueModel(conn, opts...),
	}
}

func newEmailQueueModel(conn sqlx.SqlConn, opts ...Option) *defaultEmailQueueModel {
	m := &defaultEmailQueueModel{
		conn:         conn,
		table:        "email_queue",
		leaseTimeout: 100 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *customEmailQueueModel) withSession(session sqlx.Session) EmailQueueModel {
	return NewEmailQueueModel(sqlx.NewSqlConnFromSession(session),
		WithLeaseTimeout(m.leaseTimeout))
}

// Enqueue inserts one row through the enqueue_email function and returns
// the assigned id. Future-dated rows start out scheduled, due rows pending.
func (m *defaultEmailQueueModel) Enqueue(ctx context.Context, data *Email) (int64, error) {
	scheduledFor := data.ScheduledFor
	if scheduledFor.IsZero() {
		scheduledFor = time.Now()
	}
	priority := data.Priority
	if priority < 1 || priority > 10 {
		priority = 5
	}

	var id int64
	query := `SELECT enqueue_email($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	err := m.withRetry(ctx, func() error {
		return m.conn.QueryRowCtx(ctx, &id, query,
			NormalizeEmailType(data.EmailType),
			data.RecipientEmail,
			data.RecipientName,
			data.Subject,
			data.BodyHtml,
			data.BodyText,
			data.BookingId,
			data.TemplateContext,
			scheduledFor,
			priority,
		)
	})
	if err != nil {
		return 0, errorx.NewQueueError("enqueue email", 0, err)
	}
	return id, nil
}

// Lease atomically flips up to limit eligible rows to processing and
// returns them. Concurrent leasers never receive overlapping rows: the
// function locks candidates with FOR UPDATE SKIP LOCKED. Orphaned
// processing rows past the lease timeout are reclaimed by the same call.
func (m *defaultEmailQueueModel) Lease(ctx context.Context, limit int) ([]*Email, error) {
	if limit < 1 {
		limit = 1
	} else if limit > 1000 {
		limit = 1000
	}

	var rows []*Email
	query := fmt.Sprintf("SELECT %s FROM get_pending_emails($1, $2)", emailQueueRows)
	err := m.withRetry(ctx, func() error {
		rows = rows[:0]
		return m.conn.QueryRowsCtx(ctx, &rows, query, limit, intervalSeconds(m.leaseTimeout))
	})
	if err != nil {
		return nil, errorx.NewQueueError("lease pending emails", 0, err)
	}
	return rows, nil
}

// MarkSent finalises a delivered row. Terminal rows are left untouched.
func (m *defaultEmailQueueModel) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `SELECT update_email_status($1, 'sent', NULL, $2)`
	err := m.withRetry(ctx, func() error {
		_, execErr := m.conn.ExecCtx(ctx, query, id, sentAt)
		return execErr
	})
	if err != nil {
		return errorx.NewQueueError("mark sent", id, err)
	}
	return nil
}

// MarkFailed finalises a permanently failed row.
func (m *defaultEmailQueueModel) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	query := `SELECT update_email_status($1, 'failed', $2, NULL)`
	err := m.withRetry(ctx, func() error {
		_, execErr := m.conn.ExecCtx(ctx, query, id, Truncate(errMsg, maxErrorLen))
		return execErr
	})
	if err != nil {
		return errorx.NewQueueError("mark failed", id, err)
	}
	return nil
}

// ScheduleRetry returns a row to the pool: status scheduled, retry_count
// incremented, next_retry_at pushed out by the backoff.
func (m *defaultEmailQueueModel) ScheduleRetry(ctx context.Context, id int64, errMsg string, backoff time.Duration) error {
	query := `SELECT retry_email($1, $2, $3)`
	err := m.withRetry(ctx, func() error {
		_, execErr := m.conn.ExecCtx(ctx, query, id, Truncate(errMsg, maxErrorLen), int(backoff.Seconds()))
		return execErr
	})
	if err != nil {
		return errorx.NewQueueError("schedule retry", id, err)
	}
	return nil
}

// FindOne returns a row by id, or ErrNotFound.
func (m *defaultEmailQueueModel) FindOne(ctx context.Context, id int64) (*Email, error) {
	var resp Email
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", emailQueueRows, m.table)
	err := m.withRetry(ctx, func() error {
		return m.conn.QueryRowCtx(ctx, &resp, query, id)
	})
	switch err {
	case nil:
		return &resp, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, errorx.NewQueueError("find email", id, err)
	}
}

// List returns the newest rows, optionally filtered by status. An empty
// status or "all" lists every status.
func (m *defaultEmailQueueModel) List(ctx context.Context, status string, limit int) ([]*Email, error) {
	if limit < 1 {
		limit = 50
	} else if limit > 200 {
		limit = 200
	}

	var (
		rows  []*Email
		query string
		args  []any
	)
	if status == "" || status == "all" {
		query = fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC LIMIT $1",
			emailQueueRows, m.table)
		args = []any{limit}
	} else {
		query = fmt.Sprintf("SELECT %s FROM %s WHERE status = $1 ORDER BY created_at DESC LIMIT $2",
			emailQueueRows, m.table)
		args = []any{status, limit}
	}

	err := m.withRetry(ctx, func() error {
		rows = rows[:0]
		return m.conn.QueryRowsCtx(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, errorx.NewQueueError("list emails", 0, err)
	}
	return rows, nil
}

// Stats returns row counts grouped by status.
func (m *defaultEmailQueueModel) Stats(ctx context.Context) (map[string]int, error) {
	type statusCount struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	var rows []statusCount
	query := fmt.Sprintf("SELECT status, COUNT(*) AS count FROM %s GROUP BY status", m.table)
	err := m.withRetry(ctx, func() error {
		rows = rows[:0]
		return m.conn.QueryRowsCtx(ctx, &rows, query)
	})
	if err != nil {
		return nil, errorx.NewQueueError("queue stats", 0, err)
	}

	stats := make(map[string]int, len(rows))
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	return stats, nil
}

// Cleanup deletes terminal rows older than the retention horizon and
// returns how many went away.
func (m *defaultEmailQueueModel) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		retentionDays = 90
	}

	var deleted int64
	query := `SELECT cleanup_old_emails($1)`
	err := m.withRetry(ctx, func() error {
		return m.conn.QueryRowCtx(ctx, &deleted, query, retentionDays)
	})
	if err != nil {
		return 0, errorx.NewQueueError("cleanup old emails", 0, err)
	}
	return deleted, nil
}

// Ping runs the liveness probe.
func (m *defaultEmailQueueModel) Ping(ctx context.Context) error {
	var one int
	if err := m.conn.QueryRowCtx(ctx, &one, `SELECT 1`); err != nil {
		return errorx.NewQueueError("health check", 0, err)
	}
	return nil
}

// intervalSeconds renders a duration as a PostgreSQL interval literal.
func intervalSeconds(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int(d.Seconds()))
}
