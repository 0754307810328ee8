// Package queue provides the delivery audit trail for queued emails.
package queue

import (
	"database/sql"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// Event types recorded against queue rows.
const (
	EventQueued = "queued"
	EventSent   = "sent"
	EventRetry  = "retry_scheduled"
	EventFailed = "failed"
)

// EventRecorder batches email event writes using go-zero's BulkInserter.
// Events are best-effort: a lost event never blocks or fails a delivery.
type EventRecorder struct {
	inserter *sqlx.BulkInserter
}

// NewEventRecorder creates a new event recorder that batches inserts.
func NewEventRecorder(conn sqlx.SqlConn) (*EventRecorder, error) {
	inserter, err := sqlx.NewBulkInserter(conn,
		"insert into email_events (email_id, event_type, details) values (?, ?, ?)")
	if err != nil {
		return nil, err
	}

	inserter.SetResultHandler(func(_ sql.Result, err error) {
		if err != nil {
			logx.Errorf("BulkInserter email_events error: %v", err)
		}
	})

	return &EventRecorder{inserter: inserter}, nil
}

// RecordEvent batches an email event insert. id and created_at are assigned
// by the database. A nil recorder drops the event.
func (r *EventRecorder) RecordEvent(emailID int64, eventType, details string) {
	if r == nil {
		return
	}
	if err := r.inserter.Insert(emailID, eventType, details); err != nil {
		logx.Errorf("Failed to record event for email %d: %v", emailID, err)
	}
}

// Flush forces all pending events to be written. A nil recorder is a no-op.
func (r *EventRecorder) Flush() {
	if r == nil {
		return
	}
	r.inserter.Flush()
}
