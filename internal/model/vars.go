package model

import "github.com/zeromicro/go-zero/core/stores/sqlx"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = sqlx.ErrNotFound

// Queue row statuses. Transitions form a DAG: pending and scheduled lead
// to processing, processing leads to sent, scheduled or failed. Sent and
// failed are terminal.
const (
	StatusPending    = "pending"
	StatusScheduled  = "scheduled"
	StatusProcessing = "processing"
	StatusSent       = "sent"
	StatusFailed     = "failed"
)

// Statuses lists every queue status, in lifecycle order.
var Statuses = []string{
	StatusPending,
	StatusScheduled,
	StatusProcessing,
	StatusSent,
	StatusFailed,
}

// Email categories. The set is closed: anything else coerces to
// transactional at the edges.
const (
	TypeTransactional      = "transactional"
	TypeBookingCreated     = "booking_created"
	TypeBookingCancelled   = "booking_cancelled"
	TypeBookingRescheduled = "booking_rescheduled"
	TypeReminder24h        = "reminder_24h"
	TypeReminder1h         = "reminder_1h"
	TypeReminderCustom     = "reminder_custom"
	TypeOTPVerification    = "otp_verification"
)

var knownEmailTypes = map[string]struct{}{
	TypeTransactional:      {},
	TypeBookingCreated:     {},
	TypeBookingCancelled:   {},
	TypeBookingRescheduled: {},
	TypeReminder24h:        {},
	TypeReminder1h:         {},
	TypeReminderCustom:     {},
	TypeOTPVerification:    {},
}

// NormalizeEmailType coerces unknown categories to transactional.
func NormalizeEmailType(t string) string {
	if _, ok := knownEmailTypes[t]; ok {
		return t
	}
	return TypeTransactional
}
