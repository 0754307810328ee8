package email

import (
	"time"

	"github.com/odiseo-io/email-service/internal/model"
	"github.com/odiseo-io/email-service/internal/types"
)

const timeLayout = time.RFC3339

// emailStatusView projects a queue row onto the wire shape.
func emailStatusView(e *model.Email) types.EmailStatus {
	v := types.EmailStatus{
		Id:         e.Id,
		EmailType:  e.EmailType,
		Recipient:  e.RecipientEmail,
		Subject:    e.Subject,
		Status:     e.Status,
		RetryCount: e.RetryCount,
		MaxRetries: e.MaxRetries,
		LastError:  model.NullStringValue(e.LastError),
		Priority:   e.Priority,
		CreatedAt:  e.CreatedAt.UTC().Format(timeLayout),
	}
	if e.SentAt.Valid {
		v.SentAt = e.SentAt.Time.UTC().Format(timeLayout)
	}
	return v
}
