// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

type SendEmailRequest struct {
	ClientMessageId string         `json:"client_message_id,optional"`
	To              []string       `json:"to" validate:"required,min=1,dive,email"`
	Cc              []string       `json:"cc,optional" validate:"omitempty,dive,email"`
	Bcc             []string       `json:"bcc,optional" validate:"omitempty,dive,email"`
	Subject         string         `json:"subject" validate:"required,min=1,max=998"`
	Body            string         `json:"body" validate:"required"`
	TemplateId      string         `json:"template_id,optional"`
	TemplateVars    map[string]any `json:"template_vars,optional"`
	Metadata        map[string]any `json:"metadata,optional"`
}

type SendEmailResponse struct {
	Status    string `json:"status"`
	Queued    bool   `json:"queued"`
	MessageId string `json:"message_id"`
	Detail    string `json:"detail"`
	Timestamp string `json:"timestamp"`
}

type GetEmailStatusRequest struct {
	Id int64 `path:"id"`
}

type EmailStatus struct {
	Id         int64  `json:"id"`
	EmailType  string `json:"email_type"`
	Recipient  string `json:"recipient"`
	Subject    string `json:"subject"`
	Status     string `json:"status"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
	LastError  string `json:"last_error,omitempty"`
	Priority   int    `json:"priority"`
	CreatedAt  string `json:"created_at"`
	SentAt     string `json:"sent_at,omitempty"`
}

type EmailEvent struct {
	Id        int64  `json:"id"`
	EventType string `json:"event_type"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"created_at"`
}

type GetEmailStatusResponse struct {
	Email  EmailStatus  `json:"email"`
	Events []EmailEvent `json:"events"`
}

type ListEmailsRequest struct {
	Status string `form:"status,optional"`
	Limit  int    `form:"limit,default=20"`
}

type ListEmailsResponse struct {
	Emails []EmailStatus `json:"emails"`
	Count  int           `json:"count"`
}

type QueueStatusResponse struct {
	Pending    int    `json:"pending"`
	Scheduled  int    `json:"scheduled"`
	Processing int    `json:"processing"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Timestamp  string `json:"timestamp"`
}

type ProcessQueueRequest struct {
	BatchSize int `form:"batch_size,default=10"`
}

type ProcessQueueResponse struct {
	Status    string `json:"status"`
	Processed int    `json:"processed"`
	Retried   int    `json:"retried"`
	Failed    int    `json:"failed"`
	Detail    string `json:"detail"`
	Timestamp string `json:"timestamp"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Db            string `json:"db"`
	EmailProvider string `json:"email_provider"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
}
