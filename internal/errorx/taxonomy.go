package errorx

import (
	"errors"
	"fmt"
	"strings"
)

// The delivery pipeline distinguishes five failure kinds. Each wraps an
// optional cause and is matchable with errors.As, so callers can branch
// on the kind without string inspection.

// ConfigError reports invalid or missing configuration.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// QueueError reports a relational-store failure. EmailID is the affected
// row when known, zero otherwise.
type QueueError struct {
	Msg     string
	EmailID int64
	Err     error
}

func (e *QueueError) Error() string {
	if e.EmailID != 0 {
		return fmt.Sprintf("queue: %s (email %d): %v", e.Msg, e.EmailID, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("queue: %s: %v", e.Msg, e.Err)
	}
	return "queue: " + e.Msg
}

func (e *QueueError) Unwrap() error { return e.Err }

// NewQueueError wraps a store failure; id may be zero.
func NewQueueError(msg string, id int64, err error) *QueueError {
	return &QueueError{Msg: msg, EmailID: id, Err: err}
}

// TransportError reports an SMTP failure. Transient tells the worker
// whether a retry may succeed.
type TransportError struct {
	Msg       string
	Transient bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %v", e.Msg, e.Err)
	}
	return "transport: " + e.Msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps an SMTP failure with an explicit transience flag.
func NewTransportError(msg string, transient bool, err error) *TransportError {
	return &TransportError{Msg: msg, Transient: transient, Err: err}
}

// TemplateError reports a renderer failure for a named template. Template
// failures never self-heal, so the worker treats them as permanent.
type TemplateError struct {
	Template string
	Msg      string
	Err      error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template %q: %s: %v", e.Template, e.Msg, e.Err)
	}
	return fmt.Sprintf("template %q: %s", e.Template, e.Msg)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// NewTemplateError wraps a renderer failure for the named template.
func NewTemplateError(template, msg string, err error) *TemplateError {
	return &TemplateError{Template: template, Msg: msg, Err: err}
}

// ServiceError is the parent kind, used when the concrete cause is
// irrelevant to the caller.
type ServiceError struct {
	Msg string
	Err error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError wraps an arbitrary failure.
func NewServiceError(msg string, err error) *ServiceError {
	return &ServiceError{Msg: msg, Err: err}
}

// transientKeywords is the lexical contract for transient classification.
// The set must not be altered: downstream operators alert on retry rates
// that assume exactly these matches.
var transientKeywords = []string{
	"timeout",
	"connection",
	"temporarily",
	"try again",
	"unavailable",
	"service",
	"refused",
	"reset",
	"broken pipe",
}

// TransientText reports whether an error message matches the lexical
// transient rule.
func TransientText(msg string) bool {
	msg = strings.ToLower(msg)
	for _, kw := range transientKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// IsTransient reports whether a failure is worth retrying. A TransportError
// carries an explicit flag set from the SMTP reply code; anything else
// falls back to the lexical rule.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Transient
	}
	return TransientText(err.Error())
}
