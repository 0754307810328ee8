package errorx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsMatchWithErrorsAs(t *testing.T) {
	cause := errors.New("boom")

	wrapped := fmt.Errorf("while sending: %w",
		NewTransportError("send failed", true, cause))

	var te *TransportError
	require.True(t, errors.As(wrapped, &te))
	assert.True(t, te.Transient)
	assert.Equal(t, cause, errors.Unwrap(te))

	var qe *QueueError
	assert.False(t, errors.As(wrapped, &qe))
}

func TestQueueErrorCarriesRowID(t *testing.T) {
	err := NewQueueError("update failed", 42, errors.New("deadlock"))
	assert.Contains(t, err.Error(), "email 42")

	var qe *QueueError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, int64(42), qe.EmailID)
}

func TestTemplateErrorNamesTemplate(t *testing.T) {
	err := NewTemplateError("booking_created", "not found", nil)
	assert.Contains(t, err.Error(), `"booking_created"`)
}

func TestTransientText(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"dial tcp: i/o timeout", true},
		{"connection refused", true},
		{"451 4.7.1 temporarily rejected", true},
		{"try again later", true},
		{"service not available", true},
		{"resource temporarily unavailable", true},
		{"read: connection reset by peer", true},
		{"write: broken pipe", true},
		{"550 mailbox does not exist", false},
		{"553 invalid address", false},
		{"permission denied", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := TransientText(tt.msg); got != tt.want {
			t.Errorf("TransientText(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestIsTransientPrefersExplicitFlag(t *testing.T) {
	// Flag wins over text: the message says "timeout" but the transport
	// knows the reply code was permanent.
	err := NewTransportError("timeout exceeded", false, nil)
	assert.False(t, IsTransient(err))

	// And the reverse: nothing transient in the text, flag says retry.
	err = NewTransportError("mailbox busy", true, nil)
	assert.True(t, IsTransient(err))

	// Untyped errors fall back to the lexical rule.
	assert.True(t, IsTransient(errors.New("connection refused")))
	assert.False(t, IsTransient(errors.New("no such user")))
	assert.False(t, IsTransient(nil))
}
