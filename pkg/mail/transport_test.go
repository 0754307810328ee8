package mail

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odiseo-io/email-service/internal/errorx"
)

const testPassword = "secret"

type inboundMessage struct {
	from string
	to   string
	data string
}

// fakeBackend is an in-process SMTP server backend that captures deliveries
// and can be told to reject DATA commands.
type fakeBackend struct {
	mu        sync.Mutex
	sessions  int
	authed    []string
	inbox     []inboundMessage
	dataFails int

	// dataCode is the reply code for rejected DATA commands. Zero means 451.
	dataCode int
}

func (b *fakeBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions++
	return &fakeSession{backend: b}, nil
}

func (b *fakeBackend) sessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions
}

func (b *fakeBackend) messages() []inboundMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]inboundMessage(nil), b.inbox...)
}

type fakeSession struct {
	backend *fakeBackend
	from    string
	to      string
}

func (s *fakeSession) AuthPlain(username, password string) error {
	if password != testPassword {
		return &smtp.SMTPError{Code: 535, Message: "authentication failed"}
	}
	s.backend.mu.Lock()
	s.backend.authed = append(s.backend.authed, username)
	s.backend.mu.Unlock()
	return nil
}

func (s *fakeSession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *fakeSession) Rcpt(to string) error {
	s.to = to
	return nil
}

func (s *fakeSession) Data(r io.Reader) error {
	s.backend.mu.Lock()
	if s.backend.dataFails > 0 {
		s.backend.dataFails--
		code := s.backend.dataCode
		s.backend.mu.Unlock()
		if code == 0 {
			code = 451
		}
		return &smtp.SMTPError{Code: code, Message: "message rejected"}
	}
	s.backend.mu.Unlock()

	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.backend.mu.Lock()
	s.backend.inbox = append(s.backend.inbox, inboundMessage{
		from: s.from,
		to:   s.to,
		data: string(body),
	})
	s.backend.mu.Unlock()
	return nil
}

func (s *fakeSession) Reset()        {}
func (s *fakeSession) Logout() error { return nil }

func startSMTPServer(t *testing.T, backend *fakeBackend) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })

	return l.Addr().String()
}

func testConfig(t *testing.T, addr string) Config {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return Config{
		Host:      host,
		Port:      port,
		Username:  "queue@odiseo.io",
		Password:  testPassword,
		FromEmail: "noreply@odiseo.io",
		FromName:  "Odiseo",
		UseTLS:    false,
		Timeout:   5 * time.Second,
	}
}

func testMessage() Message {
	return Message{
		To:        "ana@example.com",
		ToName:    "Ana",
		Subject:   "Tu cita",
		HTML:      "<p>Hola Ana</p>",
		Text:      "Hola Ana",
		MessageID: "b51e3825-9f33-4464-8d44-9c1c25e9b7f2",
	}
}

func TestSendDeliversMultipartMessage(t *testing.T) {
	backend := &fakeBackend{}
	tr := NewTransport(testConfig(t, startSMTPServer(t, backend)))
	defer tr.Close()

	require.NoError(t, tr.Send(context.Background(), testMessage()))

	msgs := backend.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "noreply@odiseo.io", msgs[0].from)
	assert.Equal(t, "ana@example.com", msgs[0].to)
	assert.Equal(t, []string{"queue@odiseo.io"}, backend.authed)

	data := msgs[0].data
	lower := strings.ToLower(data)
	assert.Contains(t, lower, "multipart/alternative")
	assert.Contains(t, lower, "message-id:")
	assert.Contains(t, data, "b51e3825-9f33-4464-8d44-9c1c25e9b7f2@odiseo.io")

	// Text part must come before the HTML part.
	textIdx := strings.Index(lower, "text/plain")
	htmlIdx := strings.Index(lower, "text/html")
	require.True(t, textIdx >= 0 && htmlIdx >= 0, "both parts present")
	assert.Less(t, textIdx, htmlIdx)
}

func TestSendOmitsTextPartWhenEmpty(t *testing.T) {
	backend := &fakeBackend{}
	tr := NewTransport(testConfig(t, startSMTPServer(t, backend)))
	defer tr.Close()

	msg := testMessage()
	msg.Text = ""
	require.NoError(t, tr.Send(context.Background(), msg))

	msgs := backend.messages()
	require.Len(t, msgs, 1)
	assert.NotContains(t, strings.ToLower(msgs[0].data), "text/plain")
}

func TestSendReusesConnection(t *testing.T) {
	backend := &fakeBackend{}
	tr := NewTransport(testConfig(t, startSMTPServer(t, backend)))
	defer tr.Close()

	require.NoError(t, tr.Send(context.Background(), testMessage()))
	require.NoError(t, tr.Send(context.Background(), testMessage()))

	assert.Equal(t, 1, backend.sessionCount())
	assert.Len(t, backend.messages(), 2)
}

func TestSendRedialsStaleConnection(t *testing.T) {
	backend := &fakeBackend{}
	conf := testConfig(t, startSMTPServer(t, backend))
	conf.ConnTimeout = time.Nanosecond
	tr := NewTransport(conf)
	defer tr.Close()

	require.NoError(t, tr.Send(context.Background(), testMessage()))
	require.NoError(t, tr.Send(context.Background(), testMessage()))

	assert.Equal(t, 2, backend.sessionCount())
}

func TestSendRetriesOnFreshConnection(t *testing.T) {
	backend := &fakeBackend{dataFails: 1}
	tr := NewTransport(testConfig(t, startSMTPServer(t, backend)))
	defer tr.Close()

	require.NoError(t, tr.Send(context.Background(), testMessage()))

	assert.Equal(t, 2, backend.sessionCount())
	assert.Len(t, backend.messages(), 1)
}

func TestSendGivesUpAfterTwoAttempts(t *testing.T) {
	backend := &fakeBackend{dataFails: 2}
	tr := NewTransport(testConfig(t, startSMTPServer(t, backend)))
	defer tr.Close()

	err := tr.Send(context.Background(), testMessage())
	require.Error(t, err)

	var te *errorx.TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Transient, "4xx replies stay retryable")
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Empty(t, backend.messages())
}

func TestSendPermanentRejection(t *testing.T) {
	backend := &fakeBackend{dataFails: 2, dataCode: 554}
	tr := NewTransport(testConfig(t, startSMTPServer(t, backend)))
	defer tr.Close()

	err := tr.Send(context.Background(), testMessage())
	require.Error(t, err)

	var te *errorx.TransportError
	require.True(t, errors.As(err, &te))
	assert.False(t, te.Transient, "5xx replies must not be retried")
	assert.Empty(t, backend.messages())
}

func TestSendBadCredentials(t *testing.T) {
	backend := &fakeBackend{}
	conf := testConfig(t, startSMTPServer(t, backend))
	conf.Password = "wrong"
	tr := NewTransport(conf)
	defer tr.Close()

	err := tr.Send(context.Background(), testMessage())
	require.Error(t, err)

	var te *errorx.TransportError
	require.True(t, errors.As(err, &te))
	assert.False(t, te.Transient, "a 535 reply is permanent")
	assert.Empty(t, backend.messages())
}

func TestSendCanceledContext(t *testing.T) {
	backend := &fakeBackend{}
	tr := NewTransport(testConfig(t, startSMTPServer(t, backend)))
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Send(ctx, testMessage())
	require.Error(t, err)
	assert.Equal(t, 0, backend.sessionCount())
}

func TestValidate(t *testing.T) {
	backend := &fakeBackend{}
	tr := NewTransport(testConfig(t, startSMTPServer(t, backend)))

	require.NoError(t, tr.Validate(context.Background()))
	assert.Equal(t, 1, backend.sessionCount())
	assert.Nil(t, tr.client, "validation connection must not linger")
}

func TestValidateBadCredentials(t *testing.T) {
	backend := &fakeBackend{}
	conf := testConfig(t, startSMTPServer(t, backend))
	conf.Password = "wrong"
	tr := NewTransport(conf)

	err := tr.Validate(context.Background())
	require.Error(t, err)

	var te *errorx.TransportError
	require.True(t, errors.As(err, &te))
	assert.False(t, te.Transient)
}

func TestLintHTML(t *testing.T) {
	issues := LintHTML(`<html><body style="display: flex"></body></html>`)
	assert.Len(t, issues, 2) // missing doctype + flexbox

	clean := LintHTML(`<!DOCTYPE html><html><body><table></table></body></html>`)
	assert.Empty(t, clean)
}
