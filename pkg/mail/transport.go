// Package mail implements the SMTP transport that delivers queued emails.
//
// A Transport keeps a single authenticated connection open between sends and
// probes it with NOOP before reuse, so bursts of deliveries share one session
// instead of paying the TLS handshake per message. All methods are safe for
// concurrent use; sends serialize on the connection.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/odiseo-io/email-service/internal/errorx"
)

const (
	// sendAttempts is how many times a single Send tries before giving up.
	// The connection is torn down between attempts so the second try always
	// starts from a fresh session.
	sendAttempts = 2

	// defaultConnTimeout is how long an idle connection stays eligible for
	// reuse before being discarded without a probe.
	defaultConnTimeout = 60 * time.Second

	defaultCommandTimeout = 30 * time.Second

	implicitTLSPort = 465
)

// Config holds the SMTP client configuration.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool

	// Timeout bounds dialing and individual SMTP commands.
	Timeout time.Duration

	// ConnTimeout overrides the idle reuse window. Zero means the default.
	ConnTimeout time.Duration

	// LocalName is the hostname sent in EHLO. Defaults to localhost.
	LocalName string

	// TLSConfig overrides TLS settings for STARTTLS and implicit TLS.
	TLSConfig *tls.Config
}

// Address returns the host:port dial target.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultCommandTimeout
}

func (c Config) connTimeout() time.Duration {
	if c.ConnTimeout > 0 {
		return c.ConnTimeout
	}
	return defaultConnTimeout
}

func (c Config) localName() string {
	if c.LocalName != "" {
		return c.LocalName
	}
	return "localhost"
}

// Transport delivers messages over a reused SMTP connection.
type Transport struct {
	conf Config

	mu       sync.Mutex
	client   *smtp.Client
	lastUsed time.Time
}

// NewTransport creates a transport. No connection is opened until the first
// Send or Validate call.
func NewTransport(conf Config) *Transport {
	return &Transport{conf: conf}
}

// Send delivers one message. It retries once on failure with a fresh
// connection; if both attempts fail the returned TransportError carries a
// Transient flag classified from the last SMTP reply.
func (t *Transport) Send(ctx context.Context, msg Message) error {
	raw, err := buildMessage(t.conf, msg)
	if err != nil {
		return errorx.NewTransportError(
			fmt.Sprintf("failed to build message for %s", msg.To), false, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errorx.NewTransportError("send canceled", true, err)
		}

		cl, err := t.connection(ctx)
		if err != nil {
			lastErr = err
			t.teardown()
			continue
		}

		if err := submit(cl, t.conf.FromEmail, msg.To, raw); err != nil {
			lastErr = err
			t.teardown()
			continue
		}

		t.lastUsed = time.Now()
		return nil
	}

	return errorx.NewTransportError(
		fmt.Sprintf("failed to send email to %s after %d attempts", msg.To, sendAttempts),
		transientFromErr(lastErr), lastErr)
}

// Validate opens a connection, greets and authenticates, then closes it.
// Used at worker startup and by the operator CLI to verify credentials.
func (t *Transport) Validate(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.connect(ctx); err != nil {
		return errorx.NewTransportError("smtp connection validation failed",
			transientFromErr(err), err)
	}
	t.teardown()
	return nil
}

// Close quits the cached connection if one is open.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.teardown()
}

// connection returns a usable client, reusing the cached one when it is
// fresh and still answers NOOP.
func (t *Transport) connection(ctx context.Context) (*smtp.Client, error) {
	if t.client != nil {
		if time.Since(t.lastUsed) < t.conf.connTimeout() {
			if err := t.client.Noop(); err == nil {
				t.lastUsed = time.Now()
				return t.client, nil
			}
		}
		t.teardown()
	}

	return t.connect(ctx)
}

func (t *Transport) connect(ctx context.Context) (*smtp.Client, error) {
	dialer := net.Dialer{Timeout: t.conf.timeout()}
	conn, err := dialer.DialContext(ctx, "tcp", t.conf.Address())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.conf.Address(), err)
	}

	// Port 465 speaks TLS from the first byte; everything else upgrades
	// via STARTTLS after the greeting.
	if t.conf.UseTLS && t.conf.Port == implicitTLSPort {
		conn = tls.Client(conn, t.tlsConfig())
	}

	cl, err := smtp.NewClient(conn, t.conf.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp greeting: %w", err)
	}
	cl.CommandTimeout = t.conf.timeout()
	cl.SubmissionTimeout = 2 * t.conf.timeout()

	if err := cl.Hello(t.conf.localName()); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ehlo: %w", err)
	}

	if t.conf.UseTLS && t.conf.Port != implicitTLSPort {
		if err := cl.StartTLS(t.tlsConfig()); err != nil {
			cl.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	if t.conf.Username != "" {
		auth := sasl.NewPlainClient("", t.conf.Username, t.conf.Password)
		if err := cl.Auth(auth); err != nil {
			cl.Close()
			return nil, fmt.Errorf("auth: %w", err)
		}
	}

	t.client = cl
	t.lastUsed = time.Now()
	return cl, nil
}

// teardown closes the cached connection, preferring a polite QUIT.
func (t *Transport) teardown() error {
	if t.client == nil {
		return nil
	}
	cl := t.client
	t.client = nil

	if err := cl.Quit(); err != nil {
		return cl.Close()
	}
	return nil
}

func (t *Transport) tlsConfig() *tls.Config {
	if t.conf.TLSConfig != nil {
		return t.conf.TLSConfig
	}
	return &tls.Config{ServerName: t.conf.Host}
}

// transientFromErr classifies a delivery failure. A structured SMTP reply
// is authoritative: a 4xx code invites a retry, a 5xx code does not. Errors
// without a reply code are connection-level and assumed temporary.
func transientFromErr(err error) bool {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return smtpErr.Code/100 == 4
	}
	return true
}

func submit(cl *smtp.Client, from, to string, raw []byte) error {
	if err := cl.Mail(from, &smtp.MailOptions{}); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := cl.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	wc, err := cl.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := wc.Write(raw); err != nil {
		wc.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return nil
}
