package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

// Message is one outbound email, already rendered.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string

	// MessageID is the queue-assigned id, used as the left part of the
	// Message-Id header. Optional; the receiving server assigns one when
	// absent.
	MessageID string
}

// buildMessage assembles a multipart/alternative MIME message with the text
// part first, so clients that stop at the first readable part show the plain
// body.
func buildMessage(conf Config, msg Message) ([]byte, error) {
	var h gomail.Header
	h.SetDate(time.Now())
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*gomail.Address{
		{Name: conf.FromName, Address: conf.FromEmail},
	})
	h.SetAddressList("To", []*gomail.Address{
		{Name: msg.ToName, Address: msg.To},
	})
	if msg.MessageID != "" {
		h.SetMessageID(fmt.Sprintf("%s@%s", msg.MessageID, fromDomain(conf)))
	}

	var buf bytes.Buffer
	mw, err := gomail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}

	if msg.Text != "" {
		if err := writePart(mw, "text/plain", msg.Text); err != nil {
			return nil, err
		}
	}
	if err := writePart(mw, "text/html", msg.HTML); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close message writer: %w", err)
	}

	return buf.Bytes(), nil
}

func writePart(mw *gomail.InlineWriter, contentType, body string) error {
	var h gomail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		pw.Close()
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return pw.Close()
}

// fromDomain extracts the domain of the configured sender for Message-Id
// generation, falling back to the SMTP host.
func fromDomain(conf Config) string {
	if _, domain, ok := strings.Cut(conf.FromEmail, "@"); ok && domain != "" {
		return domain
	}
	return conf.Host
}
