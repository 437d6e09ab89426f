package smtp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Client sends html notifications through an SMTP relay.
type Client struct {
	dialer dialer
	from   string
	domain string
}

// NewClient builds a Client. domain is used in generated Message-ID headers.
func NewClient(dialer dialer, from, domain string) *Client {
	return &Client{
		dialer: dialer,
		from:   from,
		domain: domain,
	}
}

func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("Message-ID", generateMessageID(c.domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := c.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func generateMessageID(domain string) string {
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
