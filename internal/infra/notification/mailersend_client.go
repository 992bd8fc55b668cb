package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

const defaultAttempts = 3

var _ EmailSender = (*MailerSendClient)(nil)

// MailerSendClient sends emails through the MailerSend API.
type MailerSendClient struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
	attempts  int
	backoff   time.Duration
}

type MailerSendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

func NewMailerSendClient(config MailerSendConfig) *MailerSendClient {
	return &MailerSendClient{
		client:    mailersend.NewMailersend(config.APIKey),
		fromEmail: config.FromEmail,
		fromName:  config.FromName,
		attempts:  defaultAttempts,
		backoff:   time.Second,
	}
}

func (c *MailerSendClient) SendEmail(ctx context.Context, request EmailRequest) error {
	message := c.client.Email.NewMessage()
	message.SetFrom(mailersend.From{
		Email: c.fromEmail,
		Name:  c.fromName,
	})
	message.SetRecipients([]mailersend.Recipient{
		{
			Email: request.To,
		},
	})
	message.SetSubject(request.Subject)
	message.SetText(request.Body)

	return c.sendWithRetry(ctx, message)
}

// sendWithRetry backs off linearly between attempts and gives up early when
// ctx ends.
func (c *MailerSendClient) sendWithRetry(ctx context.Context, message *mailersend.Message) error {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		_, err := c.client.Email.Send(ctx, message)
		if err == nil {
			return nil
		}
		lastErr = &NotificationError{
			Message: fmt.Sprintf("mailersend api error (attempt %d/%d)", attempt, c.attempts),
			Err:     err,
		}
		if attempt == c.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return &NotificationError{Message: "sending email", Err: ctx.Err()}
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	return lastErr
}
