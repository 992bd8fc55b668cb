package notification

import (
	"context"
	"log/slog"
	"sync"
)

var _ EmailSender = (*Outbox)(nil)

// Outbox keeps emails in memory and logs them instead of delivering them.
type Outbox struct {
	mu   sync.Mutex
	sent []EmailRequest
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) SendEmail(ctx context.Context, request EmailRequest) error {
	o.mu.Lock()
	o.sent = append(o.sent, request)
	o.mu.Unlock()

	slog.InfoContext(ctx, "email queued",
		slog.String("to", request.To),
		slog.String("subject", request.Subject),
		slog.String("body", request.Body))
	return nil
}

func (o *Outbox) Sent() []EmailRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]EmailRequest(nil), o.sent...)
}

// Last is the latest email sent to address.
func (o *Outbox) Last(address string) (EmailRequest, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == address {
			return o.sent[i], true
		}
	}
	return EmailRequest{}, false
}
