package notification

import (
	"context"
)

//go:generate mockgen -source=notification_client.go -destination=../../../test/unit/doubles/infra/notification/notification_client_mock.go -package=notification -mock_names=EmailSender=MockEmailSender

// EmailSender delivers transactional emails such as verification codes.
type EmailSender interface {
	SendEmail(ctx context.Context, request EmailRequest) error
}

type EmailRequest struct {
	To      string
	Subject string
	Body    string
}

// NotificationError wraps a delivery failure of a provider.
type NotificationError struct {
	Message string
	Err     error
}

func (e *NotificationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
