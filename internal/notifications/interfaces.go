package notifications

import (
	"context"

	"github.com/google/uuid"
)

// EmailClientInterface sends email through the configured provider
type EmailClientInterface interface {
	SendHTMLEmail(to, subject, htmlBody string) error
}

// SMSClientInterface sends SMS through the configured provider
type SMSClientInterface interface {
	SendSMS(to, body string) error
}

// AuditStore records the delivery outcome of gift notifications
type AuditStore interface {
	RecordGiftEmail(ctx context.Context, giftID uuid.UUID, emailType, sentTo, status string) error
}
