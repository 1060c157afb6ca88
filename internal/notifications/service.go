package notifications

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goattech/giftflow/internal/catalog"
	"github.com/goattech/giftflow/internal/gifts"
	"github.com/goattech/giftflow/pkg/logger"
	"github.com/goattech/giftflow/pkg/resilience"
)

const (
	emailTypeNotification = "notification"
	emailTypeConfirmation = "confirmation"

	deliveryStatusSent   = "sent"
	deliveryStatusFailed = "failed"
)

// Service dispatches gift verification codes and claim confirmations to
// recipients over email and SMS.
type Service struct {
	emailClient  EmailClientInterface
	smsClient    SMSClientInterface
	audit        AuditStore
	emailBreaker *resilience.CircuitBreaker
	smsBreaker   *resilience.CircuitBreaker
	frontendURL  string
	ttlDays      int
}

// NewService creates a notification service. Either client may be nil when
// the corresponding channel is disabled.
func NewService(emailClient EmailClientInterface, smsClient SMSClientInterface, audit AuditStore, frontendURL string, ttlDays int) *Service {
	return &Service{
		emailClient: emailClient,
		smsClient:   smsClient,
		audit:       audit,
		frontendURL: frontendURL,
		ttlDays:     ttlDays,
	}
}

// SetCircuitBreakers wires circuit breakers for downstream providers.
func (s *Service) SetCircuitBreakers(emailBreaker, smsBreaker *resilience.CircuitBreaker) {
	s.emailBreaker = emailBreaker
	s.smsBreaker = smsBreaker
}

// SendGiftCode delivers the verification code to the recipient. Email is
// the primary channel; SMS is attempted additionally when a phone number
// is on record. Delivery outcomes are written to the audit table.
func (s *Service) SendGiftCode(ctx context.Context, gift *gifts.Gift, product *catalog.ProductSummary) error {
	html, err := renderTemplate(giftCodeEmailTmpl, giftCodeEmailData{
		SenderName:       gift.SenderName,
		SenderMessage:    gift.SenderMessage,
		RecipientName:    gift.RecipientName,
		ProductName:      product.ProductName,
		ProductImage:     product.ImageURL,
		VerificationCode: gift.VerificationCode,
		ClaimURL:         fmt.Sprintf("%s/gift/claim/%s", s.frontendURL, gift.GiftID),
		TTLDays:          s.ttlDays,
	})
	if err != nil {
		return fmt.Errorf("render gift code email: %w", err)
	}

	subject := fmt.Sprintf("%s sent you a gift!", gift.SenderName)
	emailErr := s.sendEmail(ctx, gift.RecipientEmail, subject, html)
	s.recordDelivery(ctx, gift, emailTypeNotification, gift.RecipientEmail, emailErr)

	if gift.RecipientPhone != "" && s.smsClient != nil {
		body := fmt.Sprintf("GoatTech: %s sent you a gift. Your verification code is %s. Claim at %s/gift/claim/%s",
			gift.SenderName, gift.VerificationCode, s.frontendURL, gift.GiftID)
		if smsErr := s.sendSMS(ctx, gift.RecipientPhone, body); smsErr != nil {
			logger.WithContext(ctx).Warn("Failed to send gift code SMS",
				zap.String("gift_id", gift.GiftID.String()),
				zap.Error(smsErr))
		}
	}

	return emailErr
}

// SendClaimConfirmation notifies the recipient that their order was created
func (s *Service) SendClaimConfirmation(ctx context.Context, gift *gifts.Gift, productName string, orderID int64) error {
	html, err := renderTemplate(claimConfirmationTmpl, claimConfirmationData{
		RecipientName: gift.RecipientName,
		ProductName:   productName,
		OrderID:       orderID,
	})
	if err != nil {
		return fmt.Errorf("render claim confirmation email: %w", err)
	}

	subject := fmt.Sprintf("Gift claimed - order #%d", orderID)
	emailErr := s.sendEmail(ctx, gift.RecipientEmail, subject, html)
	s.recordDelivery(ctx, gift, emailTypeConfirmation, gift.RecipientEmail, emailErr)

	return emailErr
}

func (s *Service) sendEmail(ctx context.Context, to, subject, html string) error {
	if s.emailClient == nil {
		return fmt.Errorf("email client not configured")
	}

	if s.emailBreaker == nil {
		return s.emailClient.SendHTMLEmail(to, subject, html)
	}

	_, err := s.emailBreaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, s.emailClient.SendHTMLEmail(to, subject, html)
	})
	return err
}

func (s *Service) sendSMS(ctx context.Context, to, body string) error {
	if s.smsBreaker == nil {
		return s.smsClient.SendSMS(to, body)
	}

	_, err := s.smsBreaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, s.smsClient.SendSMS(to, body)
	})
	return err
}

func (s *Service) recordDelivery(ctx context.Context, gift *gifts.Gift, emailType, sentTo string, sendErr error) {
	if s.audit == nil {
		return
	}

	status := deliveryStatusSent
	if sendErr != nil {
		status = deliveryStatusFailed
	}

	if err := s.audit.RecordGiftEmail(ctx, gift.GiftID, emailType, sentTo, status); err != nil {
		logger.WithContext(ctx).Error("Failed to record gift email audit row",
			zap.String("gift_id", gift.GiftID.String()),
			zap.String("email_type", emailType),
			zap.Error(err))
	}
}
