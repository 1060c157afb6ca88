package gifts

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/goattech/giftflow/internal/catalog"
	"github.com/goattech/giftflow/internal/orders"
	"github.com/goattech/giftflow/pkg/common"
	"github.com/goattech/giftflow/pkg/config"
	"github.com/goattech/giftflow/pkg/logger"
)

// conflictRetries bounds the internal re-read loop when a conditional
// write loses a race. After that the caller gets a retryable conflict.
const conflictRetries = 3

// reconcileBatchSize caps how many stuck claims a single sweep processes
const reconcileBatchSize = 50

// Service handles gift business logic
type Service struct {
	repo     RepositoryInterface
	catalog  catalog.RepositoryInterface
	orders   OrderCreator
	notifier Notifier

	ttl            time.Duration
	maxAttempts    int
	orderTimeout   time.Duration
	reconcileGrace time.Duration

	now func() time.Time
}

// NewService creates a new gift service
func NewService(repo RepositoryInterface, catalogRepo catalog.RepositoryInterface, orderCreator OrderCreator, notifier Notifier, cfg config.GiftsConfig) *Service {
	return &Service{
		repo:           repo,
		catalog:        catalogRepo,
		orders:         orderCreator,
		notifier:       notifier,
		ttl:            cfg.TTL(),
		maxAttempts:    cfg.MaxVerifyAttempts,
		orderTimeout:   cfg.OrderTimeout(),
		reconcileGrace: cfg.ReconcileGrace(),
		now:            time.Now,
	}
}

// WithNow overrides the clock, used in tests
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// SendGift creates a gift for a catalog product and dispatches the
// verification code to the recipient. Notification failure does not fail
// the creation; the code can be re-sent from the audit trail.
func (s *Service) SendGift(ctx context.Context, req *SendGiftRequest) (*SendGiftResult, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("product not found", err)
		}
		return nil, common.NewInternalError("failed to look up product", err)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, common.NewInternalError("failed to generate verification code", err)
	}

	now := s.now()
	gift := &Gift{
		GiftID:           uuid.New(),
		SenderID:         req.SenderID,
		SenderName:       strings.TrimSpace(req.SenderName),
		SenderEmail:      strings.TrimSpace(req.SenderEmail),
		SenderMessage:    strings.TrimSpace(req.SenderMessage),
		RecipientName:    strings.TrimSpace(req.RecipientName),
		RecipientEmail:   strings.TrimSpace(req.RecipientEmail),
		RecipientPhone:   strings.TrimSpace(req.RecipientPhone),
		ProductID:        req.ProductID,
		Quantity:         quantity,
		VerificationCode: code,
		Status:           StatusPending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.ttl),
	}

	if err := s.repo.CreateGift(ctx, gift); err != nil {
		return nil, common.NewInternalError("failed to create gift", err)
	}

	giftsCreatedTotal.Inc()
	logger.WithContext(ctx).Info("Gift created",
		zap.String("gift_id", gift.GiftID.String()),
		zap.Int64("product_id", gift.ProductID),
		zap.Time("expires_at", gift.ExpiresAt),
	)

	if err := s.notifier.SendGiftCode(ctx, gift, product); err != nil {
		logger.WithContext(ctx).Warn("Failed to send gift code notification",
			zap.String("gift_id", gift.GiftID.String()),
			zap.Error(err),
		)
	}

	return &SendGiftResult{
		GiftID:           gift.GiftID,
		VerificationCode: gift.VerificationCode,
		ExpiresAt:        gift.ExpiresAt,
	}, nil
}

// GetGiftInfo returns the public view of a gift. The verification code is
// never part of the result and the status reflects expiry at read time.
func (s *Service) GetGiftInfo(ctx context.Context, giftID uuid.UUID) (*GiftInfo, error) {
	gift, err := s.getGift(ctx, giftID)
	if err != nil {
		return nil, err
	}

	info := &GiftInfo{
		GiftID:          gift.GiftID,
		SenderName:      gift.SenderName,
		SenderMessage:   gift.SenderMessage,
		RecipientName:   gift.RecipientName,
		Quantity:        gift.Quantity,
		EffectiveStatus: gift.EffectiveStatus(s.now()),
		CreatedAt:       gift.CreatedAt,
		ExpiresAt:       gift.ExpiresAt,
	}

	product, err := s.catalog.GetProduct(ctx, gift.ProductID)
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to enrich gift with product",
			zap.String("gift_id", gift.GiftID.String()),
			zap.Int64("product_id", gift.ProductID),
			zap.Error(err),
		)
	} else {
		info.Product = product
	}

	return info, nil
}

// Verify checks a submitted code against the gift. Expiry is evaluated
// before the code is compared so an expired gift never reveals whether a
// guess was right. A matching code on an already verified gift succeeds
// without touching the record.
func (s *Service) Verify(ctx context.Context, giftID uuid.UUID, code string) error {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		gift, err := s.getGift(ctx, giftID)
		if err != nil {
			return err
		}

		if gift.Status == StatusClaimed {
			return NewAlreadyClaimedError()
		}
		if gift.IsExpired(s.now()) {
			giftVerificationsTotal.WithLabelValues("expired").Inc()
			return NewExpiredError()
		}
		if gift.AttemptCount >= s.maxAttempts {
			giftVerificationsTotal.WithLabelValues("locked_out").Inc()
			return NewLockedOutError()
		}

		if subtle.ConstantTimeCompare([]byte(gift.VerificationCode), []byte(code)) != 1 {
			swapped, err := s.repo.IncrementAttemptCount(ctx, giftID, gift.AttemptCount)
			if err != nil {
				return common.NewInternalError("failed to record verification attempt", err)
			}
			if !swapped {
				// Lost the race on the counter, re-read and re-evaluate
				continue
			}
			giftVerificationsTotal.WithLabelValues("invalid_code").Inc()
			return NewInvalidCodeError()
		}

		if gift.Status == StatusVerified {
			giftVerificationsTotal.WithLabelValues("success").Inc()
			return nil
		}

		now := s.now()
		swapped, err := s.repo.CompareAndSwapStatus(ctx, giftID, StatusPending, StatusVerified, StatusUpdate{
			VerifiedAt: &now,
		})
		if err != nil {
			return common.NewInternalError("failed to verify gift", err)
		}
		if swapped {
			giftVerificationsTotal.WithLabelValues("success").Inc()
			logger.WithContext(ctx).Info("Gift verified", zap.String("gift_id", giftID.String()))
			return nil
		}
	}

	return NewConflictError()
}

// Claim reserves a verified gift and creates its zero-price order. The
// status swap to claimed happens before the order call, so at most one
// caller ever reaches the order collaborator for a given gift. If the
// order call fails the gift stays claimed with no order id and the sweep
// in ReconcileUnfilledClaims finishes the job later.
func (s *Service) Claim(ctx context.Context, giftID uuid.UUID, req *ClaimRequest) (*ClaimResult, error) {
	address := strings.TrimSpace(req.Address)
	phone := strings.TrimSpace(req.Phone)
	if address == "" || phone == "" {
		return nil, common.NewValidationError("shipping address and phone are required", nil)
	}

	for attempt := 0; attempt < conflictRetries; attempt++ {
		gift, err := s.getGift(ctx, giftID)
		if err != nil {
			return nil, err
		}

		switch {
		case gift.Status == StatusClaimed:
			if gift.ClaimedOrderID != nil {
				// Earlier claim finished, return the same order
				return &ClaimResult{OrderID: *gift.ClaimedOrderID, AlreadyClaimed: true}, nil
			}
			giftClaimsTotal.WithLabelValues("already_claimed").Inc()
			return nil, NewAlreadyClaimedError()
		case gift.IsExpired(s.now()):
			giftClaimsTotal.WithLabelValues("expired").Inc()
			return nil, NewExpiredError()
		case gift.Status == StatusPending:
			giftClaimsTotal.WithLabelValues("not_verified").Inc()
			return nil, NewNotVerifiedError()
		}

		now := s.now()
		swapped, err := s.repo.CompareAndSwapStatus(ctx, giftID, StatusVerified, StatusClaimed, StatusUpdate{
			ClaimedAt:        &now,
			RecipientAddress: &address,
			RecipientPhone:   &phone,
		})
		if err != nil {
			return nil, common.NewInternalError("failed to claim gift", err)
		}
		if !swapped {
			continue
		}

		gift.Status = StatusClaimed
		gift.ClaimedAt = &now
		gift.RecipientAddress = address
		gift.RecipientPhone = phone

		orderID, err := s.createOrderForClaim(ctx, gift)
		if err != nil {
			giftClaimsTotal.WithLabelValues("order_failed").Inc()
			logger.WithContext(ctx).Error("Order creation failed for claimed gift",
				zap.String("gift_id", giftID.String()),
				zap.Error(err),
			)
			return nil, NewDependencyTimeoutError(err)
		}

		if err := s.repo.SetClaimedOrderID(ctx, giftID, orderID); err != nil {
			// The order exists; the sweep will not recreate it because the
			// write only failed if the id is already recorded or the row
			// changed. Log and report success with the order we created.
			logger.WithContext(ctx).Error("Failed to record order id on claimed gift",
				zap.String("gift_id", giftID.String()),
				zap.Int64("order_id", orderID),
				zap.Error(err),
			)
		}

		giftClaimsTotal.WithLabelValues("success").Inc()
		logger.WithContext(ctx).Info("Gift claimed",
			zap.String("gift_id", giftID.String()),
			zap.Int64("order_id", orderID),
		)

		s.sendClaimConfirmation(ctx, gift, orderID)

		return &ClaimResult{OrderID: orderID}, nil
	}

	giftClaimsTotal.WithLabelValues("conflict").Inc()
	return nil, NewConflictError()
}

// SentGifts lists the gifts created by a sender
func (s *Service) SentGifts(ctx context.Context, senderID uuid.UUID) ([]GiftListEntry, error) {
	entries, err := s.repo.GetSentGifts(ctx, senderID)
	if err != nil {
		return nil, common.NewInternalError("failed to list sent gifts", err)
	}
	return entries, nil
}

// ReceivedGifts lists the gifts addressed to a recipient email
func (s *Service) ReceivedGifts(ctx context.Context, email string) ([]GiftListEntry, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, common.NewValidationError("email is required", nil)
	}

	entries, err := s.repo.GetReceivedGifts(ctx, email)
	if err != nil {
		return nil, common.NewInternalError("failed to list received gifts", err)
	}
	return entries, nil
}

// ReconcileUnfilledClaims backfills orders for claims whose order creation
// failed after the status swap. It returns the number of gifts repaired.
func (s *Service) ReconcileUnfilledClaims(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.reconcileGrace)
	stuck, err := s.repo.GetUnreconciledClaims(ctx, cutoff, reconcileBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unreconciled claims: %w", err)
	}

	repaired := 0
	for i := range stuck {
		gift := &stuck[i]

		orderID, err := s.createOrderForClaim(ctx, gift)
		if err != nil {
			logger.WithContext(ctx).Warn("Reconciliation order creation failed",
				zap.String("gift_id", gift.GiftID.String()),
				zap.Error(err),
			)
			continue
		}

		if err := s.repo.SetClaimedOrderID(ctx, gift.GiftID, orderID); err != nil {
			logger.WithContext(ctx).Error("Reconciliation failed to record order id",
				zap.String("gift_id", gift.GiftID.String()),
				zap.Int64("order_id", orderID),
				zap.Error(err),
			)
			continue
		}

		giftsReconciledTotal.Inc()
		repaired++
		logger.WithContext(ctx).Info("Reconciled claimed gift",
			zap.String("gift_id", gift.GiftID.String()),
			zap.Int64("order_id", orderID),
		)

		s.sendClaimConfirmation(ctx, gift, orderID)
	}

	return repaired, nil
}

func (s *Service) getGift(ctx context.Context, giftID uuid.UUID) (*Gift, error) {
	gift, err := s.repo.GetGift(ctx, giftID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewGiftNotFoundError()
		}
		return nil, common.NewInternalError("failed to get gift", err)
	}
	return gift, nil
}

// createOrderForClaim calls the order collaborator under a deadline. The
// caller has already reserved the gift; this must never be retried here.
func (s *Service) createOrderForClaim(ctx context.Context, gift *Gift) (int64, error) {
	orderCtx, cancel := context.WithTimeout(ctx, s.orderTimeout)
	defer cancel()

	return s.orders.CreateGiftOrder(orderCtx, &orders.CreateGiftOrderRequest{
		ProductID:       gift.ProductID,
		Quantity:        gift.Quantity,
		ShippingAddress: gift.RecipientAddress,
		ShippingPhone:   gift.RecipientPhone,
		Notes:           fmt.Sprintf("Gift from %s (%s)", gift.SenderName, gift.SenderEmail),
	})
}

func (s *Service) sendClaimConfirmation(ctx context.Context, gift *Gift, orderID int64) {
	productName := "your gift"
	if product, err := s.catalog.GetProduct(ctx, gift.ProductID); err == nil {
		productName = product.ProductName
	}

	if err := s.notifier.SendClaimConfirmation(ctx, gift, productName, orderID); err != nil {
		logger.WithContext(ctx).Warn("Failed to send claim confirmation",
			zap.String("gift_id", gift.GiftID.String()),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
	}
}

// generateVerificationCode returns a random six digit code
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
