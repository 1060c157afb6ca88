package gifts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goattech/giftflow/internal/catalog"
	"github.com/goattech/giftflow/internal/orders"
)

// RepositoryInterface defines the contract for the gift store. All state
// transitions go through conditional writes: CompareAndSwapStatus succeeds
// only when the record still holds the expected status, and
// IncrementAttemptCount only when the counter still holds the expected
// value. The two condition on different columns so a status transition and
// a counter bump never conflict with each other.
type RepositoryInterface interface {
	CreateGift(ctx context.Context, gift *Gift) error
	GetGift(ctx context.Context, giftID uuid.UUID) (*Gift, error)
	CompareAndSwapStatus(ctx context.Context, giftID uuid.UUID, expected, next Status, update StatusUpdate) (bool, error)
	IncrementAttemptCount(ctx context.Context, giftID uuid.UUID, expectedCount int) (bool, error)
	SetClaimedOrderID(ctx context.Context, giftID uuid.UUID, orderID int64) error
	GetSentGifts(ctx context.Context, senderID uuid.UUID) ([]GiftListEntry, error)
	GetReceivedGifts(ctx context.Context, email string) ([]GiftListEntry, error)
	GetUnreconciledClaims(ctx context.Context, claimedBefore time.Time, limit int) ([]Gift, error)
	RecordGiftEmail(ctx context.Context, giftID uuid.UUID, emailType, sentTo, status string) error
}

// OrderCreator is the external order creation collaborator
type OrderCreator interface {
	CreateGiftOrder(ctx context.Context, req *orders.CreateGiftOrderRequest) (int64, error)
}

// Notifier dispatches verification codes and claim confirmations to the
// recipient. Failures are logged, never fatal to the owning operation.
type Notifier interface {
	SendGiftCode(ctx context.Context, gift *Gift, product *catalog.ProductSummary) error
	SendClaimConfirmation(ctx context.Context, gift *Gift, productName string, orderID int64) error
}
