package gifts

import (
	"time"

	"github.com/google/uuid"

	"github.com/goattech/giftflow/internal/catalog"
)

// Status is the persisted gift state. StatusExpired is derived at read
// time and never written to the store.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusClaimed  Status = "claimed"
	StatusExpired  Status = "expired"
)

// Gift is a reservation of a catalog product for free redemption by a
// specific recipient, bounded by a verification code and expiry.
type Gift struct {
	GiftID           uuid.UUID  `json:"gift_id"`
	SenderID         *uuid.UUID `json:"sender_id,omitempty"`
	SenderName       string     `json:"sender_name"`
	SenderEmail      string     `json:"sender_email"`
	SenderMessage    string     `json:"sender_message"`
	RecipientName    string     `json:"recipient_name"`
	RecipientEmail   string     `json:"recipient_email"`
	RecipientPhone   string     `json:"recipient_phone"`
	RecipientAddress string     `json:"recipient_address"`
	ProductID        int64      `json:"product_id"`
	Quantity         int        `json:"quantity"`
	VerificationCode string     `json:"-"`
	AttemptCount     int        `json:"-"`
	Status           Status     `json:"status"`
	ClaimedOrderID   *int64     `json:"claimed_order_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	ClaimedAt        *time.Time `json:"claimed_at,omitempty"`
	ExpiresAt        time.Time  `json:"expires_at"`
}

// EffectiveStatus computes the status reported to readers. A claimed gift
// stays claimed after its expiry passes; only pending and verified gifts
// decay to expired.
func (g *Gift) EffectiveStatus(now time.Time) Status {
	if g.Status == StatusClaimed {
		return StatusClaimed
	}
	if !now.Before(g.ExpiresAt) {
		return StatusExpired
	}
	return g.Status
}

// IsExpired reports whether the validity window has passed
func (g *Gift) IsExpired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

// GiftEmail is an audit row for a notification dispatched for a gift
type GiftEmail struct {
	ID        int64     `json:"id"`
	GiftID    uuid.UUID `json:"gift_id"`
	EmailType string    `json:"email_type"`
	SentTo    string    `json:"sent_to"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusUpdate carries the column values written together with a status
// compare-and-swap.
type StatusUpdate struct {
	VerifiedAt       *time.Time
	ClaimedAt        *time.Time
	RecipientAddress *string
	RecipientPhone   *string
}

// SendGiftRequest is the sender-side creation payload
type SendGiftRequest struct {
	SenderName     string     `json:"sender_name" validate:"required,max=120"`
	SenderEmail    string     `json:"sender_email" validate:"required,email"`
	SenderMessage  string     `json:"sender_message" validate:"max=1000"`
	SenderID       *uuid.UUID `json:"sender_id"`
	RecipientName  string     `json:"recipient_name" validate:"required,max=120"`
	RecipientEmail string     `json:"recipient_email" validate:"required,email"`
	RecipientPhone string     `json:"recipient_phone"`
	ProductID      int64      `json:"product_id" validate:"required,gt=0"`
	Quantity       int        `json:"quantity" validate:"gte=0,lte=100"`
}

// VerifyRequest is the code submission payload
type VerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// ClaimRequest is the shipping-details payload
type ClaimRequest struct {
	Address string `json:"address" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
}

// GiftInfo is the public read model returned by the info endpoint. It
// never includes the verification code.
type GiftInfo struct {
	GiftID          uuid.UUID               `json:"gift_id"`
	SenderName      string                  `json:"sender_name"`
	SenderMessage   string                  `json:"sender_message"`
	RecipientName   string                  `json:"recipient_name"`
	Quantity        int                     `json:"quantity"`
	EffectiveStatus Status                  `json:"effective_status"`
	CreatedAt       time.Time               `json:"created_at"`
	ExpiresAt       time.Time               `json:"expires_at"`
	Product         *catalog.ProductSummary `json:"product,omitempty"`
}

// SendGiftResult is returned to the sender flow
type SendGiftResult struct {
	GiftID           uuid.UUID `json:"gift_id"`
	VerificationCode string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// ClaimResult carries the order created (or previously created) for a claim
type ClaimResult struct {
	OrderID int64 `json:"order_id"`
	// AlreadyClaimed is true when the order id was recorded by an earlier
	// successful claim and no new order was created by this call.
	AlreadyClaimed bool `json:"already_claimed"`
}

// GiftListEntry is a sent/received listing row with display data
type GiftListEntry struct {
	GiftID          uuid.UUID               `json:"gift_id"`
	SenderName      string                  `json:"sender_name"`
	RecipientName   string                  `json:"recipient_name"`
	RecipientEmail  string                  `json:"recipient_email"`
	Quantity        int                     `json:"quantity"`
	EffectiveStatus Status                  `json:"effective_status"`
	CreatedAt       time.Time               `json:"created_at"`
	ExpiresAt       time.Time               `json:"expires_at"`
	Product         *catalog.ProductSummary `json:"product,omitempty"`
}
