package gifts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goattech/giftflow/internal/catalog"
)

// ErrOrderIDAlreadySet is returned when a claimed order id write finds the
// column already populated or the gift no longer claimed.
var ErrOrderIDAlreadySet = errors.New("claimed order id already set")

// Repository handles database operations for gifts
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new gift repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const giftColumns = `gift_id, sender_id, sender_name, sender_email, sender_message,
	       recipient_name, recipient_email, recipient_phone, recipient_address,
	       product_id, quantity, verification_code, attempt_count, status,
	       claimed_order_id, created_at, verified_at, claimed_at, expires_at`

func scanGift(row pgx.Row) (*Gift, error) {
	g := &Gift{}
	err := row.Scan(
		&g.GiftID, &g.SenderID, &g.SenderName, &g.SenderEmail, &g.SenderMessage,
		&g.RecipientName, &g.RecipientEmail, &g.RecipientPhone, &g.RecipientAddress,
		&g.ProductID, &g.Quantity, &g.VerificationCode, &g.AttemptCount, &g.Status,
		&g.ClaimedOrderID, &g.CreatedAt, &g.VerifiedAt, &g.ClaimedAt, &g.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// CreateGift inserts a new gift record
func (r *Repository) CreateGift(ctx context.Context, gift *Gift) error {
	query := `
		INSERT INTO gifts (gift_id, sender_id, sender_name, sender_email, sender_message,
		                   recipient_name, recipient_email, recipient_phone, recipient_address,
		                   product_id, quantity, verification_code, attempt_count, status,
		                   created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		gift.GiftID, gift.SenderID, gift.SenderName, gift.SenderEmail, gift.SenderMessage,
		gift.RecipientName, gift.RecipientEmail, gift.RecipientPhone, gift.RecipientAddress,
		gift.ProductID, gift.Quantity, gift.VerificationCode, gift.AttemptCount, gift.Status,
		gift.CreatedAt, gift.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create gift: %w", err)
	}

	return nil
}

// GetGift retrieves a gift by its id
func (r *Repository) GetGift(ctx context.Context, giftID uuid.UUID) (*Gift, error) {
	query := fmt.Sprintf(`SELECT %s FROM gifts WHERE gift_id = $1`, giftColumns)

	gift, err := scanGift(r.db.QueryRow(ctx, query, giftID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}

	return gift, nil
}

// CompareAndSwapStatus transitions a gift from the expected status to the
// next status in a single conditional update. It returns false without
// error when the record was not in the expected status anymore.
func (r *Repository) CompareAndSwapStatus(ctx context.Context, giftID uuid.UUID, expected, next Status, update StatusUpdate) (bool, error) {
	query := `
		UPDATE gifts
		SET status = $3,
		    verified_at = COALESCE($4, verified_at),
		    claimed_at = COALESCE($5, claimed_at),
		    recipient_address = COALESCE($6, recipient_address),
		    recipient_phone = COALESCE($7, recipient_phone)
		WHERE gift_id = $1 AND status = $2
	`

	tag, err := r.db.Exec(ctx, query, giftID, expected, next,
		update.VerifiedAt, update.ClaimedAt, update.RecipientAddress, update.RecipientPhone)
	if err != nil {
		return false, fmt.Errorf("failed to update gift status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// IncrementAttemptCount bumps the verification attempt counter only when it
// still holds the expected value, so concurrent failed attempts each count
// exactly once. The status column is deliberately not part of the condition.
func (r *Repository) IncrementAttemptCount(ctx context.Context, giftID uuid.UUID, expectedCount int) (bool, error) {
	query := `
		UPDATE gifts
		SET attempt_count = attempt_count + 1
		WHERE gift_id = $1 AND attempt_count = $2
	`

	tag, err := r.db.Exec(ctx, query, giftID, expectedCount)
	if err != nil {
		return false, fmt.Errorf("failed to increment attempt count: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetClaimedOrderID records the created order against a claimed gift. The
// write is conditional on the column still being empty so the order id is
// assigned exactly once.
func (r *Repository) SetClaimedOrderID(ctx context.Context, giftID uuid.UUID, orderID int64) error {
	query := `
		UPDATE gifts
		SET claimed_order_id = $2
		WHERE gift_id = $1 AND status = 'claimed' AND claimed_order_id IS NULL
	`

	tag, err := r.db.Exec(ctx, query, giftID, orderID)
	if err != nil {
		return fmt.Errorf("failed to set claimed order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderIDAlreadySet
	}

	return nil
}

const listEntryColumns = `g.gift_id, g.sender_name, g.recipient_name, g.recipient_email,
	       g.quantity, g.status, g.created_at, g.expires_at,
	       p.product_id, p.product_name, p.price, p.sale_price,
	       (SELECT pi.image_url FROM product_images pi
	        WHERE pi.product_id = p.product_id AND pi.is_primary = true
	        LIMIT 1)`

func (r *Repository) scanListEntries(rows pgx.Rows) ([]GiftListEntry, error) {
	defer rows.Close()

	entries := make([]GiftListEntry, 0)
	now := time.Now()
	for rows.Next() {
		var e GiftListEntry
		var status Status
		var productImage *string
		e.Product = &catalog.ProductSummary{}
		err := rows.Scan(
			&e.GiftID, &e.SenderName, &e.RecipientName, &e.RecipientEmail,
			&e.Quantity, &status, &e.CreatedAt, &e.ExpiresAt,
			&e.Product.ProductID, &e.Product.ProductName, &e.Product.Price,
			&e.Product.SalePrice, &productImage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gift: %w", err)
		}
		if productImage != nil {
			e.Product.ImageURL = *productImage
		}
		g := Gift{Status: status, ExpiresAt: e.ExpiresAt}
		e.EffectiveStatus = g.EffectiveStatus(now)
		entries = append(entries, e)
	}

	return entries, nil
}

// GetSentGifts lists gifts created by a sender, newest first
func (r *Repository) GetSentGifts(ctx context.Context, senderID uuid.UUID) ([]GiftListEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM gifts g
		JOIN products p ON p.product_id = g.product_id
		WHERE g.sender_id = $1
		ORDER BY g.created_at DESC
	`, listEntryColumns)

	rows, err := r.db.Query(ctx, query, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sent gifts: %w", err)
	}

	return r.scanListEntries(rows)
}

// GetReceivedGifts lists gifts addressed to a recipient email, newest first
func (r *Repository) GetReceivedGifts(ctx context.Context, email string) ([]GiftListEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM gifts g
		JOIN products p ON p.product_id = g.product_id
		WHERE LOWER(g.recipient_email) = LOWER($1)
		ORDER BY g.created_at DESC
	`, listEntryColumns)

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get received gifts: %w", err)
	}

	return r.scanListEntries(rows)
}

// GetUnreconciledClaims lists claimed gifts still missing an order id whose
// claim happened before the cutoff, oldest first.
func (r *Repository) GetUnreconciledClaims(ctx context.Context, claimedBefore time.Time, limit int) ([]Gift, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM gifts
		WHERE status = 'claimed' AND claimed_order_id IS NULL AND claimed_at < $1
		ORDER BY claimed_at ASC
		LIMIT $2
	`, giftColumns)

	rows, err := r.db.Query(ctx, query, claimedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unreconciled claims: %w", err)
	}
	defer rows.Close()

	gifts := make([]Gift, 0)
	for rows.Next() {
		g, err := scanGift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gift: %w", err)
		}
		gifts = append(gifts, *g)
	}

	return gifts, nil
}

// RecordGiftEmail appends a notification audit row for a gift
func (r *Repository) RecordGiftEmail(ctx context.Context, giftID uuid.UUID, emailType, sentTo, status string) error {
	query := `
		INSERT INTO gift_emails (gift_id, email_type, sent_to, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err := r.db.Exec(ctx, query, giftID, emailType, sentTo, status)
	if err != nil {
		return fmt.Errorf("failed to record gift email: %w", err)
	}

	return nil
}
