package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for order persistence
type RepositoryInterface interface {
	CreateGiftOrder(ctx context.Context, req *CreateGiftOrderRequest) (int64, error)
}

// Repository writes orders to the store database
type Repository struct {
	db            *pgxpool.Pool
	paymentMethod string
}

// NewRepository creates a new orders repository. paymentMethod is recorded
// on every order row so gift orders stay distinguishable in reporting.
func NewRepository(db *pgxpool.Pool, paymentMethod string) *Repository {
	return &Repository{db: db, paymentMethod: paymentMethod}
}

// CreateGiftOrder inserts the order and its single item in one transaction.
// Gift orders are guest orders: no user id, zero total, payment recorded as
// already settled.
func (r *Repository) CreateGiftOrder(ctx context.Context, req *CreateGiftOrderRequest) (int64, error) {
	var orderID int64

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (user_id, total_amount, status, payment_method, payment_status, shipping_address, phone, notes)
			VALUES (NULL, 0, 'confirmed', $1, 'paid', $2, $3, $4)
			RETURNING order_id`,
			r.paymentMethod, req.ShippingAddress, req.ShippingPhone, req.Notes,
		).Scan(&orderID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, 0)`,
			orderID, req.ProductID, req.Quantity,
		)
		return err
	})
	if err != nil {
		return 0, err
	}

	return orderID, nil
}
