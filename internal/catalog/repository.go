package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for catalog lookups
type RepositoryInterface interface {
	GetProduct(ctx context.Context, productID int64) (*ProductSummary, error)
}

// Repository reads product display data from the store catalog tables
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new catalog repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetProduct returns the display summary for a product. The primary image
// is preferred; any image is used as a fallback.
func (r *Repository) GetProduct(ctx context.Context, productID int64) (*ProductSummary, error) {
	p := &ProductSummary{}
	err := r.db.QueryRow(ctx, `
		SELECT p.product_id, p.product_name, p.price, p.sale_price,
			COALESCE(
				(SELECT pi.image_url FROM product_images pi
				 WHERE pi.product_id = p.product_id
				 ORDER BY pi.is_primary DESC, pi.image_id ASC
				 LIMIT 1),
				''
			)
		FROM products p
		WHERE p.product_id = $1`, productID,
	).Scan(&p.ProductID, &p.ProductName, &p.Price, &p.SalePrice, &p.ImageURL)
	if err != nil {
		return nil, err
	}
	return p, nil
}
