package catalog

// ProductSummary is the display projection of a catalog item. It is
// resolved at read time and never stored on gift records.
type ProductSummary struct {
	ProductID   int64    `json:"product_id"`
	ProductName string   `json:"product_name"`
	Price       float64  `json:"price"`
	SalePrice   *float64 `json:"sale_price,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// DisplayPrice returns the sale price when set, the list price otherwise
func (p *ProductSummary) DisplayPrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
