package orders

// CreateGiftOrderRequest carries everything needed to materialize the order
type CreateGiftOrderRequest struct {
	ProductID       int64
	Quantity        int
	ShippingAddress string
	ShippingPhone   string
	Notes           string
}
