package cart

import (
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// SlotName is the fixed key the cart is persisted under inside a session scope.
const SlotName = "cartItems"

var validate = validator.New()

// LineItem is one product in the cart with its requested quantity. Title, price and
// image are a snapshot taken when the product was first added.
type LineItem struct {
	ID       int     `json:"id" validate:"gt=0"`
	Title    string  `json:"title"`
	Price    float64 `json:"price" validate:"gte=0"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

// Subtotal returns price * quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func snapshot(p catalog.Product) LineItem {
	return LineItem{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	}
}
