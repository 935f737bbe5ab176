package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID  uuid.UUID       `json:"productId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	OutOfStock bool            `json:"outOfStock"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type Cart struct {
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}
