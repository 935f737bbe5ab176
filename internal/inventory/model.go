package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock is the locked view of a product row used for reservation and dispatch.
type Stock struct {
	ProductID  uuid.UUID
	Name       string
	Price      decimal.Decimal
	Stock      int
	OutOfStock bool
}

// Item is one requested product and quantity.
type Item struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}
