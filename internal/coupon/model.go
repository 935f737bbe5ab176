package coupon

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountFlat    DiscountType = "flat"
	DiscountPercent DiscountType = "percent"
)

func (t DiscountType) Valid() bool {
	return t == DiscountFlat || t == DiscountPercent
}

type Coupon struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MaxUses       int             `json:"maxUses"`
	RemainingUses int             `json:"remainingUses"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Usage records that a coupon was consumed by one order.
type Usage struct {
	ID       uuid.UUID `json:"id"`
	CouponID uuid.UUID `json:"couponId"`
	UserID   uuid.UUID `json:"userId"`
	OrderID  uuid.UUID `json:"orderId"`
	UsedAt   time.Time `json:"usedAt"`
}

// Quote is the authoritative discount for a subtotal.
type Quote struct {
	CouponID uuid.UUID       `json:"couponId"`
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	NewTotal decimal.Decimal `json:"newTotal"`
}

type CreateInput struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MaxUses       int             `json:"maxUses"`
}

// UpdateInput holds optional changes; nil fields are left untouched.
type UpdateInput struct {
	Code          *string          `json:"code"`
	Description   *string          `json:"description"`
	DiscountType  *DiscountType    `json:"discountType"`
	DiscountValue *decimal.Decimal `json:"discountValue"`
	MaxUses       *int             `json:"maxUses"`
	IsActive      *bool            `json:"isActive"`
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var hundred = decimal.NewFromInt(100)

// Discount returns the amount taken off subtotal, never more than subtotal.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case DiscountFlat:
		d = c.DiscountValue
	case DiscountPercent:
		d = subtotal.Mul(c.DiscountValue).Div(hundred)
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d.Round(2)
}

// Usable reports whether the coupon can still be redeemed.
func (c *Coupon) Usable() bool {
	return c.IsActive && c.RemainingUses > 0
}

func (c *Coupon) Quote(subtotal decimal.Decimal) *Quote {
	d := c.Discount(subtotal)
	return &Quote{CouponID: c.ID, Code: c.Code, Discount: d, NewTotal: subtotal.Sub(d)}
}
