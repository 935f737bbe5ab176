package order

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"dms-be/internal/inventory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusPacked         Status = "packed"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// StatusDispatched is the first status at which the order has left the
// warehouse. Reaching it triggers the one-time stock decrement.
const StatusDispatched = StatusOutForDelivery

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch p := PaymentStatus(s); p {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return p, true
	}
	return "", false
}

// Address is stored as JSONB.
type Address struct {
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2,omitempty"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	PostalCode string   `json:"postalCode"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// Value encodes as text; lib/pq would send []byte as bytea.
func (a Address) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	case nil:
		*a = Address{}
		return nil
	}
	return errors.New("unsupported address type")
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Status          Status          `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Total           decimal.Decimal `json:"total"`
	CouponID        *uuid.UUID      `json:"couponId,omitempty"`
	ShippingAddress Address         `json:"shippingAddress"`
	DeliveryBoyID   *uuid.UUID      `json:"deliveryBoyId"`
	DeliveryKey     string          `json:"deliveryKey,omitempty"`
	DeliverySlot    string          `json:"deliverySlot"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Items           []OrderItem     `json:"items"`
}

// StockItems returns the captured quantities for the inventory guard.
func (o *Order) StockItems() []inventory.Item {
	out := make([]inventory.Item, len(o.Items))
	for i, it := range o.Items {
		out[i] = inventory.Item{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// AssignedTo reports whether courierID is the order's delivery partner.
func (o *Order) AssignedTo(courierID uuid.UUID) bool {
	return o.DeliveryBoyID != nil && *o.DeliveryBoyID == courierID
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type PlaceOrderInput struct {
	Address       *Address         `json:"shippingAddress"`
	Items         []inventory.Item `json:"items"`
	PaymentMethod string           `json:"paymentMethod"`
	// Total is what the client displayed. It is compared, never stored.
	Total        *decimal.Decimal `json:"total,omitempty"`
	CouponCode   string           `json:"couponCode,omitempty"`
	DeliverySlot string           `json:"deliverySlot,omitempty"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

type ListFilter struct {
	Page   int
	Limit  int
	Status *Status
}

type Page struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"totalOrders"`
	Page       int     `json:"currentPage"`
	TotalPages int     `json:"totalPages"`
}
