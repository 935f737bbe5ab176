package courier

import (
	"time"

	"dms-be/internal/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Courier is a user with the delivery role.
type Courier struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phoneNumber"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phoneNumber"`
	IsActive *bool   `json:"isActive"`
}

type AssignResult struct {
	UpdatedCount int           `json:"updatedCount"`
	Orders       []order.Order `json:"orders"`
}

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod falls back to a week for anything unrecognised.
func ParsePeriod(s string) Period {
	switch p := Period(s); p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return p
	}
	return PeriodWeek
}

// Since returns the lower bound of the period ending at now.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodAll:
		return time.Time{}
	}
	return now.AddDate(0, 0, -7)
}

type HistoryStats struct {
	TotalOrders   int             `json:"totalOrders"`
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	// AverageDeliveryTime is in minutes.
	AverageDeliveryTime int `json:"averageDeliveryTime"`
}

type History struct {
	Orders []order.Order `json:"orders"`
	Stats  HistoryStats  `json:"stats"`
}

type DropLocation struct {
	OrderID         uuid.UUID     `json:"orderId"`
	ShippingAddress order.Address `json:"shippingAddress"`
}

type Metrics struct {
	CourierID       uuid.UUID       `json:"courierId"`
	DeliveredOrders int             `json:"totalOrders"`
	Payout          decimal.Decimal `json:"payout"`
	Locations       []DropLocation  `json:"locations"`
}
