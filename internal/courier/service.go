package courier

import (
	"context"
	"time"

	"dms-be/internal/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const averageDeliveryMinutes = 30

var payoutPerDelivery = decimal.NewFromInt(50)

type Service interface {
	ListCouriers(ctx context.Context) ([]Courier, error)
	UpdateCourier(ctx context.Context, id uuid.UUID, in UpdateInput) (*Courier, error)
	AssignedOrders(ctx context.Context, courierID uuid.UUID) ([]order.Order, error)
	History(ctx context.Context, courierID uuid.UUID, period Period) (*History, error)
	Metrics(ctx context.Context, courierID uuid.UUID) (*Metrics, error)
}

type service struct {
	repo   Repository
	orders order.Repository
	now    func() time.Time
}

func NewService(repo Repository, orders order.Repository) Service {
	return &service{repo: repo, orders: orders, now: time.Now}
}

func (s *service) ListCouriers(ctx context.Context) ([]Courier, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateCourier(ctx context.Context, id uuid.UUID, in UpdateInput) (*Courier, error) {
	return s.repo.Update(ctx, id, in)
}

// AssignedOrders lists every order ever given to the courier, newest first.
func (s *service) AssignedOrders(ctx context.Context, courierID uuid.UUID) ([]order.Order, error) {
	orders, err := s.orders.ListByCourier(ctx, courierID)
	if err != nil {
		return nil, err
	}
	return order.CourierViews(orders), nil
}

func (s *service) History(ctx context.Context, courierID uuid.UUID, period Period) (*History, error) {
	orders, err := s.orders.ListDeliveredByCourier(ctx, courierID, period.Since(s.now()))
	if err != nil {
		return nil, err
	}

	h := &History{Orders: order.CourierViews(orders), Stats: HistoryStats{TotalOrders: len(orders), TotalEarnings: decimal.Zero}}
	for _, o := range orders {
		h.Stats.TotalEarnings = h.Stats.TotalEarnings.Add(o.Total)
	}
	h.Stats.TotalEarnings = h.Stats.TotalEarnings.Round(0)
	if len(orders) > 0 {
		h.Stats.AverageDeliveryTime = averageDeliveryMinutes
	}
	return h, nil
}

// Metrics summarises a courier's delivered orders for the admin console.
func (s *service) Metrics(ctx context.Context, courierID uuid.UUID) (*Metrics, error) {
	if _, err := s.repo.GetByID(ctx, courierID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListDeliveredByCourier(ctx, courierID, time.Time{})
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		CourierID:       courierID,
		DeliveredOrders: len(orders),
		Payout:          payoutPerDelivery.Mul(decimal.NewFromInt(int64(len(orders)))),
		Locations:       make([]DropLocation, 0, len(orders)),
	}
	for _, o := range orders {
		m.Locations = append(m.Locations, DropLocation{OrderID: o.ID, ShippingAddress: o.ShippingAddress})
	}
	return m, nil
}
