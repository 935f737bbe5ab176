package transport

import (
	"context"

	"dms-be/internal/cart"
	"dms-be/internal/coupon"
	"dms-be/internal/courier"
	"dms-be/internal/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, actor order.Actor, in order.PlaceOrderInput) (*order.Order, error) {
	args := m.Called(ctx, actor, in)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, actor order.Actor, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, actor, id)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, f order.ListFilter) (*order.Page, error) {
	args := m.Called(ctx, f)
	if p := args.Get(0); p != nil {
		return p.(*order.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) Transition(ctx context.Context, actor order.Actor, id uuid.UUID, target order.Status, code string) (*order.Order, error) {
	args := m.Called(ctx, actor, id, target, code)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) SetPaymentStatus(ctx context.Context, id uuid.UUID, status order.PaymentStatus) (*order.Order, error) {
	args := m.Called(ctx, id, status)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockAssigner struct {
	mock.Mock
}

func (m *MockAssigner) BulkAssign(ctx context.Context, orderIDs []uuid.UUID, courierID uuid.UUID) (*courier.AssignResult, error) {
	args := m.Called(ctx, orderIDs, courierID)
	if r := args.Get(0); r != nil {
		return r.(*courier.AssignResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAssigner) AssignOne(ctx context.Context, orderID, courierID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID, courierID)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCourierService struct {
	mock.Mock
}

func (m *MockCourierService) ListCouriers(ctx context.Context) ([]courier.Courier, error) {
	args := m.Called(ctx)
	return args.Get(0).([]courier.Courier), args.Error(1)
}

func (m *MockCourierService) UpdateCourier(ctx context.Context, id uuid.UUID, in courier.UpdateInput) (*courier.Courier, error) {
	args := m.Called(ctx, id, in)
	if c := args.Get(0); c != nil {
		return c.(*courier.Courier), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCourierService) AssignedOrders(ctx context.Context, courierID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, courierID)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockCourierService) History(ctx context.Context, courierID uuid.UUID, period courier.Period) (*courier.History, error) {
	args := m.Called(ctx, courierID, period)
	if h := args.Get(0); h != nil {
		return h.(*courier.History), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCourierService) Metrics(ctx context.Context, courierID uuid.UUID) (*courier.Metrics, error) {
	args := m.Called(ctx, courierID)
	if c := args.Get(0); c != nil {
		return c.(*courier.Metrics), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Create(ctx context.Context, in coupon.CreateInput) (*coupon.Coupon, error) {
	args := m.Called(ctx, in)
	if c := args.Get(0); c != nil {
		return c.(*coupon.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCouponService) List(ctx context.Context) ([]coupon.Coupon, error) {
	args := m.Called(ctx)
	return args.Get(0).([]coupon.Coupon), args.Error(1)
}

func (m *MockCouponService) Get(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*coupon.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCouponService) Update(ctx context.Context, id uuid.UUID, in coupon.UpdateInput) (*coupon.Coupon, error) {
	args := m.Called(ctx, id, in)
	if c := args.Get(0); c != nil {
		return c.(*coupon.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCouponService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCouponService) Apply(ctx context.Context, code string, cartTotal decimal.Decimal) (*coupon.Quote, error) {
	args := m.Called(ctx, code, cartTotal)
	if q := args.Get(0); q != nil {
		return q.(*coupon.Quote), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if c := args.Get(0); c != nil {
		return c.(*cart.Cart), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Cart, error) {
	args := m.Called(ctx, userID, productID, quantity)
	if c := args.Get(0); c != nil {
		return c.(*cart.Cart), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}
