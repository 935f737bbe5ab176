package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dms-be/internal/coupon"
	"dms-be/internal/hub"
	"dms-be/internal/inventory"
	"dms-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) service() Service {
	return NewService(&memOrders{state: f.state}, f.tx, NewAnnouncer(f.pub, f.disp), decimal.RequireFromString("2.00"))
}

func (f *fixture) addCoupon(code string, flat string, remaining int) coupon.Coupon {
	c := coupon.Coupon{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  coupon.DiscountFlat,
		DiscountValue: decimal.RequireFromString(flat),
		MaxUses:       remaining,
		RemainingUses: remaining,
		IsActive:      true,
	}
	f.state.coupons[code] = c
	return c
}

func placement(items ...inventory.Item) PlaceOrderInput {
	return PlaceOrderInput{
		Address:       &Address{Line1: "12 Market St", City: "Springfield"},
		Items:         items,
		PaymentMethod: "COD",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	shopper := Actor{ID: uuid.New(), Role: utils.RoleCustomer}

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		milk := f.state.addProduct("Milk", "1.50", 4)
		eggs := f.state.addProduct("Eggs", "3.25", 1)

		in := placement(
			inventory.Item{ProductID: milk, Quantity: 1},
			inventory.Item{ProductID: eggs, Quantity: 1},
			inventory.Item{ProductID: milk, Quantity: 1},
		)
		wrong := dec("1.00")
		in.Total = &wrong

		o, err := f.service().PlaceOrder(ctx, shopper, in)
		require.NoError(t, err)

		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, PaymentPending, o.PaymentStatus)
		assert.Equal(t, "cod", o.PaymentMethod)
		assert.True(t, validKeyFormat(o.DeliveryKey))
		require.Len(t, o.Items, 2)
		assert.Equal(t, milk, o.Items[0].ProductID)
		assert.Equal(t, 2, o.Items[0].Quantity)
		assert.Equal(t, "Milk", o.Items[0].Name)
		assert.True(t, dec("6.25").Equal(o.Subtotal), o.Subtotal.String())
		assert.True(t, dec("8.25").Equal(o.Total), o.Total.String())

		stored, ok := f.state.orders[o.ID]
		require.True(t, ok)
		assert.Len(t, stored.Items, 2)
		assert.Equal(t, 4, f.state.stock[milk].Stock, "placement must not decrement")
		assert.Equal(t, []uuid.UUID{shopper.ID}, f.state.cleared)

		assert.ElementsMatch(t, []string{"user:" + shopper.ID.String(), "role:admin"}, f.pub.topics(hub.EventOrderPlaced))
		require.Equal(t, 1, f.disp.count())
		assert.Equal(t, "Order Placed", f.disp.sent[0].Title)
	})

	t.Run("WithCoupon", func(t *testing.T) {
		f := newFixture()
		milk := f.state.addProduct("Milk", "10.00", 4)
		c := f.addCoupon("SAVE10", "3.00", 2)

		in := placement(inventory.Item{ProductID: milk, Quantity: 1})
		in.CouponCode = "  save10 "

		o, err := f.service().PlaceOrder(ctx, shopper, in)
		require.NoError(t, err)
		assert.True(t, dec("3.00").Equal(o.Discount))
		assert.True(t, dec("9.00").Equal(o.Total), o.Total.String())
		require.NotNil(t, o.CouponID)
		assert.Equal(t, c.ID, *o.CouponID)

		assert.Equal(t, 1, f.state.coupons["SAVE10"].RemainingUses)
		require.Len(t, f.state.usages, 1)
		assert.Equal(t, o.ID, f.state.usages[0].OrderID)
	})

	t.Run("ExhaustedCoupon", func(t *testing.T) {
		f := newFixture()
		milk := f.state.addProduct("Milk", "10.00", 4)
		f.addCoupon("SAVE10", "3.00", 0)

		in := placement(inventory.Item{ProductID: milk, Quantity: 1})
		in.CouponCode = "SAVE10"

		_, err := f.service().PlaceOrder(ctx, shopper, in)
		assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
		assert.Empty(t, f.state.orders)
		assert.Empty(t, f.state.cleared)
		assert.Empty(t, f.pub.messages)
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		f := newFixture()
		milk := f.state.addProduct("Milk", "1.50", 4)
		eggs := f.state.addProduct("Eggs", "3.25", 1)

		_, err := f.service().PlaceOrder(ctx, shopper, placement(
			inventory.Item{ProductID: milk, Quantity: 1},
			inventory.Item{ProductID: eggs, Quantity: 2},
		))
		var se *inventory.InsufficientStockError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, eggs, se.ProductID)
		assert.Equal(t, "Eggs", se.Name)
		assert.Empty(t, f.state.orders)
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture()
		milk := f.state.addProduct("Milk", "1.50", 4)
		item := inventory.Item{ProductID: milk, Quantity: 1}

		cases := map[string]func(*PlaceOrderInput){
			"no address":     func(in *PlaceOrderInput) { in.Address = nil },
			"blank city":     func(in *PlaceOrderInput) { in.Address.City = " " },
			"no items":       func(in *PlaceOrderInput) { in.Items = nil },
			"zero quantity":  func(in *PlaceOrderInput) { in.Items[0].Quantity = 0 },
			"nil product":    func(in *PlaceOrderInput) { in.Items[0].ProductID = uuid.Nil },
			"unknown method": func(in *PlaceOrderInput) { in.PaymentMethod = "barter" },
		}
		for name, mutate := range cases {
			in := placement(item)
			mutate(&in)
			_, err := f.service().PlaceOrder(ctx, shopper, in)
			assert.ErrorIs(t, err, ErrValidation, name)
		}

		_, err := f.service().PlaceOrder(ctx, Actor{}, placement(item))
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, f.state.orders)
	})

	t.Run("LastCouponUseUnderContention", func(t *testing.T) {
		f := newFixture()
		milk := f.state.addProduct("Milk", "10.00", 10)
		f.addCoupon("SAVE10", "1.00", 1)
		svc := f.service()

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				in := placement(inventory.Item{ProductID: milk, Quantity: 1})
				in.CouponCode = "SAVE10"
				_, err := svc.PlaceOrder(ctx, shopper, in)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var ok, rejected int
		for err := range results {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, coupon.ErrInvalidCoupon):
				rejected++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, rejected)
		assert.Equal(t, 0, f.state.coupons["SAVE10"].RemainingUses)
		assert.Len(t, f.state.usages, 1)
		assert.Len(t, f.state.orders, 1)
	})
}

func TestService_GetOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	courierID := uuid.New()
	o, _ := f.seedOrder(StatusPacked, 5)
	stored := f.state.orders[o.ID]
	stored.DeliveryBoyID = &courierID
	f.state.orders[o.ID] = stored
	svc := f.service()

	t.Run("Owner", func(t *testing.T) {
		got, err := svc.GetOrder(ctx, Actor{ID: o.UserID, Role: utils.RoleCustomer}, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "4821", got.DeliveryKey)
	})

	t.Run("AssignedCourierWithoutKey", func(t *testing.T) {
		got, err := svc.GetOrder(ctx, Actor{ID: courierID, Role: utils.RoleDelivery}, o.ID)
		require.NoError(t, err)
		assert.Empty(t, got.DeliveryKey)
		assert.Equal(t, "4821", f.state.orders[o.ID].DeliveryKey)
	})

	t.Run("Stranger", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, Actor{ID: uuid.New(), Role: utils.RoleCustomer}, o.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, admin, uuid.New())
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_ListOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i := 0; i < 12; i++ {
		f.seedOrder(StatusPending, 1)
	}
	f.seedOrder(StatusDelivered, 1)

	page, err := f.service().ListOrders(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 13, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Orders, 10)

	delivered := StatusDelivered
	page, err = f.service().ListOrders(ctx, ListFilter{Page: 1, Limit: 500, Status: &delivered})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestService_SetPaymentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		o, _ := f.seedOrder(StatusOutForDelivery, 5)

		got, err := f.service().SetPaymentStatus(ctx, o.ID, PaymentPaid)
		require.NoError(t, err)
		assert.Equal(t, PaymentPaid, got.PaymentStatus)
		assert.Equal(t, StatusOutForDelivery, got.Status)
		assert.Len(t, f.pub.topics(hub.EventPaymentUpdate), 3)
		assert.Zero(t, f.disp.count())
	})

	t.Run("Unchanged", func(t *testing.T) {
		f := newFixture()
		o, _ := f.seedOrder(StatusPending, 5)

		_, err := f.service().SetPaymentStatus(ctx, o.ID, PaymentPending)
		require.NoError(t, err)
		assert.Empty(t, f.pub.messages)
	})

	t.Run("Invalid", func(t *testing.T) {
		f := newFixture()
		_, err := f.service().SetPaymentStatus(ctx, uuid.New(), PaymentStatus("refunded"))
		assert.ErrorIs(t, err, ErrValidation)
	})
}
