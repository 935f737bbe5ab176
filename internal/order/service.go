package order

import (
	"context"
	"strings"

	"dms-be/internal/coupon"
	"dms-be/internal/inventory"
	"dms-be/internal/logger"
	"dms-be/internal/metrics"
	"dms-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	defaultPayment  = "cod"
)

var paymentMethods = map[string]bool{"cod": true, "online": true}

type Service interface {
	PlaceOrder(ctx context.Context, actor Actor, in PlaceOrderInput) (*Order, error)
	GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context, f ListFilter) (*Page, error)
	Transition(ctx context.Context, actor Actor, id uuid.UUID, target Status, code string) (*Order, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Order, error)
}

type service struct {
	repo        Repository
	tx          TxRunner
	machine     *Machine
	announce    *Announcer
	deliveryFee decimal.Decimal
}

func NewService(repo Repository, tx TxRunner, announce *Announcer, deliveryFee decimal.Decimal) Service {
	return &service{
		repo:        repo,
		tx:          tx,
		machine:     NewMachine(tx, announce),
		announce:    announce,
		deliveryFee: deliveryFee,
	}
}

func validatePlacement(actor Actor, in *PlaceOrderInput) error {
	if actor.ID == uuid.Nil {
		return &ValidationError{Field: "userId", Reason: "is required"}
	}
	if in.Address == nil || strings.TrimSpace(in.Address.Line1) == "" || strings.TrimSpace(in.Address.City) == "" {
		return &ValidationError{Field: "shippingAddress", Reason: "line1 and city are required"}
	}
	if len(in.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "must not be empty"}
	}
	for _, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return &ValidationError{Field: "items", Reason: "productId is required"}
		}
		if it.Quantity <= 0 {
			return &ValidationError{Field: "items", Reason: "quantity must be positive"}
		}
	}
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if in.PaymentMethod == "" {
		in.PaymentMethod = defaultPayment
	}
	if !paymentMethods[in.PaymentMethod] {
		return &ValidationError{Field: "paymentMethod", Reason: "unsupported payment method"}
	}
	return nil
}

// PlaceOrder validates stock and coupon, then creates the order, records the
// coupon use and clears the cart in one transaction. The total is computed
// here from the locked prices.
func (s *service) PlaceOrder(ctx context.Context, actor Actor, in PlaceOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.String("user_id", actor.ID.String()),
		zap.Int("item_count", len(in.Items)),
	)

	if err := validatePlacement(actor, &in); err != nil {
		metrics.OrdersPlaced.WithLabelValues("invalid").Inc()
		return nil, err
	}
	items, err := inventory.Merge(in.Items)
	if err != nil {
		return nil, &ValidationError{Field: "items", Reason: err.Error()}
	}

	key, err := newDeliveryKey()
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:              uuid.New(),
		UserID:          actor.ID,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: *in.Address,
		DeliveryKey:     key,
		DeliverySlot:    strings.TrimSpace(in.DeliverySlot),
		DeliveryFee:     s.deliveryFee,
	}

	timer := metrics.StartTimer()
	err = s.tx.WithinTx(ctx, func(st Stores) error {
		stock, err := st.Stock().Reserve(ctx, items)
		if err != nil {
			return err
		}

		o.Items = make([]OrderItem, len(items))
		o.Subtotal = decimal.Zero
		for i, it := range items {
			snap := stock[i]
			o.Items[i] = OrderItem{ProductID: it.ProductID, Name: snap.Name, Quantity: it.Quantity, UnitPrice: snap.Price}
			o.Subtotal = o.Subtotal.Add(snap.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		var quote *coupon.Quote
		if code := coupon.NormalizeCode(in.CouponCode); code != "" {
			quote, err = st.Coupons().Validate(ctx, code, o.Subtotal)
			if err != nil {
				return err
			}
			o.Discount = quote.Discount
			o.CouponID = &quote.CouponID
		}
		o.Total = o.Subtotal.Sub(o.Discount).Add(o.DeliveryFee)

		if in.Total != nil && !in.Total.Equal(o.Total) {
			log.Warn("client total differs from computed total",
				zap.String("client_total", in.Total.String()),
				zap.String("computed_total", o.Total.String()))
		}

		if err := st.Orders().Create(ctx, o); err != nil {
			return err
		}
		if quote != nil {
			if err := st.Coupons().Redeem(ctx, quote.CouponID, actor.ID, o.ID); err != nil {
				return err
			}
		}
		return st.Carts().Clear(ctx, actor.ID)
	})
	timer.ObserveTx("place_order")
	if err != nil {
		metrics.OrdersPlaced.WithLabelValues("rejected").Inc()
		log.Info("order placement failed", zap.Error(err))
		return nil, err
	}

	metrics.OrdersPlaced.WithLabelValues("placed").Inc()
	log.Info("order placed", zap.String("order_id", o.ID.String()), zap.String("total", o.Total.String()))

	s.announce.Placed(ctx, o)
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role == utils.RoleAdmin, o.UserID == actor.ID:
		return o, nil
	case actor.Role == utils.RoleDelivery && o.AssignedTo(actor.ID):
		return CourierView(o), nil
	}
	return nil, ErrForbidden
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListOrders(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}

	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{
		Orders:     orders,
		Total:      total,
		Page:       f.Page,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

func (s *service) Transition(ctx context.Context, actor Actor, id uuid.UUID, target Status, code string) (*Order, error) {
	return s.machine.Transition(ctx, actor, id, target, code)
}

// SetPaymentStatus records the cash-on-delivery or paid flag. It does not
// touch the fulfilment status.
func (s *service) SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Order, error) {
	if _, ok := ParsePaymentStatus(string(status)); !ok {
		return nil, &ValidationError{Field: "paymentStatus", Reason: "unknown payment status " + string(status)}
	}

	var (
		o       *Order
		changed bool
	)
	err := s.tx.WithinTx(ctx, func(st Stores) error {
		var err error
		o, err = st.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o.PaymentStatus == status {
			return nil
		}
		o.UpdatedAt, err = st.Orders().UpdatePaymentStatus(ctx, id, status)
		if err != nil {
			return err
		}
		o.PaymentStatus = status
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.announce.PaymentChanged(ctx, o)
	}
	return o, nil
}
