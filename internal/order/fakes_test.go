package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"dms-be/internal/coupon"
	"dms-be/internal/hub"
	"dms-be/internal/inventory"
	"dms-be/internal/notification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memState is the whole store behind the in-memory fakes. memTx snapshots
// it before each transaction and restores it on error.
type memState struct {
	orders     map[uuid.UUID]Order
	stock      map[uuid.UUID]inventory.Stock
	coupons    map[string]coupon.Coupon
	usages     []coupon.Usage
	cleared    []uuid.UUID
	decrements map[uuid.UUID]int
}

func newMemState() *memState {
	return &memState{
		orders:     map[uuid.UUID]Order{},
		stock:      map[uuid.UUID]inventory.Stock{},
		coupons:    map[string]coupon.Coupon{},
		decrements: map[uuid.UUID]int{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.orders {
		v.Items = append([]OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.decrements {
		c.decrements[k] = v
	}
	c.usages = append(c.usages, s.usages...)
	c.cleared = append(c.cleared, s.cleared...)
	return c
}

func (s *memState) addProduct(name string, price string, stock int) uuid.UUID {
	id := uuid.New()
	s.stock[id] = inventory.Stock{ProductID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	return id
}

func (s *memState) addOrder(o Order) *Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
	if o.Items == nil {
		o.Items = []OrderItem{}
	}
	s.orders[o.ID] = o
	return &o
}

type memTx struct {
	mu    sync.Mutex
	state *memState
	fail  error
}

func (m *memTx) WithinTx(ctx context.Context, fn func(s Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	snapshot := m.state.clone()
	if err := fn(&memStores{state: m.state}); err != nil {
		*m.state = *snapshot
		return err
	}
	return nil
}

type memStores struct {
	state *memState
}

func (s *memStores) Orders() Repository    { return &memOrders{state: s.state} }
func (s *memStores) Stock() StockGuard     { return &memStock{state: s.state} }
func (s *memStores) Coupons() CouponLedger { return &memCoupons{state: s.state} }
func (s *memStores) Carts() CartClearer    { return &memCarts{state: s.state} }

type memOrders struct {
	state *memState
}

func (r *memOrders) Create(ctx context.Context, o *Order) error {
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	r.state.orders[o.ID] = cp
	return nil
}

func (r *memOrders) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o.Items = append([]OrderItem(nil), o.Items...)
	return &o, nil
}

func (r *memOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.GetByID(ctx, id)
}

func (r *memOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (time.Time, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return time.Time{}, ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	r.state.orders[id] = o
	return o.UpdatedAt, nil
}

func (r *memOrders) AssignCourier(ctx context.Context, id, courierID uuid.UUID) error {
	o, ok := r.state.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.DeliveryBoyID = &courierID
	r.state.orders[id] = o
	return nil
}

func (r *memOrders) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (time.Time, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return time.Time{}, ErrOrderNotFound
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now()
	r.state.orders[id] = o
	return o.UpdatedAt, nil
}

func (r *memOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return r.filter(func(o Order) bool { return o.UserID == userID }), nil
}

func (r *memOrders) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	all := r.filter(func(o Order) bool { return f.Status == nil || o.Status == *f.Status })
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r *memOrders) ListByCourier(ctx context.Context, courierID uuid.UUID) ([]Order, error) {
	return r.filter(func(o Order) bool { return o.AssignedTo(courierID) }), nil
}

func (r *memOrders) ListDeliveredByCourier(ctx context.Context, courierID uuid.UUID, since time.Time) ([]Order, error) {
	return r.filter(func(o Order) bool {
		return o.AssignedTo(courierID) && o.Status == StatusDelivered && !o.UpdatedAt.Before(since)
	}), nil
}

func (r *memOrders) filter(keep func(Order) bool) []Order {
	out := []Order{}
	for _, o := range r.state.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type memStock struct {
	state *memState
}

func (g *memStock) Reserve(ctx context.Context, items []inventory.Item) ([]inventory.Stock, error) {
	out := make([]inventory.Stock, 0, len(items))
	for _, it := range items {
		st, ok := g.state.stock[it.ProductID]
		if !ok {
			return nil, &inventory.ProductNotFoundError{ProductID: it.ProductID}
		}
		if st.OutOfStock || st.Stock < it.Quantity {
			return nil, &inventory.InsufficientStockError{ProductID: it.ProductID, Name: st.Name, Requested: it.Quantity, Available: st.Stock}
		}
		out = append(out, st)
	}
	return out, nil
}

func (g *memStock) CommitDecrement(ctx context.Context, items []inventory.Item) error {
	for _, it := range items {
		st, ok := g.state.stock[it.ProductID]
		if !ok {
			return &inventory.ProductNotFoundError{ProductID: it.ProductID}
		}
		if st.Stock < it.Quantity {
			return &inventory.InsufficientStockError{ProductID: it.ProductID, Name: st.Name, Requested: it.Quantity, Available: st.Stock}
		}
		st.Stock -= it.Quantity
		st.OutOfStock = st.Stock == 0
		g.state.stock[it.ProductID] = st
		g.state.decrements[it.ProductID]++
	}
	return nil
}

type memCoupons struct {
	state *memState
}

func (l *memCoupons) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.Quote, error) {
	c, ok := l.state.coupons[coupon.NormalizeCode(code)]
	if !ok || !c.Usable() {
		return nil, coupon.ErrInvalidCoupon
	}
	return c.Quote(subtotal), nil
}

func (l *memCoupons) Redeem(ctx context.Context, couponID, userID, orderID uuid.UUID) error {
	for code, c := range l.state.coupons {
		if c.ID != couponID {
			continue
		}
		if !c.Usable() {
			return coupon.ErrInvalidCoupon
		}
		for _, u := range l.state.usages {
			if u.OrderID == orderID {
				return coupon.ErrAlreadyRedeemed
			}
		}
		c.RemainingUses--
		l.state.coupons[code] = c
		l.state.usages = append(l.state.usages, coupon.Usage{ID: uuid.New(), CouponID: couponID, UserID: userID, OrderID: orderID})
		return nil
	}
	return coupon.ErrCouponNotFound
}

type memCarts struct {
	state *memState
}

func (c *memCarts) Clear(ctx context.Context, userID uuid.UUID) error {
	c.state.cleared = append(c.state.cleared, userID)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []hub.Message
	full     bool
}

func (p *fakePublisher) Publish(topic string, ev hub.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.full {
		return false
	}
	p.messages = append(p.messages, hub.Message{Topic: topic, Event: ev})
	return true
}

func (p *fakePublisher) topics(event string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.messages {
		if m.Name == event {
			out = append(out, m.Topic)
		}
	}
	return out
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (d *fakeDispatcher) Notify(ctx context.Context, n notification.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

var errProviderDown = errors.New("push provider down")
