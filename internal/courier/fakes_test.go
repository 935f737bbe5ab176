package courier

import (
	"context"
	"sync"
	"time"

	"dms-be/internal/hub"
	"dms-be/internal/notification"
	"dms-be/internal/order"

	"github.com/google/uuid"
)

type memState struct {
	couriers map[uuid.UUID]Courier
	orders   map[uuid.UUID]order.Order
}

func (s *memState) clone() *memState {
	c := &memState{couriers: map[uuid.UUID]Courier{}, orders: map[uuid.UUID]order.Order{}}
	for k, v := range s.couriers {
		c.couriers[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	return c
}

type memTx struct {
	mu    sync.Mutex
	state *memState
}

func (m *memTx) WithinTx(ctx context.Context, fn func(s Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state.clone()
	if err := fn(&memStores{state: m.state}); err != nil {
		*m.state = *snapshot
		return err
	}
	return nil
}

// memStores serves only what assignment touches; stock, coupons and carts
// are never reached on the way to processing.
type memStores struct {
	state *memState
}

func (s *memStores) Orders() order.Repository    { return &memOrders{state: s.state} }
func (s *memStores) Stock() order.StockGuard     { return nil }
func (s *memStores) Coupons() order.CouponLedger { return nil }
func (s *memStores) Carts() order.CartClearer    { return nil }
func (s *memStores) Couriers() Repository        { return &memCouriers{state: s.state} }

type memCouriers struct {
	state *memState
}

func (r *memCouriers) Lock(ctx context.Context, id uuid.UUID) (*Courier, error) {
	return r.GetByID(ctx, id)
}

func (r *memCouriers) GetByID(ctx context.Context, id uuid.UUID) (*Courier, error) {
	c, ok := r.state.couriers[id]
	if !ok {
		return nil, ErrCourierNotFound
	}
	return &c, nil
}

func (r *memCouriers) List(ctx context.Context) ([]Courier, error) {
	out := []Courier{}
	for _, c := range r.state.couriers {
		out = append(out, c)
	}
	return out, nil
}

func (r *memCouriers) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Courier, error) {
	c, ok := r.state.couriers[id]
	if !ok {
		return nil, ErrCourierNotFound
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	r.state.couriers[id] = c
	return &c, nil
}

func (r *memCouriers) CountActiveOrders(ctx context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, o := range r.state.orders {
		if o.AssignedTo(id) && !o.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

type memOrders struct {
	state *memState
}

func (r *memOrders) Create(ctx context.Context, o *order.Order) error {
	r.state.orders[o.ID] = *o
	return nil
}

func (r *memOrders) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &o, nil
}

func (r *memOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *memOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) (time.Time, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return time.Time{}, order.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	r.state.orders[id] = o
	return o.UpdatedAt, nil
}

func (r *memOrders) AssignCourier(ctx context.Context, id, courierID uuid.UUID) error {
	o, ok := r.state.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.DeliveryBoyID = &courierID
	r.state.orders[id] = o
	return nil
}

func (r *memOrders) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status order.PaymentStatus) (time.Time, error) {
	return time.Now(), nil
}

func (r *memOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return nil, nil
}

func (r *memOrders) List(ctx context.Context, f order.ListFilter) ([]order.Order, int, error) {
	return nil, 0, nil
}

func (r *memOrders) ListByCourier(ctx context.Context, courierID uuid.UUID) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range r.state.orders {
		if o.AssignedTo(courierID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOrders) ListDeliveredByCourier(ctx context.Context, courierID uuid.UUID, since time.Time) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range r.state.orders {
		if o.AssignedTo(courierID) && o.Status == order.StatusDelivered && !o.UpdatedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []hub.Message
}

func (p *recordingPublisher) Publish(topic string, ev hub.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, hub.Message{Topic: topic, Event: ev})
	return true
}

func (p *recordingPublisher) count(topic, event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if m.Topic == topic && m.Name == event {
			n++
		}
	}
	return n
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (d *recordingDispatcher) Notify(ctx context.Context, n notification.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

func (d *recordingDispatcher) byCategory(category string) []notification.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notification.Notification
	for _, n := range d.sent {
		if n.Category == category {
			out = append(out, n)
		}
	}
	return out
}
