package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dms-be/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository interface {
	// Create inserts the order row and its items. Callers run it inside a
	// transaction so both persist or neither does.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetForUpdate locks the order row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (time.Time, error)
	AssignCourier(ctx context.Context, id, courierID uuid.UUID) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (time.Time, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	ListByCourier(ctx context.Context, courierID uuid.UUID) ([]Order, error)
	// ListDeliveredByCourier returns delivered orders updated at or after since.
	// A zero since means no lower bound.
	ListDeliveredByCourier(ctx context.Context, courierID uuid.UUID, since time.Time) ([]Order, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const orderColumns = `id, user_id, status, payment_status, payment_method, subtotal, discount, delivery_fee, total,
	coupon_id, shipping_address, delivery_boy_id, delivery_key, delivery_slot, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*Order, error) {
	var (
		o        Order
		couponID uuid.NullUUID
		courier  uuid.NullUUID
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.Subtotal, &o.Discount, &o.DeliveryFee, &o.Total,
		&couponID, &o.ShippingAddress, &courier, &o.DeliveryKey, &o.DeliverySlot, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if couponID.Valid {
		o.CouponID = &couponID.UUID
	}
	if courier.Valid {
		o.DeliveryBoyID = &courier.UUID
	}
	o.Items = []OrderItem{}
	return &o, nil
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (id, user_id, status, payment_status, payment_method, subtotal, discount,
			delivery_fee, total, coupon_id, shipping_address, delivery_key, delivery_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod, o.Subtotal, o.Discount,
		o.DeliveryFee, o.Total, o.CouponID, o.ShippingAddress, o.DeliveryKey, o.DeliverySlot,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := r.db.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			o.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) getOne(ctx context.Context, query string, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	orders := []Order{*o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (time.Time, error) {
	var updated time.Time
	err := r.db.QueryRowContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		id, status).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrOrderNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("update order status: %w", err)
	}
	return updated, nil
}

func (r *repository) AssignCourier(ctx context.Context, id, courierID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET delivery_boy_id = $2, updated_at = NOW() WHERE id = $1`, id, courierID)
	if err != nil {
		return fmt.Errorf("assign courier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (time.Time, error) {
	var updated time.Time
	err := r.db.QueryRowContext(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		id, status).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrOrderNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("update payment status: %w", err)
	}
	return updated, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1::text IS NULL OR status = $1)`, status,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	orders, err := r.list(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, status, f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) ListByCourier(ctx context.Context, courierID uuid.UUID) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE delivery_boy_id = $1 ORDER BY created_at DESC`, courierID)
}

func (r *repository) ListDeliveredByCourier(ctx context.Context, courierID uuid.UUID, since time.Time) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE delivery_boy_id = $1 AND status = 'delivered' AND updated_at >= $2
		ORDER BY updated_at DESC`, courierID, since)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of every order with one query.
func (r *repository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		index[o.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}
