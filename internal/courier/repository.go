package courier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dms-be/internal/db"

	"github.com/google/uuid"
)

type Repository interface {
	// Lock holds the courier row until the transaction ends. Every
	// assignment to the courier serializes on it.
	Lock(ctx context.Context, id uuid.UUID) (*Courier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Courier, error)
	List(ctx context.Context) ([]Courier, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Courier, error)
	// CountActiveOrders counts orders assigned to the courier that are
	// neither delivered nor cancelled.
	CountActiveOrders(ctx context.Context, id uuid.UUID) (int, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const courierColumns = `id, name, email, COALESCE(phone, ''), is_active, created_at`

func scanCourier(row interface{ Scan(...any) error }) (*Courier, error) {
	var c Courier
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan courier: %w", err)
	}
	return &c, nil
}

func (r *repository) Lock(ctx context.Context, id uuid.UUID) (*Courier, error) {
	return scanCourier(r.db.QueryRowContext(ctx,
		`SELECT `+courierColumns+` FROM users WHERE id = $1 AND role = 'delivery' FOR UPDATE`, id))
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Courier, error) {
	return scanCourier(r.db.QueryRowContext(ctx,
		`SELECT `+courierColumns+` FROM users WHERE id = $1 AND role = 'delivery'`, id))
}

func (r *repository) List(ctx context.Context) ([]Courier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+courierColumns+` FROM users WHERE role = 'delivery' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query couriers: %w", err)
	}
	defer rows.Close()

	out := []Courier{}
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Courier, error) {
	return scanCourier(r.db.QueryRowContext(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			is_active = COALESCE($5, is_active)
		WHERE id = $1 AND role = 'delivery'
		RETURNING `+courierColumns,
		id, in.Name, in.Email, in.Phone, in.IsActive))
}

func (r *repository) CountActiveOrders(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE delivery_boy_id = $1 AND status NOT IN ('delivered', 'cancelled')`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active orders: %w", err)
	}
	return n, nil
}
