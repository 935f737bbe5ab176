package inventory

import (
	"context"
	"fmt"

	"dms-be/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository interface {
	// LockStock returns the requested product rows locked FOR UPDATE in id order.
	// Missing ids are simply absent from the result.
	LockStock(ctx context.Context, ids []uuid.UUID) ([]Stock, error)
	// DecrementStock subtracts qty if enough stock remains and reports whether
	// the row was updated.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

func (r *repository) LockStock(ctx context.Context, ids []uuid.UUID) ([]Stock, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price, stock, out_of_stock
		FROM products
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("lock stock: %w", err)
	}
	defer rows.Close()

	var out []Stock
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ProductID, &s.Name, &s.Price, &s.Stock, &s.OutOfStock); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1,
		    out_of_stock = (stock - $1 = 0),
		    updated_at = NOW()
		WHERE id = $2 AND stock >= $1`, qty, id)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return n == 1, nil
}
