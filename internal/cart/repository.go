package cart

import (
	"context"
	"errors"
	"fmt"

	"dms-be/internal/db"
	"dms-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]CartItem, error)
	Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	// Clear empties the cart; an already empty cart is not an error.
	Clear(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

func (r *repository) List(ctx context.Context, userID uuid.UUID) ([]CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.product_id, p.name, p.price, c.quantity, p.out_of_stock, c.updated_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("query cart rows failed", zap.Error(err))
		return nil, ErrFailedGetCartRows
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.OutOfStock, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()`, userID, productID, quantity)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgForeignKeyViolation {
			return ErrProductNotFound
		}
		logger.FromCtx(ctx).Error("upsert cart item failed", zap.Error(err))
		return ErrFailedUpdateCart
	}
	return nil
}

func (r *repository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		logger.FromCtx(ctx).Error("remove cart item failed", zap.Error(err))
		return ErrFailedRemoveCart
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		logger.FromCtx(ctx).Error("clear cart failed", zap.Error(err))
		return ErrFailedClearCart
	}
	return nil
}
