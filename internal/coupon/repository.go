package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dms-be/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByCodeForUpdate(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, in CreateInput) (*Coupon, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Coupon, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	// ConsumeUse decrements remaining uses of an active coupon and reports
	// whether a use was available.
	ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error)
	InsertUsage(ctx context.Context, u Usage) (*Usage, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const couponColumns = `id, code, description, discount_type, discount_value, max_uses, remaining_uses, is_active, created_at, updated_at`

func scanCoupon(row interface{ Scan(...any) error }) (*Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue,
		&c.MaxUses, &c.RemainingUses, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
}

func (r *repository) GetByCodeForUpdate(ctx context.Context, code string) (*Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1 FOR UPDATE`, code))
}

func (r *repository) List(ctx context.Context) ([]Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var out []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, in CreateInput) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx, `
		INSERT INTO coupons (code, description, discount_type, discount_value, max_uses, remaining_uses, is_active)
		VALUES ($1, $2, $3, $4, $5, $5, TRUE)
		RETURNING `+couponColumns,
		in.Code, in.Description, in.DiscountType, in.DiscountValue, in.MaxUses))
	if isUniqueViolation(err) {
		return nil, ErrCodeTaken
	}
	return c, err
}

// Update applies the non-nil fields. A new max_uses keeps the number of uses
// already consumed, flooring remaining uses at zero.
func (r *repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx, `
		UPDATE coupons SET
			code = COALESCE($2, code),
			description = COALESCE($3, description),
			discount_type = COALESCE($4, discount_type),
			discount_value = COALESCE($5, discount_value),
			remaining_uses = CASE WHEN $6::int IS NULL THEN remaining_uses
				ELSE GREATEST(0, $6::int - (max_uses - remaining_uses)) END,
			max_uses = COALESCE($6::int, max_uses),
			is_active = COALESCE($7, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+couponColumns,
		id, in.Code, in.Description, in.DiscountType, in.DiscountValue, in.MaxUses, in.IsActive))
	if isUniqueViolation(err) {
		return nil, ErrCodeTaken
	}
	return c, err
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate coupon: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (r *repository) ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET remaining_uses = remaining_uses - 1, updated_at = NOW()
		WHERE id = $1 AND is_active AND remaining_uses > 0`, id)
	if err != nil {
		return false, fmt.Errorf("consume coupon use: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume coupon use: %w", err)
	}
	return n == 1, nil
}

func (r *repository) InsertUsage(ctx context.Context, u Usage) (*Usage, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO coupon_usages (coupon_id, user_id, order_id)
		VALUES ($1, $2, $3)
		RETURNING id, used_at`, u.CouponID, u.UserID, u.OrderID).Scan(&u.ID, &u.UsedAt)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyRedeemed
	}
	if err != nil {
		return nil, fmt.Errorf("insert coupon usage: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
