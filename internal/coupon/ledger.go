package coupon

import (
	"context"
	"errors"

	"dms-be/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger validates and redeems coupons. Built on a transaction-bound
// Repository, Validate holds the coupon row lock until commit so concurrent
// placements against the last use serialize.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Validate locks the coupon and quotes the discount for subtotal.
func (l *Ledger) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Quote, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	c, err := l.repo.GetByCodeForUpdate(ctx, code)
	if errors.Is(err, ErrCouponNotFound) {
		return nil, ErrInvalidCoupon
	}
	if err != nil {
		return nil, err
	}
	if !c.Usable() {
		return nil, ErrInvalidCoupon
	}
	return c.Quote(subtotal), nil
}

// Redeem consumes one use and records it against orderID. It must run after
// the order row exists, in the same transaction.
func (l *Ledger) Redeem(ctx context.Context, couponID, userID, orderID uuid.UUID) error {
	ok, err := l.repo.ConsumeUse(ctx, couponID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCoupon
	}

	if _, err := l.repo.InsertUsage(ctx, Usage{CouponID: couponID, UserID: userID, OrderID: orderID}); err != nil {
		return err
	}

	logger.FromCtx(ctx).Debug("coupon redeemed",
		zap.String("coupon_id", couponID.String()),
		zap.String("order_id", orderID.String()))
	return nil
}
