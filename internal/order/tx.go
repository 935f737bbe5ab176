package order

import (
	"context"
	"database/sql"

	"dms-be/internal/cart"
	"dms-be/internal/coupon"
	"dms-be/internal/db"
	"dms-be/internal/inventory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StockGuard interface {
	Reserve(ctx context.Context, items []inventory.Item) ([]inventory.Stock, error)
	CommitDecrement(ctx context.Context, items []inventory.Item) error
}

type CouponLedger interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.Quote, error)
	Redeem(ctx context.Context, couponID, userID, orderID uuid.UUID) error
}

type CartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Stores exposes the collaborators bound to one transaction.
type Stores interface {
	Orders() Repository
	Stock() StockGuard
	Coupons() CouponLedger
	Carts() CartClearer
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(s Stores) error) error
}

type txStores struct {
	q db.DBTX
}

// NewStores binds every store to q, typically a *sql.Tx.
func NewStores(q db.DBTX) Stores {
	return &txStores{q: q}
}

func (s *txStores) Orders() Repository {
	return NewRepository(s.q)
}

func (s *txStores) Stock() StockGuard {
	return inventory.NewGuard(inventory.NewRepository(s.q))
}

func (s *txStores) Coupons() CouponLedger {
	return coupon.NewLedger(coupon.NewRepository(s.q))
}

func (s *txStores) Carts() CartClearer {
	return cart.NewRepository(s.q)
}

type sqlTxRunner struct {
	conn *sql.DB
}

func NewTxRunner(conn *sql.DB) TxRunner {
	return &sqlTxRunner{conn: conn}
}

func (r *sqlTxRunner) WithinTx(ctx context.Context, fn func(s Stores) error) error {
	return db.WithTx(ctx, r.conn, func(tx *sql.Tx) error {
		return fn(NewStores(tx))
	})
}
