package courier

import (
	"context"
	"database/sql"

	"dms-be/internal/db"
	"dms-be/internal/order"
)

// Stores adds the courier repository to the order stores of one transaction.
type Stores interface {
	order.Stores
	Couriers() Repository
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(s Stores) error) error
}

type txStores struct {
	order.Stores
	q db.DBTX
}

func (s *txStores) Couriers() Repository {
	return NewRepository(s.q)
}

type sqlTxRunner struct {
	conn *sql.DB
}

func NewTxRunner(conn *sql.DB) TxRunner {
	return &sqlTxRunner{conn: conn}
}

func (r *sqlTxRunner) WithinTx(ctx context.Context, fn func(s Stores) error) error {
	return db.WithTx(ctx, r.conn, func(tx *sql.Tx) error {
		return fn(&txStores{Stores: order.NewStores(tx), q: tx})
	})
}
