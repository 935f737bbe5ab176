package inventory

import (
	"context"
	"slices"

	"dms-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Guard is the only writer of product stock. It must be built on a
// transaction-bound Repository so that locks are held until commit.
type Guard struct {
	repo Repository
}

func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// Reserve locks and validates every requested product without changing
// stock. The returned snapshots follow the order of first appearance in items.
// The first offending item in input order is named in the error.
func (g *Guard) Reserve(ctx context.Context, items []Item) ([]Stock, error) {
	merged, err := Merge(items)
	if err != nil {
		return nil, err
	}

	locked, err := g.lock(ctx, merged)
	if err != nil {
		return nil, err
	}

	out := make([]Stock, 0, len(merged))
	for _, it := range merged {
		s, ok := locked[it.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if s.OutOfStock || s.Stock < it.Quantity {
			return nil, &InsufficientStockError{
				ProductID: it.ProductID,
				Name:      s.Name,
				Requested: it.Quantity,
				Available: s.Stock,
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// CommitDecrement subtracts every item from stock. Any shortfall fails the
// call; the caller's transaction discards decrements already applied.
func (g *Guard) CommitDecrement(ctx context.Context, items []Item) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "inventory"), zap.String("method", "CommitDecrement"))

	merged, err := Merge(items)
	if err != nil {
		return err
	}
	// Same lock order as Reserve.
	slices.SortFunc(merged, func(a, b Item) int { return compareUUID(a.ProductID, b.ProductID) })

	locked, err := g.lock(ctx, merged)
	if err != nil {
		return err
	}

	for _, it := range merged {
		s, ok := locked[it.ProductID]
		if !ok {
			return &ProductNotFoundError{ProductID: it.ProductID}
		}
		if s.Stock < it.Quantity {
			log.Warn("dispatch short of stock",
				zap.String("product_id", it.ProductID.String()),
				zap.Int("requested", it.Quantity),
				zap.Int("available", s.Stock))
			return &InsufficientStockError{ProductID: it.ProductID, Name: s.Name, Requested: it.Quantity, Available: s.Stock}
		}

		ok, err := g.repo.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return &InsufficientStockError{ProductID: it.ProductID, Name: s.Name, Requested: it.Quantity, Available: s.Stock}
		}
	}
	return nil
}

func (g *Guard) lock(ctx context.Context, items []Item) (map[uuid.UUID]Stock, error) {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	rows, err := g.repo.LockStock(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]Stock, len(rows))
	for _, s := range rows {
		byID[s.ProductID] = s
	}
	return byID, nil
}

// Merge folds duplicate products together, keeping first-appearance order.
func Merge(items []Item) ([]Item, error) {
	idx := make(map[uuid.UUID]int, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := idx[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}

func compareUUID(a, b uuid.UUID) int {
	return slices.Compare(a[:], b[:])
}
