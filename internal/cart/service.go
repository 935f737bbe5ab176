package cart

import (
	"context"
	"errors"

	"dms-be/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	c := &Cart{Items: items, Subtotal: decimal.Zero}
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	for _, it := range items {
		c.Subtotal = c.Subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return c, nil
}

// SetQuantity stores the absolute quantity; zero removes the line.
// Stock is checked at checkout, not here.
func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "SetQuantity"))

	switch {
	case quantity < 0:
		return nil, ErrInvalidQuantity
	case quantity == 0:
		if err := s.repo.Remove(ctx, userID, productID); err != nil && !errors.Is(err, ErrCartItemNotFound) {
			return nil, err
		}
	default:
		if err := s.repo.Upsert(ctx, userID, productID, quantity); err != nil {
			log.Warn("set cart quantity failed", zap.String("product_id", productID.String()), zap.Error(err))
			return nil, err
		}
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.repo.Remove(ctx, userID, productID)
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}
