package coupon

import (
	"context"
	"errors"

	"dms-be/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service covers coupon administration and the shopper's checkout preview.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (*Coupon, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Coupon, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Apply(ctx context.Context, code string, cartTotal decimal.Decimal) (*Quote, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Coupon, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "Create"))

	in.Code = NormalizeCode(in.Code)
	if in.Code == "" || !in.DiscountType.Valid() || in.DiscountValue.IsNegative() || in.MaxUses < 0 {
		return nil, ErrInvalidInput
	}
	if in.DiscountType == DiscountPercent && in.DiscountValue.GreaterThan(hundred) {
		return nil, ErrInvalidInput
	}

	c, err := s.repo.Create(ctx, in)
	if err != nil {
		log.Warn("create coupon failed", zap.String("code", in.Code), zap.Error(err))
		return nil, err
	}
	log.Info("coupon created", zap.String("coupon_id", c.ID.String()), zap.String("code", c.Code))
	return c, nil
}

func (s *service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Coupon, error) {
	if in.Code != nil {
		code := NormalizeCode(*in.Code)
		if code == "" {
			return nil, ErrInvalidInput
		}
		in.Code = &code
	}
	if in.DiscountType != nil && !in.DiscountType.Valid() {
		return nil, ErrInvalidInput
	}
	if in.DiscountValue != nil && in.DiscountValue.IsNegative() {
		return nil, ErrInvalidInput
	}
	if in.MaxUses != nil && *in.MaxUses < 0 {
		return nil, ErrInvalidInput
	}
	if in.DiscountType != nil || in.DiscountValue != nil {
		if err := s.checkPercent(ctx, id, in); err != nil {
			return nil, err
		}
	}
	return s.repo.Update(ctx, id, in)
}

// checkPercent bounds the discount the coupon will have after in is applied,
// reading whichever of type or value the update leaves unchanged.
func (s *service) checkPercent(ctx context.Context, id uuid.UUID, in UpdateInput) error {
	if in.DiscountType != nil && *in.DiscountType != DiscountPercent {
		return nil
	}
	if in.DiscountType == nil || in.DiscountValue == nil {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.DiscountType == nil {
			in.DiscountType = &current.DiscountType
		}
		if in.DiscountValue == nil {
			in.DiscountValue = &current.DiscountValue
		}
	}
	if *in.DiscountType == DiscountPercent && in.DiscountValue.GreaterThan(hundred) {
		return ErrInvalidInput
	}
	return nil
}

// Deactivate retires a coupon. Rows are kept because orders and usages reference them.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

// Apply previews the discount without consuming a use.
func (s *service) Apply(ctx context.Context, code string, cartTotal decimal.Decimal) (*Quote, error) {
	code = NormalizeCode(code)
	if code == "" || cartTotal.IsNegative() {
		return nil, ErrInvalidInput
	}

	c, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, ErrCouponNotFound) {
		return nil, ErrInvalidCoupon
	}
	if err != nil {
		return nil, err
	}
	if !c.Usable() {
		return nil, ErrInvalidCoupon
	}
	return c.Quote(cartTotal), nil
}
