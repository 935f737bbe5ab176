package coupon

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockRepository) GetByCodeForUpdate(ctx context.Context, code string) (*Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]Coupon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Coupon), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, in CreateInput) (*Coupon, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Coupon, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) InsertUsage(ctx context.Context, u Usage) (*Usage, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Usage), args.Error(1)
}
