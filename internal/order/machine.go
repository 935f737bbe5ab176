package order

import (
	"context"
	"errors"

	"dms-be/internal/logger"
	"dms-be/internal/metrics"
	"dms-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Change is the outcome of a transition inside a transaction.
type Change struct {
	Order      *Order
	From       Status
	Changed    bool
	Dispatched bool
}

// Apply locks the order, checks that actor may request target and advances it.
func Apply(ctx context.Context, s Stores, actor Actor, orderID uuid.UUID, target Status, code string) (*Change, error) {
	o, err := s.Orders().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, o, target); err != nil {
		return nil, err
	}
	return Advance(ctx, s, o, target, code)
}

// Advance moves an order the caller has already locked. Stock is decremented
// before the status write, the first time the order reaches dispatch.
func Advance(ctx context.Context, s Stores, o *Order, target Status, code string) (*Change, error) {
	changed, err := Next(o.Status, target)
	if err != nil {
		return nil, err
	}
	ch := &Change{Order: o, From: o.Status}
	if !changed {
		return ch, nil
	}

	if target == StatusDelivered && !deliveryKeyMatches(o.DeliveryKey, code) {
		return nil, ErrInvalidDeliveryCode
	}

	if crossesDispatch(o.Status, target) {
		if err := s.Stock().CommitDecrement(ctx, o.StockItems()); err != nil {
			return nil, err
		}
		ch.Dispatched = true
	}

	updated, err := s.Orders().UpdateStatus(ctx, o.ID, target)
	if err != nil {
		return nil, err
	}
	o.Status = target
	o.UpdatedAt = updated
	ch.Changed = true
	return ch, nil
}

func authorizeTransition(actor Actor, o *Order, target Status) error {
	switch actor.Role {
	case utils.RoleAdmin:
		return nil
	case utils.RoleDelivery:
		if o.AssignedTo(actor.ID) && target != StatusCancelled {
			return nil
		}
	case utils.RoleCustomer:
		if o.UserID == actor.ID && target == StatusCancelled && o.Status == StatusPending {
			return nil
		}
	}
	return ErrForbidden
}

// Machine runs transitions in their own transaction and announces them once
// committed.
type Machine struct {
	tx       TxRunner
	announce *Announcer
}

func NewMachine(tx TxRunner, announce *Announcer) *Machine {
	return &Machine{tx: tx, announce: announce}
}

func (m *Machine) Transition(ctx context.Context, actor Actor, orderID uuid.UUID, target Status, code string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Transition"),
		zap.String("order_id", orderID.String()),
		zap.String("target", string(target)),
	)

	if _, ok := ParseStatus(string(target)); !ok {
		return nil, &ValidationError{Field: "status", Reason: "unknown status " + string(target)}
	}

	timer := metrics.StartTimer()
	var change *Change
	err := m.tx.WithinTx(ctx, func(s Stores) error {
		var err error
		change, err = Apply(ctx, s, actor, orderID, target, code)
		return err
	})
	timer.ObserveTx("transition")
	if err != nil {
		if errors.Is(err, ErrInvalidDeliveryCode) || errors.Is(err, ErrForbidden) {
			log.Warn("transition rejected", zap.Error(err))
		} else {
			log.Info("transition failed", zap.Error(err))
		}
		return nil, err
	}

	if !change.Changed {
		log.Debug("transition is a no-op")
		return change.Order, nil
	}

	metrics.OrderTransitions.WithLabelValues(string(target)).Inc()
	if change.Dispatched {
		metrics.DispatchDecrements.Inc()
	}
	log.Info("order status changed", zap.String("from", string(change.From)), zap.Bool("dispatched", change.Dispatched))

	m.announce.StatusChanged(ctx, change.Order)
	return change.Order, nil
}
