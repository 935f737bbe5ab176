package courier

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"dms-be/internal/hub"
	"dms-be/internal/logger"
	"dms-be/internal/metrics"
	"dms-be/internal/notification"
	"dms-be/internal/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator is the only writer of an order's delivery partner.
type Coordinator struct {
	tx       TxRunner
	announce *order.Announcer
}

func NewCoordinator(tx TxRunner, announce *order.Announcer) *Coordinator {
	return &Coordinator{tx: tx, announce: announce}
}

// BulkAssign gives every order to courierID and moves it to processing. The
// courier must have no undelivered orders; otherwise nothing is assigned.
func (c *Coordinator) BulkAssign(ctx context.Context, orderIDs []uuid.UUID, courierID uuid.UUID) (*AssignResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "BulkAssign"),
		zap.String("courier_id", courierID.String()),
		zap.Int("order_count", len(orderIDs)),
	)

	ids, err := normalizeIDs(orderIDs, courierID)
	if err != nil {
		metrics.CourierAssignments.WithLabelValues("invalid").Inc()
		return nil, err
	}

	timer := metrics.StartTimer()
	var changes []*order.Change
	err = c.tx.WithinTx(ctx, func(s Stores) error {
		changes = changes[:0]

		courier, err := s.Couriers().Lock(ctx, courierID)
		if err != nil {
			return err
		}
		if !courier.IsActive {
			return ErrCourierInactive
		}
		active, err := s.Couriers().CountActiveOrders(ctx, courierID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrCourierBusy
		}

		// Lock in id order so concurrent batches sharing orders cannot deadlock.
		locked := slices.Clone(ids)
		slices.SortFunc(locked, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
		byID := make(map[uuid.UUID]*order.Change, len(locked))
		for _, id := range locked {
			o, err := s.Orders().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if o.Status != order.StatusPending && o.Status != order.StatusProcessing {
				return &NotAssignableError{OrderID: o.ID, Status: o.Status}
			}
			if err := s.Orders().AssignCourier(ctx, o.ID, courierID); err != nil {
				return err
			}
			o.DeliveryBoyID = &courierID

			ch, err := order.Advance(ctx, s, o, order.StatusProcessing, "")
			if err != nil {
				return err
			}
			byID[id] = ch
		}
		for _, id := range ids {
			changes = append(changes, byID[id])
		}
		return nil
	})
	timer.ObserveTx("bulk_assign")
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, ErrCourierBusy) {
			outcome = "busy"
		}
		metrics.CourierAssignments.WithLabelValues(outcome).Inc()
		log.Info("bulk assignment failed", zap.Error(err))
		return nil, err
	}

	res := &AssignResult{UpdatedCount: len(changes), Orders: make([]order.Order, 0, len(changes))}
	for _, ch := range changes {
		if ch.Changed {
			metrics.OrderTransitions.WithLabelValues(string(ch.Order.Status)).Inc()
		}
		c.announceAssignment(ctx, ch.Order, courierID)
		res.Orders = append(res.Orders, *ch.Order)
	}
	metrics.CourierAssignments.WithLabelValues("assigned").Add(float64(len(changes)))
	log.Info("orders assigned")
	return res, nil
}

// AssignOne is BulkAssign for a single order.
func (c *Coordinator) AssignOne(ctx context.Context, orderID, courierID uuid.UUID) (*order.Order, error) {
	res, err := c.BulkAssign(ctx, []uuid.UUID{orderID}, courierID)
	if err != nil {
		return nil, err
	}
	return &res.Orders[0], nil
}

func (c *Coordinator) announceAssignment(ctx context.Context, o *order.Order, courierID uuid.UUID) {
	c.announce.StatusChanged(ctx, o,
		order.WithExtra("deliveryBoyId", courierID.String()),
		order.WithMessage("Order Confirmed", "Your order has been confirmed and a delivery partner has been assigned."))

	c.announce.Publish(ctx, hub.Event{
		Name:    hub.EventAssignedOrder,
		OrderID: o.ID.String(),
		Status:  string(o.Status),
		Extra: map[string]any{
			"shippingAddress": o.ShippingAddress,
			"total":           o.Total.StringFixed(2),
		},
	}, hub.UserTopic(courierID))

	c.announce.Notify(ctx, notification.Notification{
		UserID:   courierID,
		Title:    "New Delivery Assigned",
		Body:     fmt.Sprintf("Order #%s has been assigned to you.", o.ID.String()[:8]),
		Data:     map[string]string{"orderId": o.ID.String(), "status": string(o.Status)},
		Category: notification.CategoryDelivery,
	})
}

func normalizeIDs(orderIDs []uuid.UUID, courierID uuid.UUID) ([]uuid.UUID, error) {
	if courierID == uuid.Nil {
		return nil, &order.ValidationError{Field: "deliveryBoyId", Reason: "is required"}
	}
	if len(orderIDs) == 0 {
		return nil, &order.ValidationError{Field: "orderIds", Reason: "must not be empty"}
	}
	seen := make(map[uuid.UUID]bool, len(orderIDs))
	out := make([]uuid.UUID, 0, len(orderIDs))
	for _, id := range orderIDs {
		if id == uuid.Nil {
			return nil, &order.ValidationError{Field: "orderIds", Reason: "contains an empty id"}
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
