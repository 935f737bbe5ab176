package order

import (
	"context"

	"dms-be/internal/hub"
	"dms-be/internal/logger"
	"dms-be/internal/metrics"
	"dms-be/internal/notification"
	"dms-be/internal/utils"

	"go.uber.org/zap"
)

// Announcer publishes committed order changes to the hub and asks the
// dispatcher to push them. Both are best effort: failures are logged and
// counted, never returned.
type Announcer struct {
	pub      hub.Publisher
	notifier notification.Dispatcher
}

func NewAnnouncer(pub hub.Publisher, notifier notification.Dispatcher) *Announcer {
	return &Announcer{pub: pub, notifier: notifier}
}

type announcement struct {
	extra map[string]any
	msg   *message
}

type AnnounceOption func(*announcement)

func WithExtra(key string, value any) AnnounceOption {
	return func(a *announcement) {
		if a.extra == nil {
			a.extra = make(map[string]any)
		}
		a.extra[key] = value
	}
}

// WithMessage replaces the status table entry for the shopper's push.
func WithMessage(title, body string) AnnounceOption {
	return func(a *announcement) {
		a.msg = &message{Title: title, Body: body}
	}
}

// Placed tells the shopper and the admins about a new order.
func (a *Announcer) Placed(ctx context.Context, o *Order) {
	ev := hub.Event{
		Name:    hub.EventOrderPlaced,
		OrderID: o.ID.String(),
		Status:  string(o.Status),
		Extra: map[string]any{
			"total":     o.Total.StringFixed(2),
			"itemCount": len(o.Items),
		},
	}
	a.publish(ctx, ev, hub.UserTopic(o.UserID), hub.RoleTopic(utils.RoleAdmin))

	msg := messageFor(StatusPending)
	a.Notify(ctx, notification.Notification{
		UserID:   o.UserID,
		Title:    msg.Title,
		Body:     msg.Body,
		Data:     map[string]string{"orderId": o.ID.String(), "status": string(o.Status)},
		Category: notification.CategoryOrderUpdates,
	})
}

// StatusChanged fans a status change out to the order's viewers, its owner
// and the admins, then pushes the status message to the owner.
func (a *Announcer) StatusChanged(ctx context.Context, o *Order, opts ...AnnounceOption) {
	var ann announcement
	for _, opt := range opts {
		opt(&ann)
	}

	ev := hub.Event{
		Name:    hub.EventStatusUpdate,
		OrderID: o.ID.String(),
		Status:  string(o.Status),
		Extra:   ann.extra,
	}
	a.publish(ctx, ev, hub.OrderTopic(o.ID), hub.UserTopic(o.UserID), hub.RoleTopic(utils.RoleAdmin))

	msg := messageFor(o.Status)
	if ann.msg != nil {
		msg = *ann.msg
	}
	a.Notify(ctx, notification.Notification{
		UserID:   o.UserID,
		Title:    msg.Title,
		Body:     msg.Body,
		Data:     map[string]string{"orderId": o.ID.String(), "status": string(o.Status)},
		Category: notification.CategoryOrderUpdates,
	})
}

// PaymentChanged is broadcast only.
func (a *Announcer) PaymentChanged(ctx context.Context, o *Order) {
	ev := hub.Event{
		Name:    hub.EventPaymentUpdate,
		OrderID: o.ID.String(),
		Status:  string(o.Status),
		Extra:   map[string]any{"paymentStatus": string(o.PaymentStatus)},
	}
	a.publish(ctx, ev, hub.OrderTopic(o.ID), hub.UserTopic(o.UserID), hub.RoleTopic(utils.RoleAdmin))
}

// Publish sends ev to topics without waiting for subscribers.
func (a *Announcer) Publish(ctx context.Context, ev hub.Event, topics ...string) {
	a.publish(ctx, ev, topics...)
}

func (a *Announcer) publish(ctx context.Context, ev hub.Event, topics ...string) {
	for _, topic := range topics {
		if !a.pub.Publish(topic, ev) {
			logger.FromCtx(ctx).Warn("broadcast dropped",
				zap.String("topic", topic),
				zap.String("event", ev.Name),
				zap.String("order_id", ev.OrderID))
		}
	}
}

// Notify hands n to the dispatcher, swallowing failures.
func (a *Announcer) Notify(ctx context.Context, n notification.Notification) {
	if err := a.notifier.Notify(ctx, n); err != nil {
		metrics.NotificationFailures.WithLabelValues(n.Category).Inc()
		logger.FromCtx(ctx).Warn("push notification failed",
			zap.String("user_id", n.UserID.String()),
			zap.String("category", n.Category),
			zap.Error(err))
	}
}
