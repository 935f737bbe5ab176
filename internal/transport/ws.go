package transport

import (
	"context"
	"net/http"
	"strings"
	"time"

	"dms-be/internal/hub"
	"dms-be/internal/logger"
	"dms-be/internal/order"
	"dms-be/internal/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

// Origins are enforced by the CORS layer and the token, not here.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientFrame is what a connection sends. Type is join, leave or location.
type clientFrame struct {
	Type      string   `json:"type"`
	Topic     string   `json:"topic,omitempty"`
	OrderID   string   `json:"orderId,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type serverError struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.FromCtx(r.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The request context ends with the handler; the connection outlives it.
	ctx := logger.WithActor(context.WithoutCancel(r.Context()), actor.ID.String())
	sub := h.Hub.Connect()

	errs := make(chan serverError, 8)
	go h.writePump(ctx, conn, sub, errs)
	h.readPump(ctx, conn, sub, actor, errs)
}

// readPump owns the read side. It returns when the client goes away and
// releases every topic the connection joined.
func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, sub *hub.Subscription, actor order.Actor, errs chan<- serverError) {
	defer func() {
		sub.Close()
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f clientFrame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.FromCtx(ctx).Debug("websocket closed", zap.Error(err))
			}
			return
		}
		if err := h.handleFrame(ctx, sub, actor, f); err != nil {
			select {
			case errs <- serverError{Event: "error", Error: err.Error()}:
			default:
			}
		}
	}
}

func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, sub *hub.Subscription, errs <-chan serverError) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The read side closed the subscription.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case e := <-errs:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, sub *hub.Subscription, actor order.Actor, f clientFrame) error {
	switch f.Type {
	case "join":
		if err := h.authorizeTopic(ctx, actor, f.Topic); err != nil {
			return err
		}
		sub.Join(f.Topic)
		return nil
	case "leave":
		sub.Leave(f.Topic)
		return nil
	case "location":
		return h.pushLocation(ctx, actor, f)
	}
	return &order.ValidationError{Field: "type", Reason: "unknown frame type " + f.Type}
}

// authorizeTopic lets a connection into its own user and role topics, and
// into the topic of an order it may read. Admins may join anything.
func (h *Handler) authorizeTopic(ctx context.Context, actor order.Actor, topic string) error {
	if actor.Role == utils.RoleAdmin {
		return nil
	}
	family, key, ok := strings.Cut(topic, ":")
	if !ok {
		return &order.ValidationError{Field: "topic", Reason: "malformed topic " + topic}
	}
	switch family {
	case "user":
		if key == actor.ID.String() {
			return nil
		}
	case "role":
		if key == actor.Role {
			return nil
		}
	case "order":
		id, err := uuid.Parse(key)
		if err != nil {
			return errBadID
		}
		_, err = h.Orders.GetOrder(ctx, actor, id)
		return err
	}
	return order.ErrForbidden
}

// pushLocation relays a courier's position to the order's viewers. It is
// ephemeral and never stored.
func (h *Handler) pushLocation(ctx context.Context, actor order.Actor, f clientFrame) error {
	if actor.Role != utils.RoleDelivery {
		return order.ErrForbidden
	}
	if f.Latitude == nil || f.Longitude == nil {
		return &order.ValidationError{Field: "location", Reason: "latitude and longitude are required"}
	}
	id, err := uuid.Parse(f.OrderID)
	if err != nil {
		return errBadID
	}
	o, err := h.Orders.GetOrder(ctx, actor, id)
	if err != nil {
		return err
	}

	h.Publisher.Publish(hub.OrderTopic(o.ID), hub.Event{
		Name:    hub.EventOrderLocation,
		OrderID: o.ID.String(),
		Status:  string(o.Status),
		Extra: map[string]any{
			"latitude":  *f.Latitude,
			"longitude": *f.Longitude,
			"at":        time.Now().UTC().Format(time.RFC3339),
		},
	})
	return nil
}
