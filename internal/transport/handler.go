package transport

import (
	"context"
	"net/http"

	"dms-be/internal/cart"
	"dms-be/internal/coupon"
	"dms-be/internal/courier"
	"dms-be/internal/hub"
	"dms-be/internal/middleware"
	"dms-be/internal/order"
	"dms-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Assigner is the courier assignment surface of courier.Coordinator.
type Assigner interface {
	BulkAssign(ctx context.Context, orderIDs []uuid.UUID, courierID uuid.UUID) (*courier.AssignResult, error)
	AssignOne(ctx context.Context, orderID, courierID uuid.UUID) (*order.Order, error)
}

// Connector hands out hub subscriptions to websocket connections.
type Connector interface {
	Connect() *hub.Subscription
}

type Handler struct {
	Orders   order.Service
	Assign   Assigner
	Couriers courier.Service
	Coupons  coupon.Service
	Carts    cart.Service
	Hub      Connector
	// Publisher carries courier location pushes; it may fan out across instances.
	Publisher hub.Publisher
}

// Register mounts every API route on r. Authentication must already have run.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ws", h.serveWS)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(utils.RoleCustomer, utils.RoleAdmin))
			r.Post("/orders", h.placeOrder)
			r.Post("/coupons/apply", h.applyCoupon)

			r.Get("/cart", h.getCart)
			r.Put("/cart/items", h.setCartItem)
			r.Delete("/cart/items/{productID}", h.removeCartItem)
			r.Delete("/cart", h.clearCart)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole())
			r.Get("/orders", h.listMyOrders)
			r.Get("/orders/{id}", h.getOrder)
			r.Put("/orders/{id}/status", h.transitionOrder)
		})

		r.Route("/delivery", func(r chi.Router) {
			r.Use(middleware.RequireRole(utils.RoleDelivery))
			r.Get("/orders", h.assignedOrders)
			r.Get("/orders/history", h.deliveryHistory)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(utils.RoleAdmin))
			r.Get("/orders", h.listOrders)
			r.Post("/orders/assign", h.bulkAssign)
			r.Put("/orders/{id}/assign", h.assignOne)
			r.Put("/orders/{id}/payment", h.setPaymentStatus)

			r.Get("/couriers", h.listCouriers)
			r.Put("/couriers/{id}", h.updateCourier)
			r.Get("/couriers/{id}/metrics", h.courierMetrics)

			r.Get("/coupons", h.listCoupons)
			r.Post("/coupons", h.createCoupon)
			r.Get("/coupons/{id}", h.getCoupon)
			r.Put("/coupons/{id}", h.updateCoupon)
			r.Delete("/coupons/{id}", h.deactivateCoupon)
		})
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	utils.WriteJSONError(w, msg, http.StatusBadRequest)
}
