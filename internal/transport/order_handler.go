package transport

import (
	"net/http"

	"dms-be/internal/order"
	"dms-be/internal/utils"

	"github.com/google/uuid"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var in order.PlaceOrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	o, err := h.Orders.PlaceOrder(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	orders, err := h.Orders.ListUserOrders(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.Orders.GetOrder(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

type transitionRequest struct {
	Status      order.Status `json:"status"`
	DeliveryKey string       `json:"deliveryKey"`
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req transitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	o, err := h.Orders.Transition(r.Context(), actor, id, req.Status, req.DeliveryKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if actor.Role == utils.RoleDelivery {
		o = order.CourierView(o)
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	f := order.ListFilter{
		Page:  utils.QueryInt(r, "page", 1),
		Limit: utils.QueryInt(r, "limit", 10),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := order.ParseStatus(raw)
		if !ok {
			badRequest(w, "unknown status "+raw)
			return
		}
		f.Status = &st
	}

	page, err := h.Orders.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

type paymentRequest struct {
	PaymentStatus order.PaymentStatus `json:"paymentStatus"`
}

func (h *Handler) setPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	o, err := h.Orders.SetPaymentStatus(r.Context(), id, req.PaymentStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

type bulkAssignRequest struct {
	OrderIDs      []uuid.UUID `json:"orderIds"`
	DeliveryBoyID uuid.UUID   `json:"deliveryBoyId"`
}

func (h *Handler) bulkAssign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	res, err := h.Assign.BulkAssign(r.Context(), req.OrderIDs, req.DeliveryBoyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) assignOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req bulkAssignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	o, err := h.Assign.AssignOne(r.Context(), id, req.DeliveryBoyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}
