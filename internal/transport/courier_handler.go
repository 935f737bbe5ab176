package transport

import (
	"net/http"

	"dms-be/internal/courier"
	"dms-be/internal/utils"
)

func (h *Handler) assignedOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	orders, err := h.Couriers.AssignedOrders(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) deliveryHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	period := courier.ParsePeriod(r.URL.Query().Get("period"))

	hist, err := h.Couriers.History(r.Context(), actor.ID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, hist)
}

func (h *Handler) listCouriers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Couriers.ListCouriers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) updateCourier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in courier.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	c, err := h.Couriers.UpdateCourier(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) courierMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.Couriers.Metrics(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, m)
}
