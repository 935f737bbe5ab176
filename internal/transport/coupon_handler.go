package transport

import (
	"net/http"

	"dms-be/internal/coupon"
	"dms-be/internal/utils"

	"github.com/shopspring/decimal"
)

type applyCouponRequest struct {
	Code      string          `json:"code"`
	CartTotal decimal.Decimal `json:"cartTotal"`
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	q, err := h.Coupons.Apply(r.Context(), req.Code, req.CartTotal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	list, err := h.Coupons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var in coupon.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	c, err := h.Coupons.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Coupons.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in coupon.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	c, err := h.Coupons.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

// deactivateCoupon keeps the row; orders and usages still reference it.
func (h *Handler) deactivateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Coupons.Deactivate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
