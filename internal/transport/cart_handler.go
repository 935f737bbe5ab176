package transport

import (
	"net/http"

	"dms-be/internal/utils"

	"github.com/google/uuid"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	c, err := h.Carts.GetCart(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

type cartItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

func (h *Handler) setCartItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var req cartItemRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ProductID == uuid.Nil {
		badRequest(w, "productId and quantity are required")
		return
	}

	c, err := h.Carts.SetQuantity(r.Context(), actor.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Carts.RemoveItem(r.Context(), actor.ID, productID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	if err := h.Carts.ClearCart(r.Context(), actor.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
