package transport

import (
	"errors"
	"net/http"

	"dms-be/internal/cart"
	"dms-be/internal/coupon"
	"dms-be/internal/courier"
	"dms-be/internal/inventory"
	"dms-be/internal/logger"
	"dms-be/internal/order"
	"dms-be/internal/utils"

	"go.uber.org/zap"
)

var statusByError = []struct {
	err  error
	code int
}{
	{errBadID, http.StatusBadRequest},
	{order.ErrValidation, http.StatusBadRequest},
	{inventory.ErrInvalidQuantity, http.StatusBadRequest},
	{cart.ErrInvalidQuantity, http.StatusBadRequest},
	{coupon.ErrInvalidInput, http.StatusBadRequest},
	{order.ErrInvalidTransition, http.StatusUnprocessableEntity},
	{order.ErrInvalidDeliveryCode, http.StatusUnprocessableEntity},
	{order.ErrForbidden, http.StatusForbidden},
	{order.ErrOrderNotFound, http.StatusNotFound},
	{inventory.ErrProductNotFound, http.StatusNotFound},
	{cart.ErrProductNotFound, http.StatusNotFound},
	{cart.ErrCartItemNotFound, http.StatusNotFound},
	{courier.ErrCourierNotFound, http.StatusNotFound},
	{coupon.ErrCouponNotFound, http.StatusNotFound},
	{inventory.ErrInsufficientStock, http.StatusConflict},
	{coupon.ErrInvalidCoupon, http.StatusConflict},
	{coupon.ErrCodeTaken, http.StatusConflict},
	{coupon.ErrAlreadyRedeemed, http.StatusConflict},
	{courier.ErrCourierBusy, http.StatusConflict},
	{courier.ErrCourierInactive, http.StatusConflict},
	{courier.ErrNotAssignable, http.StatusConflict},
}

// writeError maps domain errors to a status code. Unknown errors are logged
// and hidden behind a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			utils.WriteJSONError(w, err.Error(), e.code)
			return
		}
	}
	logger.FromCtx(r.Context()).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
}
