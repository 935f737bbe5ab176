package cart

import "errors"

var (
	ErrInvalidQuantity   = errors.New("invalid cart quantity")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrFailedGetCartRows = errors.New("failed to get cart rows")
	ErrFailedUpdateCart  = errors.New("failed to update cart item")
	ErrFailedRemoveCart  = errors.New("failed to remove cart item")
	ErrFailedClearCart   = errors.New("failed to clear cart")

	pgForeignKeyViolation = "23503"
)
