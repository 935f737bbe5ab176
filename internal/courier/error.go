package courier

import (
	"errors"
	"fmt"

	"dms-be/internal/order"

	"github.com/google/uuid"
)

var (
	ErrCourierNotFound = errors.New("courier not found")
	ErrCourierBusy     = errors.New("courier already has undelivered orders")
	ErrCourierInactive = errors.New("courier is inactive")
	ErrNotAssignable   = errors.New("order cannot be assigned")
)

// NotAssignableError names the order that blocked a bulk assignment.
type NotAssignableError struct {
	OrderID uuid.UUID
	Status  order.Status
}

func (e *NotAssignableError) Error() string {
	return fmt.Sprintf("order %s is %s and cannot be assigned", e.OrderID, e.Status)
}

func (e *NotAssignableError) Is(target error) bool {
	return target == ErrNotAssignable
}
