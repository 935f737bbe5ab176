package coupon

import "errors"

var (
	ErrInvalidCoupon  = errors.New("invalid or exhausted coupon")
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCodeTaken      = errors.New("coupon code already exists")
	ErrInvalidInput   = errors.New("invalid coupon input")
)

// ErrAlreadyRedeemed means the order already carries a coupon usage.
var ErrAlreadyRedeemed = errors.New("coupon already redeemed for this order")
