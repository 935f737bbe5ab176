package order

import (
	"fmt"
	"strings"
)

type message struct {
	Title string
	Body  string
}

var statusMessages = map[Status]message{
	StatusPending:        {"Order Placed", "Your order has been placed successfully."},
	StatusProcessing:     {"Order Confirmed", "Your order has been confirmed and is being prepared."},
	StatusPacked:         {"Order Shipped", "Your order has been packed and shipped."},
	StatusOutForDelivery: {"Out for Delivery", "Your order is on its way!"},
	StatusDelivered:      {"Order Delivered", "Your order has been delivered. Enjoy!"},
	StatusCancelled:      {"Order Cancelled", "Your order has been cancelled."},
}

func messageFor(s Status) message {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return message{
		Title: "Order Update",
		Body:  fmt.Sprintf("Your order status is now %s.", strings.ReplaceAll(string(s), "_", " ")),
	}
}
