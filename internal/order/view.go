package order

// CourierView hides the delivery code, which the shopper hands over at the door.
func CourierView(o *Order) *Order {
	v := *o
	v.DeliveryKey = ""
	return &v
}

func CourierViews(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i := range orders {
		out[i] = *CourierView(&orders[i])
	}
	return out
}
