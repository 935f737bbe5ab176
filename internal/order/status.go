package order

// Position on the linear fulfilment path. Cancelled is off the path.
var statusRank = map[Status]int{
	StatusPending:        0,
	StatusProcessing:     1,
	StatusPacked:         2,
	StatusOutForDelivery: 3,
	StatusDelivered:      4,
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	if _, ok := statusRank[st]; ok || st == StatusCancelled {
		return st, true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next decides whether requested may follow current. It reports false with
// no error when requested equals a non-terminal current status.
func Next(current, requested Status) (bool, error) {
	if _, ok := ParseStatus(string(requested)); !ok {
		return false, &ValidationError{Field: "status", Reason: "unknown status " + string(requested)}
	}
	if current.IsTerminal() {
		return false, &TransitionError{From: current, To: requested}
	}
	if requested == current {
		return false, nil
	}
	if requested == StatusCancelled {
		return true, nil
	}
	if statusRank[requested] > statusRank[current] {
		return true, nil
	}
	return false, &TransitionError{From: current, To: requested}
}

// crossesDispatch reports whether moving from -> to reaches the dispatched
// status for the first time.
func crossesDispatch(from, to Status) bool {
	if to == StatusCancelled || from == StatusCancelled {
		return false
	}
	dispatch := statusRank[StatusDispatched]
	return statusRank[from] < dispatch && statusRank[to] >= dispatch
}
