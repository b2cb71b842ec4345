package order

import "fmt"

var transitions = map[Status][]Status{
	StatusPending:        {StatusPreparing, StatusPaid, StatusCancelled},
	StatusPaid:           {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	StatusDelivered:      nil,
	StatusCancelled:      nil,
}

// CanTransition reports whether from → to is allowed. Staying put is allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
func Terminal(s Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func paymentRank(ps PaymentStatus) int {
	switch ps {
	case AwaitingPayment:
		return 0
	case PaymentPaid:
		return 1
	case PaymentConfirmed:
		return 2
	}
	return -1
}

// applyStatus moves o to status at now (unix ms).
func applyStatus(o *Order, to Status, now int64) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	if o.Status == to {
		return nil
	}
	o.Status = to
	if to == StatusPaid && paymentRank(o.PaymentStatus) < paymentRank(PaymentPaid) {
		o.PaymentStatus = PaymentPaid
	}
	if to == StatusPaid && o.PaidAt == nil {
		o.PaidAt = &now
	}
	o.UpdatedAt = now
	return nil
}

// applyPaymentStatus moves the payment status forward only.
func applyPaymentStatus(o *Order, to PaymentStatus, now int64) error {
	if o.Status == StatusCancelled {
		return fmt.Errorf("%w: order is cancelled", ErrInvalidTransition)
	}
	cur, next := paymentRank(o.PaymentStatus), paymentRank(to)
	if next < 0 || next < cur {
		return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, o.PaymentStatus, to)
	}
	if next == cur {
		return nil
	}
	o.PaymentStatus = to
	if o.PaidAt == nil && next >= paymentRank(PaymentPaid) {
		o.PaidAt = &now
	}
	o.UpdatedAt = now
	return nil
}
