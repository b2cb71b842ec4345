package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// PaymentStatus tracks money, independent of fulfilment.
type PaymentStatus string

const (
	AwaitingPayment  PaymentStatus = "awaiting-payment"
	PaymentPaid      PaymentStatus = "paid"
	PaymentConfirmed PaymentStatus = "confirmed"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusPaid           Status = "paid"
	StatusCancelled      Status = "cancelled"
)

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// Store errors. ErrInvalid wraps a message naming the rejected field.
var (
	ErrInvalid           = errors.New("order: invalid input")
	ErrExists            = errors.New("order: order number already exists")
	ErrNotFound          = errors.New("order: not found")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrUnavailable       = errors.New("order: store unavailable")
)

// Item is one order line. UnitPrice is in minor currency units.
type Item struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// Customer identifies who placed the order. Email is normalized.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Order is the stored record. Money fields are minor units, times are unix
// milliseconds.
type Order struct {
	OrderNumber                string        `json:"orderNumber"`
	Customer                   Customer      `json:"customer"`
	Items                      []Item        `json:"items"`
	Subtotal                   int64         `json:"subtotal"`
	DeliveryFee                int64         `json:"deliveryFee"`
	Total                      int64         `json:"total"`
	Currency                   string        `json:"currency,omitempty"`
	PaymentMethod              PaymentMethod `json:"paymentMethod"`
	PaymentStatus              PaymentStatus `json:"paymentStatus"`
	Status                     Status        `json:"orderStatus"`
	Notes                      string        `json:"notes,omitempty"`
	PaymentConfirmedByCustomer bool          `json:"paymentConfirmedByCustomer"`
	PaidAt                     *int64        `json:"paidAt,omitempty"`
	CreatedAt                  int64         `json:"createdAt"`
	UpdatedAt                  int64         `json:"updatedAt"`
}

// Input is what checkout submits.
type Input struct {
	OrderNumber   string        `json:"orderNumber"`
	Customer      Customer      `json:"customer"`
	Items         []Item        `json:"items"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Notes         string        `json:"notes,omitempty"`
}

// Pricing sets the delivery fee rule. A zero FreeDeliveryThreshold disables
// free delivery.
type Pricing struct {
	DeliveryFee           int64
	FreeDeliveryThreshold int64
	Currency              string
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	switch st {
	case StatusPending, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusPaid, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalid, s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	ps := PaymentStatus(strings.TrimSpace(s))
	switch ps {
	case AwaitingPayment, PaymentPaid, PaymentConfirmed:
		return ps, nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrInvalid, s)
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	pm := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch pm {
	case PaymentPix, PaymentCard, PaymentCash:
		return pm, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalid, s)
}

// Validate checks checkout input and returns the normalized copy.
func (in Input) Validate() (Input, error) {
	in.OrderNumber = strings.TrimSpace(in.OrderNumber)
	if in.OrderNumber == "" {
		return in, fmt.Errorf("%w: orderNumber is required", ErrInvalid)
	}
	if strings.ContainsAny(in.OrderNumber, ":\r\n ") || len(in.OrderNumber) > 64 {
		return in, fmt.Errorf("%w: orderNumber has invalid characters", ErrInvalid)
	}
	in.Customer.Name = strings.TrimSpace(in.Customer.Name)
	in.Customer.Email = strings.ToLower(strings.TrimSpace(in.Customer.Email))
	in.Customer.Phone = strings.TrimSpace(in.Customer.Phone)
	in.Customer.Address = strings.TrimSpace(in.Customer.Address)
	if in.Customer.Email == "" {
		return in, fmt.Errorf("%w: customer email is required", ErrInvalid)
	}
	if in.Customer.Name == "" {
		return in, fmt.Errorf("%w: customer name is required", ErrInvalid)
	}
	if len(in.Items) == 0 {
		return in, fmt.Errorf("%w: at least one item is required", ErrInvalid)
	}
	items := make([]Item, len(in.Items))
	var subtotal int64
	for i, it := range in.Items {
		it.Name = strings.TrimSpace(it.Name)
		switch {
		case it.Name == "":
			return in, fmt.Errorf("%w: item %d has no name", ErrInvalid, i)
		case it.Quantity <= 0:
			return in, fmt.Errorf("%w: item %d quantity must be > 0", ErrInvalid, i)
		case it.UnitPrice < 0:
			return in, fmt.Errorf("%w: item %d unit price must be >= 0", ErrInvalid, i)
		case it.UnitPrice > (math.MaxInt64-subtotal)/int64(it.Quantity):
			return in, fmt.Errorf("%w: item %d pushes the subtotal out of range", ErrInvalid, i)
		}
		subtotal += it.UnitPrice * int64(it.Quantity)
		items[i] = it
	}
	in.Items = items

	pm, err := ParsePaymentMethod(string(in.PaymentMethod))
	if err != nil {
		return in, err
	}
	in.PaymentMethod = pm
	return in, nil
}

// Totals computes subtotal, delivery fee and total for items that already
// passed Input.Validate. It fails with ErrInvalid when the fee does not fit.
func (p Pricing) Totals(items []Item) (subtotal, fee, total int64, err error) {
	for _, it := range items {
		subtotal += it.UnitPrice * int64(it.Quantity)
	}
	fee = p.DeliveryFee
	if p.FreeDeliveryThreshold > 0 && subtotal >= p.FreeDeliveryThreshold {
		fee = 0
	}
	if fee > math.MaxInt64-subtotal {
		return 0, 0, 0, fmt.Errorf("%w: total out of range", ErrInvalid)
	}
	return subtotal, fee, subtotal + fee, nil
}

// OwnedBy reports whether email placed the order.
func (o *Order) OwnedBy(email string) bool {
	return o.Customer.Email != "" && o.Customer.Email == email
}
