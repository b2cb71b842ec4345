package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MrEthical07/storefront/kv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	OrderPrefix = "order:"
	IndexPrefix = "customer-orders:"

	defaultFetchConcurrency = 8
)

// Store persists orders and maintains the customer index.
type Store struct {
	kv               kv.Store
	pricing          Pricing
	now              func() time.Time
	log              *zap.Logger
	fetchConcurrency int
}

func NewStore(store kv.Store, pricing Pricing) *Store {
	return &Store{
		kv:               store,
		pricing:          pricing,
		now:              time.Now,
		log:              zap.NewNop(),
		fetchConcurrency: defaultFetchConcurrency,
	}
}

// WithClock replaces the time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) WithLogger(l *zap.Logger) *Store {
	if l != nil {
		s.log = l
	}
	return s
}

func orderKey(number string) string { return OrderPrefix + number }
func indexKey(email string) string  { return IndexPrefix + email }

// Create validates in, prices it and stores a new pending order.
func (s *Store) Create(ctx context.Context, in Input) (*Order, error) {
	in, err := in.Validate()
	if err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, in.OrderNumber); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, in.OrderNumber)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	subtotal, fee, total, err := s.pricing.Totals(in.Items)
	if err != nil {
		return nil, err
	}
	now := s.now().UnixMilli()
	o := &Order{
		OrderNumber:   in.OrderNumber,
		Customer:      in.Customer,
		Items:         in.Items,
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		Total:         total,
		Currency:      s.pricing.Currency,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: AwaitingPayment,
		Status:        StatusPending,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	if err := s.prependIndex(ctx, o.Customer.Email, o.OrderNumber); err != nil {
		return nil, err
	}
	return o, nil
}

// Get loads one order.
func (s *Store) Get(ctx context.Context, number string) (*Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrNotFound
	}
	o, err := kv.GetJSON[Order](ctx, s.kv, orderKey(number))
	switch {
	case err == nil:
		return o, nil
	case errors.Is(err, kv.ErrNotFound), errors.Is(err, kv.ErrInvalidKey):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (s *Store) save(ctx context.Context, o *Order) error {
	if err := kv.SetJSON(ctx, s.kv, orderKey(o.OrderNumber), o, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) readIndex(ctx context.Context, email string) ([]string, error) {
	numbers, err := kv.GetJSON[[]string](ctx, s.kv, indexKey(email))
	switch {
	case err == nil:
		return *numbers, nil
	case errors.Is(err, kv.ErrNotFound), errors.Is(err, kv.ErrCorrupt):
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (s *Store) prependIndex(ctx context.Context, email, number string) error {
	current, err := s.readIndex(ctx, email)
	if err != nil {
		return err
	}
	next := make([]string, 0, len(current)+1)
	next = append(next, number)
	for _, n := range current {
		if n != number {
			next = append(next, n)
		}
	}
	if err := kv.SetJSON(ctx, s.kv, indexKey(email), next, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ListByCustomer returns the customer's orders, newest first. Index entries
// without an order are skipped and pruned from the index.
func (s *Store) ListByCustomer(ctx context.Context, email string) ([]*Order, error) {
	numbers, err := s.readIndex(ctx, email)
	if err != nil {
		return nil, err
	}
	orders, err := s.fetch(ctx, numbers)
	if err != nil {
		return nil, err
	}

	out := make([]*Order, 0, len(orders))
	kept := make([]string, 0, len(orders))
	for i, o := range orders {
		if o == nil {
			continue
		}
		out = append(out, o)
		kept = append(kept, numbers[i])
	}
	if len(kept) != len(numbers) {
		if err := kv.SetJSON(ctx, s.kv, indexKey(email), kept, 0); err != nil {
			s.log.Warn("customer order index repair failed", zap.String("email", email), zap.Error(err))
		}
	}
	return out, nil
}

// ListAll returns every order, newest first.
func (s *Store) ListAll(ctx context.Context) ([]*Order, error) {
	keys, err := s.kv.List(ctx, OrderPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	numbers := make([]string, len(keys))
	for i, k := range keys {
		numbers[i] = strings.TrimPrefix(k, OrderPrefix)
	}
	orders, err := s.fetch(ctx, numbers)
	if err != nil {
		return nil, err
	}

	out := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if o != nil {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].OrderNumber > out[j].OrderNumber
	})
	return out, nil
}

// ListByStatus returns every order in one of statuses, newest first.
func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*Order, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, o := range all {
		for _, st := range statuses {
			if o.Status == st {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

// fetch loads numbers concurrently. Missing orders come back as nil.
func (s *Store) fetch(ctx context.Context, numbers []string) ([]*Order, error) {
	out := make([]*Order, len(numbers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)
	for i, n := range numbers {
		g.Go(func() error {
			o, err := s.Get(gctx, n)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil
				}
				return err
			}
			out[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmPayment records the customer's claim that the order was paid.
// Orders already past awaiting-payment are returned unchanged.
func (s *Store) ConfirmPayment(ctx context.Context, number string) (*Order, error) {
	o, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", ErrInvalidTransition)
	}
	if o.PaymentStatus != AwaitingPayment {
		return o, nil
	}

	now := s.now().UnixMilli()
	o.PaymentStatus = PaymentPaid
	o.PaymentConfirmedByCustomer = true
	o.PaidAt = &now
	o.UpdatedAt = now
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus applies a fulfilment transition.
func (s *Store) UpdateStatus(ctx context.Context, number string, to Status) (*Order, error) {
	o, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	before := o.Status
	if err := applyStatus(o, to, s.now().UnixMilli()); err != nil {
		return nil, err
	}
	if before == to {
		return o, nil
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdatePaymentStatus moves the payment status forward.
func (s *Store) UpdatePaymentStatus(ctx context.Context, number string, to PaymentStatus) (*Order, error) {
	o, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	before := o.PaymentStatus
	if err := applyPaymentStatus(o, to, s.now().UnixMilli()); err != nil {
		return nil, err
	}
	if before == to {
		return o, nil
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
