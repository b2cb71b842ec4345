package storefront

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/MrEthical07/storefront/order"
	"github.com/MrEthical07/storefront/permission"
)

// CreateOrder places an order for the session's customer. Customer email and
// name default to the session's; only staff may place an order for another
// email.
func (e *Engine) CreateOrder(ctx context.Context, token string, in OrderInput) (*Order, error) {
	sess, err := e.Authorize(ctx, token, permission.PlaceOrder)
	if err != nil {
		return nil, err
	}

	in.Customer.Email = strings.ToLower(strings.TrimSpace(in.Customer.Email))
	if in.Customer.Email == "" {
		in.Customer.Email = sess.Email
	}
	if in.Customer.Email != sess.Email && !permission.CanManageOrders(sess.Role) {
		e.metricInc(MetricForbidden)
		return nil, fmt.Errorf("%w: cannot order for another customer", ErrForbidden)
	}
	if strings.TrimSpace(in.Customer.Name) == "" && in.Customer.Email == sess.Email {
		in.Customer.Name = sess.Name
	}

	o, err := e.orders.Create(ctx, in)
	if err != nil {
		err = mapOrderError(err)
		e.emitAudit(ctx, auditEventOrderCreated, false, sess.UserID, sess.Email, err, nil)
		return nil, err
	}

	e.metricInc(MetricOrderCreated)
	e.emitAudit(ctx, auditEventOrderCreated, true, sess.UserID, sess.Email, nil, func() map[string]string {
		return map[string]string{"order": o.OrderNumber, "total": fmt.Sprint(o.Total)}
	})
	return o, nil
}

// ListOrders returns every order to staff and the caller's own orders to
// everyone else, newest first.
func (e *Engine) ListOrders(ctx context.Context, token string) ([]*Order, error) {
	sess, err := e.Authorize(ctx, token, permission.ViewOwnOrders)
	if err != nil {
		return nil, err
	}
	var out []*Order
	if permission.HasPermission(sess.Role, permission.ViewAllOrders) {
		out, err = e.orders.ListAll(ctx)
	} else {
		out, err = e.orders.ListByCustomer(ctx, sess.Email)
	}
	if err != nil {
		return nil, mapOrderError(err)
	}
	return out, nil
}

// GetOrder returns one order to its owner or to staff.
func (e *Engine) GetOrder(ctx context.Context, token, number string) (*Order, error) {
	sess, err := e.Authorize(ctx, token, permission.ViewOwnOrders)
	if err != nil {
		return nil, err
	}
	o, err := e.orders.Get(ctx, number)
	if err != nil {
		return nil, mapOrderError(err)
	}
	if !o.OwnedBy(sess.Email) && !permission.HasPermission(sess.Role, permission.ViewAllOrders) {
		e.metricInc(MetricForbidden)
		return nil, ErrForbidden
	}
	return o, nil
}

// ConfirmPayment lets the customer who placed the order declare it paid.
func (e *Engine) ConfirmPayment(ctx context.Context, token, number string) (*Order, error) {
	sess, err := e.Authorize(ctx, token, permission.ConfirmOwnPayment)
	if err != nil {
		return nil, err
	}
	o, err := e.orders.Get(ctx, number)
	if err != nil {
		return nil, mapOrderError(err)
	}
	if !o.OwnedBy(sess.Email) {
		e.metricInc(MetricForbidden)
		return nil, ErrForbidden
	}

	o, err = e.orders.ConfirmPayment(ctx, o.OrderNumber)
	if err != nil {
		err = mapOrderError(err)
		e.emitAudit(ctx, auditEventOrderPaymentConfirmed, false, sess.UserID, sess.Email, err, nil)
		return nil, err
	}
	e.metricInc(MetricOrderPaymentConfirmed)
	e.emitAudit(ctx, auditEventOrderPaymentConfirmed, true, sess.UserID, sess.Email, nil, func() map[string]string {
		return map[string]string{"order": o.OrderNumber}
	})
	return o, nil
}

// UpdateOrderStatus moves an order along the fulfilment graph. Staff only.
func (e *Engine) UpdateOrderStatus(ctx context.Context, token, number, status string) (*Order, error) {
	sess, err := e.Authorize(ctx, token, permission.ManageOrders)
	if err != nil {
		return nil, err
	}
	to, err := order.ParseStatus(status)
	if err != nil {
		return nil, mapOrderError(err)
	}

	o, err := e.orders.UpdateStatus(ctx, number, to)
	if err != nil {
		err = mapOrderError(err)
		e.emitAudit(ctx, auditEventOrderStatusChanged, false, sess.UserID, sess.Email, err, func() map[string]string {
			return map[string]string{"order": number, "to": string(to)}
		})
		return nil, err
	}
	e.metricInc(MetricOrderStatusChanged)
	e.emitAudit(ctx, auditEventOrderStatusChanged, true, sess.UserID, sess.Email, nil, func() map[string]string {
		return map[string]string{"order": o.OrderNumber, "to": string(to), "role": string(sess.Role)}
	})
	return o, nil
}

// UpdatePaymentStatus moves the payment status forward. Staff only.
func (e *Engine) UpdatePaymentStatus(ctx context.Context, token, number, status string) (*Order, error) {
	sess, err := e.Authorize(ctx, token, permission.ManageOrders)
	if err != nil {
		return nil, err
	}
	to, err := order.ParsePaymentStatus(status)
	if err != nil {
		return nil, mapOrderError(err)
	}

	o, err := e.orders.UpdatePaymentStatus(ctx, number, to)
	if err != nil {
		err = mapOrderError(err)
		e.emitAudit(ctx, auditEventOrderPaymentStatusChanged, false, sess.UserID, sess.Email, err, func() map[string]string {
			return map[string]string{"order": number, "to": string(to)}
		})
		return nil, err
	}
	e.metricInc(MetricOrderPaymentStatusChanged)
	e.emitAudit(ctx, auditEventOrderPaymentStatusChanged, true, sess.UserID, sess.Email, nil, func() map[string]string {
		return map[string]string{"order": o.OrderNumber, "to": string(to), "role": string(sess.Role)}
	})
	return o, nil
}

// ListDeliveries returns orders currently out for delivery.
func (e *Engine) ListDeliveries(ctx context.Context, token string) ([]*Order, error) {
	if _, err := e.Authorize(ctx, token, permission.ViewDeliveries); err != nil {
		return nil, err
	}
	out, err := e.orders.ListByStatus(ctx, order.StatusOutForDelivery)
	if err != nil {
		return nil, mapOrderError(err)
	}
	return out, nil
}

// ExportOrders writes every order to w as an xlsx workbook. Staff only.
func (e *Engine) ExportOrders(ctx context.Context, token string, w io.Writer) error {
	sess, err := e.Authorize(ctx, token, permission.ExportOrders)
	if err != nil {
		return err
	}
	all, err := e.orders.ListAll(ctx)
	if err != nil {
		return mapOrderError(err)
	}
	if err := order.WriteXLSX(w, all); err != nil {
		return fmt.Errorf("export orders: %w", err)
	}
	e.metricInc(MetricOrderExported)
	e.emitAudit(ctx, auditEventOrderExported, true, sess.UserID, sess.Email, nil, func() map[string]string {
		return map[string]string{"count": fmt.Sprint(len(all))}
	})
	return nil
}
