package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Role is one of the four storefront roles.
type Role string

const (
	Cliente       Role = "cliente"
	Administrador Role = "administrador"
	Supervisor    Role = "supervisor"
	Entregador    Role = "entregador"
)

// ErrUnknownRole is returned by ParseRole for names outside Roles.
var ErrUnknownRole = errors.New("permission: unknown role")

// Roles lists every valid role.
func Roles() []Role {
	return []Role{Cliente, Administrador, Supervisor, Entregador}
}

// ParseRole accepts exactly the role names above, ignoring surrounding
// whitespace. Anything else fails with ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case Cliente, Administrador, Supervisor, Entregador:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Permission is a single capability bit.
type Permission uint8

const (
	PlaceOrder Permission = iota
	ViewOwnOrders
	ConfirmOwnPayment
	ViewAllOrders
	ManageOrders
	ViewDeliveries
	ExportOrders
	ManageUsers

	permissionCount
)

var permissionNames = [permissionCount]string{
	PlaceOrder:        "orders:create",
	ViewOwnOrders:     "orders:read:own",
	ConfirmOwnPayment: "orders:confirm-payment:own",
	ViewAllOrders:     "orders:read:all",
	ManageOrders:      "orders:manage",
	ViewDeliveries:    "deliveries:read",
	ExportOrders:      "orders:export",
	ManageUsers:       "users:manage",
}

func (p Permission) String() string {
	if p >= permissionCount {
		return fmt.Sprintf("permission(%d)", uint8(p))
	}
	return permissionNames[p]
}

var (
	customerMask = maskOf(PlaceOrder, ViewOwnOrders, ConfirmOwnPayment)
	courierMask  = customerMask | maskOf(ViewDeliveries)
	staffMask    = customerMask | maskOf(ViewAllOrders, ManageOrders, ViewDeliveries, ExportOrders)
	adminMask    = staffMask | maskOf(ManageUsers)
)

// MaskFor returns the permission set of r. Unknown roles get no permissions.
func MaskFor(r Role) Mask {
	switch r {
	case Cliente:
		return customerMask
	case Entregador:
		return courierMask
	case Supervisor:
		return staffMask
	case Administrador:
		return adminMask
	default:
		return 0
	}
}

// HasPermission reports whether r's mask includes p.
func HasPermission(r Role, p Permission) bool {
	return MaskFor(r).Has(p)
}

// CanManageOrders is true for administrador and supervisor.
func CanManageOrders(r Role) bool {
	return HasPermission(r, ManageOrders)
}

// IsAdminRole is true only for administrador. Supervisors are not admins.
func IsAdminRole(r Role) bool {
	return r == Administrador
}

// IsDeliveryRole is true only for entregador.
func IsDeliveryRole(r Role) bool {
	return r == Entregador
}

// Permissions lists the permissions granted to r in bit order.
func Permissions(r Role) []Permission {
	m := MaskFor(r)
	var out []Permission
	for p := Permission(0); p < permissionCount; p++ {
		if m.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Contains reports whether r is one of allowed.
func Contains(allowed []Role, r Role) bool {
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}
