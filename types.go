package storefront

import (
	"github.com/MrEthical07/storefront/email"
	"github.com/MrEthical07/storefront/internal/stores"
	"github.com/MrEthical07/storefront/order"
	"github.com/MrEthical07/storefront/permission"
	"github.com/MrEthical07/storefront/session"
)

// Session is the authenticated principal returned by login, verification,
// password reset and ValidateSession. Token is the bearer secret.
type Session = session.Session

type Role = permission.Role

const (
	RoleCliente       = permission.Cliente
	RoleAdministrador = permission.Administrador
	RoleSupervisor    = permission.Supervisor
	RoleEntregador    = permission.Entregador
)

// Mailer delivers verification and reset codes.
type Mailer = email.Sender

type (
	Order         = order.Order
	OrderInput    = order.Input
	OrderItem     = order.Item
	OrderStatus   = order.Status
	PaymentStatus = order.PaymentStatus
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// User is the public view of a stored user. The password hash never leaves
// the Engine.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Verified  bool   `json:"verified"`
	Role      Role   `json:"role"`
	CreatedAt int64  `json:"createdAt"`
}

func publicUser(u *stores.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Verified:  u.Verified,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
