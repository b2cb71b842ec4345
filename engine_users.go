package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/storefront/internal"
	"github.com/MrEthical07/storefront/internal/stores"
	"github.com/MrEthical07/storefront/permission"
)

// ListUsers returns every account. Administrador only.
func (e *Engine) ListUsers(ctx context.Context, token string) ([]User, error) {
	if _, err := e.Authorize(ctx, token, permission.ManageUsers); err != nil {
		return nil, err
	}
	all, err := e.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependency, err)
	}
	out := make([]User, 0, len(all))
	for _, u := range all {
		out = append(out, publicUser(u))
	}
	return out, nil
}

// UpdateUserRole assigns role to the account at email. Administrador only;
// administrators cannot change their own role. Existing sessions keep their
// role snapshot unless Session.RevalidateRole is set.
func (e *Engine) UpdateUserRole(ctx context.Context, token, email, role string) (User, error) {
	sess, err := e.Authorize(ctx, token, permission.ManageUsers)
	if err != nil {
		return User{}, err
	}
	next, err := permission.ParseRole(role)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	email = internal.NormalizeEmail(email)
	if email == sess.Email {
		return User{}, fmt.Errorf("%w: cannot change own role", ErrValidation)
	}

	user, err := e.users.Get(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrUserNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("%w: %v", ErrDependency, err)
	}
	prev := user.Role
	if prev == next {
		return publicUser(user), nil
	}

	user.Role = next
	user.UpdatedAt = e.now().UnixMilli()
	if err := e.users.Put(ctx, user); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrDependency, err)
	}

	e.metricInc(MetricUserRoleChanged)
	e.emitAudit(ctx, auditEventUserRoleChanged, true, user.ID, user.Email, nil, func() map[string]string {
		return map[string]string{"from": string(prev), "role": string(next), "by": sess.UserID}
	})
	return publicUser(user), nil
}
