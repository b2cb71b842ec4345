package storefront

import (
	"context"
	"errors"
	"testing"
)

func TestListUsersAdminOnly(t *testing.T) {
	env, customer, supervisor, _, admin := staffEnv(t)
	ctx := context.Background()

	users, err := env.engine.ListUsers(ctx, admin.Token)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 4 {
		t.Fatalf("expected 4 users, got %d", len(users))
	}
	for _, tok := range []string{customer.Token, supervisor.Token} {
		if _, err := env.engine.ListUsers(ctx, tok); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	}
}

func TestUpdateUserRole(t *testing.T) {
	env, customer, supervisor, _, admin := staffEnv(t)
	ctx := context.Background()

	if _, err := env.engine.UpdateUserRole(ctx, supervisor.Token, "ana@example.com", "administrador"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected supervisor to be forbidden, got %v", err)
	}
	if _, err := env.engine.UpdateUserRole(ctx, admin.Token, "ana@example.com", "Admin"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown role to fail validation, got %v", err)
	}
	if _, err := env.engine.UpdateUserRole(ctx, admin.Token, "ghost@example.com", "supervisor"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.engine.UpdateUserRole(ctx, admin.Token, "admin@example.com", "cliente"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected self role change to be rejected, got %v", err)
	}

	u, err := env.engine.UpdateUserRole(ctx, admin.Token, "ANA@example.com", "supervisor")
	if err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	if u.Role != RoleSupervisor {
		t.Fatalf("expected supervisor, got %s", u.Role)
	}

	// Without revalidation the old session keeps its snapshot.
	sess, err := env.engine.ValidateSession(ctx, customer.Token)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if sess.Role != RoleCliente {
		t.Fatalf("expected snapshot role cliente, got %s", sess.Role)
	}
}

func TestRevalidateRole(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Session.RevalidateRole = true
		c.Account.BootstrapAdmins = []string{"admin@example.com"}
	})
	ctx := context.Background()

	admin := env.signUp(t, "Admin", "admin@example.com", "segredo1")
	customer := env.signUp(t, "Ana", "ana@example.com", "segredo1")

	if _, err := env.engine.UpdateUserRole(ctx, admin.Token, "ana@example.com", "supervisor"); err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	sess, err := env.engine.ValidateSession(ctx, customer.Token)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if sess.Role != RoleSupervisor {
		t.Fatalf("expected live role supervisor, got %s", sess.Role)
	}

	if err := env.engine.store.Delete(ctx, "user:ana@example.com"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := env.engine.ValidateSession(ctx, customer.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected orphaned session to be revoked, got %v", err)
	}
}
