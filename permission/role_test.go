package permission

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(" " + string(r) + " ")
		if err != nil {
			t.Fatalf("ParseRole(%s) failed: %v", r, err)
		}
		if got != r {
			t.Fatalf("ParseRole(%s) = %s", r, got)
		}
	}
	for _, bad := range []string{"", "admin", "Administrador", "root", "cliente;drop"} {
		if _, err := ParseRole(bad); !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("ParseRole(%q) expected ErrUnknownRole, got %v", bad, err)
		}
	}
}

func TestRolePredicates(t *testing.T) {
	cases := []struct {
		role     Role
		manage   bool
		admin    bool
		delivery bool
	}{
		{Cliente, false, false, false},
		{Administrador, true, true, false},
		{Supervisor, true, false, false},
		{Entregador, false, false, true},
		{Role("ghost"), false, false, false},
	}
	for _, tc := range cases {
		if got := CanManageOrders(tc.role); got != tc.manage {
			t.Fatalf("CanManageOrders(%s) = %v", tc.role, got)
		}
		if got := IsAdminRole(tc.role); got != tc.admin {
			t.Fatalf("IsAdminRole(%s) = %v", tc.role, got)
		}
		if got := IsDeliveryRole(tc.role); got != tc.delivery {
			t.Fatalf("IsDeliveryRole(%s) = %v", tc.role, got)
		}
	}
}

func TestPermissionTable(t *testing.T) {
	if !HasPermission(Cliente, PlaceOrder) || HasPermission(Cliente, ViewAllOrders) {
		t.Fatal("cliente must place orders and not read all orders")
	}
	if !HasPermission(Entregador, ViewDeliveries) || HasPermission(Entregador, ManageOrders) {
		t.Fatal("entregador must read deliveries and not manage orders")
	}
	if HasPermission(Supervisor, ManageUsers) {
		t.Fatal("supervisor must not manage users")
	}
	if len(Permissions(Administrador)) != int(permissionCount) {
		t.Fatalf("administrador should hold every permission, got %v", Permissions(Administrador))
	}
	if HasPermission(Role("ghost"), PlaceOrder) {
		t.Fatal("unknown role must have no permissions")
	}
	if HasPermission(Administrador, permissionCount) {
		t.Fatal("out-of-range permission must be denied")
	}
}

func TestMaskSetClear(t *testing.T) {
	var m Mask
	m.Set(ExportOrders)
	if !m.Has(ExportOrders) {
		t.Fatal("expected bit set")
	}
	m.Clear(ExportOrders)
	if m.Has(ExportOrders) {
		t.Fatal("expected bit cleared")
	}
	if ManageUsers.String() != "users:manage" {
		t.Fatalf("unexpected name %s", ManageUsers.String())
	}
}

func TestContains(t *testing.T) {
	staff := []Role{Administrador, Supervisor}
	if Contains(staff, Cliente) || !Contains(staff, Supervisor) {
		t.Fatal("Contains mismatch")
	}
}
