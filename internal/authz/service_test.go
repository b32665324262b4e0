package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceRoleWithGrantedPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("auditor", "/admin/orders/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceRole("auditor", "/api/v1/admin/orders/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceRole("auditor", "/api/v1/admin/orders/42", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	if err := svc.RevokeRolePolicy("auditor", "/admin/orders/:id", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, _ = svc.EnforceRole("auditor", "/admin/orders/42", "GET")
	if allow {
		t.Fatalf("revoked policy must deny")
	}
	if allow, _ := svc.EnforceRole("", "/admin/orders/42", "GET"); allow {
		t.Fatalf("empty role must deny")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "/cart/items/:id", want: "/cart/items/:id"},
		{in: "cart", want: "/cart"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap must be idempotent: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if strings.Join(roles, ",") != "role:admin,role:customer,role:provider" {
		t.Fatalf("unexpected builtin roles: %v", roles)
	}

	cases := []struct {
		role   string
		path   string
		method string
		allow  bool
	}{
		{"customer", "/api/v1/cart", "GET", true},
		{"customer", "/api/v1/cart/items/7", "PATCH", true},
		{"customer", "/api/v1/cart/checkout", "POST", true},
		{"customer", "/api/v1/orders/3/cancel", "POST", true},
		{"customer", "/api/v1/catalog/products", "POST", false},
		{"customer", "/api/v1/admin/orders", "GET", false},
		{"provider", "/api/v1/catalog/products/9", "PUT", true},
		{"provider", "/api/v1/catalog/variants/9", "DELETE", true},
		{"provider", "/api/v1/cart/items", "POST", false},
		{"provider", "/api/v1/orders", "GET", false},
		{"admin", "/api/v1/admin/discount-rules/1/codes", "POST", true},
		{"admin", "/api/v1/orders", "GET", true},
		{"ADMIN", "/api/v1/catalog/products", "POST", true},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.path, tc.method)
		if err != nil {
			t.Fatalf("enforce %s %s %s failed: %v", tc.role, tc.method, tc.path, err)
		}
		if allow != tc.allow {
			t.Fatalf("%s %s %s want allow=%v", tc.role, tc.method, tc.path, tc.allow)
		}
	}

	if !IsBuiltinRole("Customer") || IsBuiltinRole("auditor") {
		t.Fatalf("unexpected builtin role detection")
	}
	policies, err := svc.GetRolePolicies("provider")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != 10 {
		t.Fatalf("provider policies want 10 got %d", len(policies))
	}
}

func TestPolicyGuards(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if err := svc.GrantRolePolicy("auditor", "/admin/orders", "FETCH"); !errors.Is(err, ErrActionInvalid) {
		t.Fatalf("unknown method must be rejected, got %v", err)
	}
	if err := svc.GrantRolePolicy("  ", "/admin/orders", "GET"); !errors.Is(err, ErrRoleRequired) {
		t.Fatalf("blank role must be rejected, got %v", err)
	}
	if err := svc.GrantRolePolicy("__anchor__", "/admin/orders", "GET"); !errors.Is(err, ErrRoleReserved) {
		t.Fatalf("anchor role must be reserved, got %v", err)
	}
	if err := svc.RevokeRolePolicy("admin", "/api/v1/*", "*"); !errors.Is(err, ErrPolicyRequired) {
		t.Fatalf("admin super policy must stay, got %v", err)
	}
	if allow, _ := svc.EnforceRole("admin", "/admin/dashboard/overview", "GET"); !allow {
		t.Fatalf("admin must keep access")
	}

	var nilSvc *Service
	if _, err := nilSvc.ListRoles(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil service must report unavailable, got %v", err)
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"Customer":       "role:customer",
		"role:provider":  "role:provider",
		" stock keeper ": "role:stock_keeper",
		"ROLE:Admin":     "role:admin",
	}
	for in, want := range cases {
		got, err := NormalizeRole(in)
		if err != nil || got != want {
			t.Fatalf("normalize %q want %q got %q (%v)", in, want, got, err)
		}
	}
	if _, err := NormalizeRole("role:"); !errors.Is(err, ErrRoleRequired) {
		t.Fatalf("bare prefix must be rejected")
	}
}
