package authz

import (
	"fmt"

	"github.com/maryema-next/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Policies []Policy
}

// 登录账号通用的资料接口
var profilePolicies = []Policy{
	{Object: "/me", Action: "GET"},
	{Object: "/me", Action: "PUT"},
	{Object: "/me/password", Action: "PUT"},
	{Object: "/me/login-logs", Action: "GET"},
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	customer := append([]Policy{}, profilePolicies...)
	customer = append(customer,
		Policy{Object: "/me/wishlist", Action: "GET"},
		Policy{Object: "/me/wishlist/:variant_id", Action: "*"},
		Policy{Object: "/cart", Action: "GET"},
		Policy{Object: "/cart/*", Action: "*"},
		Policy{Object: "/orders", Action: "GET"},
		Policy{Object: "/orders/:id", Action: "GET"},
		Policy{Object: "/orders/:id/cancel", Action: "POST"},
		Policy{Object: "/orders/:id/events", Action: "GET"},
		Policy{Object: "/feedback", Action: "POST"},
		Policy{Object: "/feedback/:id", Action: "*"},
	)
	provider := append([]Policy{}, profilePolicies...)
	provider = append(provider,
		Policy{Object: "/catalog/products", Action: "POST"},
		Policy{Object: "/catalog/products/:id", Action: "PUT"},
		Policy{Object: "/catalog/products/:id", Action: "DELETE"},
		Policy{Object: "/catalog/products/:id/variants", Action: "POST"},
		Policy{Object: "/catalog/variants/:id", Action: "PUT"},
		Policy{Object: "/catalog/variants/:id", Action: "DELETE"},
	)
	return []RoleSeed{
		{Role: constants.RoleAdmin, Policies: []Policy{adminSuperPolicy}},
		{Role: constants.RoleCustomer, Policies: customer},
		{Role: constants.RoleProvider, Policies: provider},
	}
}

var adminSuperPolicy = Policy{Object: "/*", Action: wildcard}

func isAdminSuperPolicy(p Policy) bool {
	admin, _ := NormalizeRole(constants.RoleAdmin)
	return p.Subject == admin && p.Object == adminSuperPolicy.Object && p.Action == adminSuperPolicy.Action
}

// IsBuiltinRole 是否预置角色
func IsBuiltinRole(role string) bool {
	subject, err := NormalizeRole(role)
	if err != nil {
		return false
	}
	for _, seed := range BuiltinRoleSeeds() {
		if builtin, _ := NormalizeRole(seed.Role); builtin == subject {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 登记预置角色并补齐默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	e, err := s.ready()
	if err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		subject, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}
		if err := ensureRoleAnchor(e, subject); err != nil {
			return err
		}
		rules := make([][]string, 0, len(seed.Policies))
		for _, policy := range seed.Policies {
			p, err := buildPolicy(subject, policy.Object, policy.Action)
			if err != nil {
				return fmt.Errorf("authz: seed %s: %w", subject, err)
			}
			if ok, _ := e.HasPolicy(p.Subject, p.Object, p.Action); ok {
				continue
			}
			rules = append(rules, []string{p.Subject, p.Object, p.Action})
		}
		if len(rules) == 0 {
			continue
		}
		if _, err := e.AddPolicies(rules); err != nil {
			return fmt.Errorf("authz: seed %s: %w", subject, err)
		}
	}
	return nil
}
