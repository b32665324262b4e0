package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
	// 所有角色挂在锚点下，便于区分角色与普通主体
	roleAnchor = "role:__anchor__"
	wildcard   = "*"
)

// 主体可以是角色也可以是具体账号；动作 * 匹配任意方法
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	ErrUnavailable    = errors.New("authz service unavailable")
	ErrRoleRequired   = errors.New("role is required")
	ErrRoleReserved   = errors.New("reserved role is not allowed")
	ErrActionInvalid  = errors.New("action must be an http method or *")
	ErrPolicyRequired = errors.New("builtin admin policy cannot be revoked")
)

var allowedActions = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, wildcard: {},
}

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

func (p Policy) key() string {
	return p.Object + " " + p.Action
}

// Service 基于 casbin 的路由授权，主体为账号角色，资源为路由模板
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 加载策略表并构造授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz: nil db")
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("authz: open adapter: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("authz: new enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: load policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() (*casbin.SyncedEnforcer, error) {
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	return s.enforcer, nil
}

// EnforceRole 判断角色能否以 method 访问 path；未知或空角色一律拒绝
func (s *Service) EnforceRole(role, path, method string) (bool, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, nil
	}
	e, err := s.ready()
	if err != nil {
		return false, err
	}
	return e.Enforce(subject, NormalizeObject(path), NormalizeAction(method))
}

// ReloadPolicy 从数据库重新加载策略
func (s *Service) ReloadPolicy() error {
	e, err := s.ready()
	if err != nil {
		return err
	}
	return e.LoadPolicy()
}

// EnsureRole 登记角色，已存在时直接返回规范名
func (s *Service) EnsureRole(role string) (string, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	e, err := s.ready()
	if err != nil {
		return "", err
	}
	if err := ensureRoleAnchor(e, subject); err != nil {
		return "", err
	}
	return subject, nil
}

func ensureRoleAnchor(e *casbin.SyncedEnforcer, subject string) error {
	if subject == roleAnchor {
		return ErrRoleReserved
	}
	ok, err := e.HasNamedGroupingPolicy("g", subject, roleAnchor)
	if err != nil {
		return fmt.Errorf("authz: lookup role %s: %w", subject, err)
	}
	if ok {
		return nil
	}
	if _, err := e.AddNamedGroupingPolicy("g", subject, roleAnchor); err != nil {
		return fmt.Errorf("authz: add role %s: %w", subject, err)
	}
	return nil
}

// ListRoles 已登记的角色，按名称排序
func (s *Service) ListRoles() ([]string, error) {
	e, err := s.ready()
	if err != nil {
		return nil, err
	}
	rows, err := e.GetFilteredNamedGroupingPolicy("g", 1, roleAnchor)
	if err != nil {
		return nil, fmt.Errorf("authz: list roles: %w", err)
	}
	seen := make(map[string]bool, len(rows))
	roles := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || seen[row[0]] {
			continue
		}
		seen[row[0]] = true
		roles = append(roles, row[0])
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 授予角色一条路由权限，角色不存在时自动登记
func (s *Service) GrantRolePolicy(role, object, action string) error {
	p, err := buildPolicy(role, object, action)
	if err != nil {
		return err
	}
	e, err := s.ready()
	if err != nil {
		return err
	}
	if err := ensureRoleAnchor(e, p.Subject); err != nil {
		return err
	}
	if _, err := e.AddPolicy(p.Subject, p.Object, p.Action); err != nil {
		return fmt.Errorf("authz: grant %s to %s: %w", p.key(), p.Subject, err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色的一条路由权限；管理员的全量权限不可撤销
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	p, err := buildPolicy(role, object, action)
	if err != nil {
		return err
	}
	if isAdminSuperPolicy(p) {
		return ErrPolicyRequired
	}
	e, err := s.ready()
	if err != nil {
		return err
	}
	if _, err := e.RemovePolicy(p.Subject, p.Object, p.Action); err != nil {
		return fmt.Errorf("authz: revoke %s from %s: %w", p.key(), p.Subject, err)
	}
	return nil
}

// GetRolePolicies 角色的策略列表，按资源与动作排序
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	e, err := s.ready()
	if err != nil {
		return nil, err
	}
	rows, err := e.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("authz: policies of %s: %w", subject, err)
	}
	policies := make([]Policy, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: row[0],
			Object:  NormalizeObject(row[1]),
			Action:  NormalizeAction(row[2]),
		})
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].key() < policies[j].key() })
	return policies, nil
}

func buildPolicy(role, object, action string) (Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return Policy{}, err
	}
	if subject == roleAnchor {
		return Policy{}, ErrRoleReserved
	}
	act := NormalizeAction(action)
	if _, ok := allowedActions[act]; !ok {
		return Policy{}, ErrActionInvalid
	}
	return Policy{Subject: subject, Object: NormalizeObject(object), Action: act}, nil
}

// NormalizeRole 角色名小写、空格转下划线并补齐 role: 前缀
func NormalizeRole(role string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(role))
	name = strings.TrimPrefix(name, rolePrefix)
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if name == "" {
		return "", ErrRoleRequired
	}
	return rolePrefix + name, nil
}

// NormalizeObject 去掉 /api/v1 前缀，保证以 / 开头
func NormalizeObject(object string) string {
	path := strings.TrimSpace(object)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	switch {
	case path == apiV1Prefix:
		return "/"
	case strings.HasPrefix(path, apiV1Prefix+"/"):
		return path[len(apiV1Prefix):]
	}
	return path
}

// NormalizeAction 动作统一为大写 HTTP 方法
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
