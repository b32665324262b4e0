package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
)

// 审计动作
const (
	AuditPolicyGrant          = "policy_grant"
	AuditPolicyRevoke         = "policy_revoke"
	AuditProfileRoleUpdate    = "profile_role_update"
	AuditDiscountRuleCreate   = "discount_rule_create"
	AuditDiscountRuleUpdate   = "discount_rule_update"
	AuditDiscountRuleDelete   = "discount_rule_delete"
	AuditDiscountCodeGenerate = "discount_code_generate"
	AuditDiscountCodeDelete   = "discount_code_delete"
	AuditVariantDiscountWrite = "variant_discount_write"
	AuditOrderClose           = "order_close"
)

// AuditResource 资源标识，形如 discount_rule:12
func AuditResource(kind string, id any) string {
	return fmt.Sprintf("%s:%v", kind, id)
}

// AdminAuditEntry 一条后台审计
type AdminAuditEntry struct {
	Operator         Actor
	OperatorUsername string
	Action           string
	Resource         string
	Method           string
	RequestID        string
	Detail           models.JSON
}

// AdminAuditService 后台写操作审计
type AdminAuditService struct {
	repo repository.AdminAuditLogRepository
	now  func() time.Time
}

// NewAdminAuditService 创建审计服务
func NewAdminAuditService(repo repository.AdminAuditLogRepository) *AdminAuditService {
	return &AdminAuditService{repo: repo, now: time.Now}
}

// Record 写入审计；匿名操作或缺少动作时忽略
func (s *AdminAuditService) Record(entry AdminAuditEntry) error {
	if s == nil || s.repo == nil {
		return nil
	}
	action := strings.TrimSpace(entry.Action)
	if entry.Operator.ProfileID == 0 || action == "" {
		return nil
	}
	return s.repo.Create(&models.AdminAuditLog{
		OperatorID:       entry.Operator.ProfileID,
		OperatorUsername: strings.TrimSpace(entry.OperatorUsername),
		Action:           action,
		Resource:         strings.TrimSpace(entry.Resource),
		Method:           strings.ToUpper(strings.TrimSpace(entry.Method)),
		RequestID:        strings.TrimSpace(entry.RequestID),
		Detail:           entry.Detail,
		CreatedAt:        s.now(),
	})
}

// List 管理员查询审计
func (s *AdminAuditService) List(actor Actor, filter repository.AdminAuditLogListFilter) ([]models.AdminAuditLog, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, ErrNotAdmin
	}
	filter.Action = strings.TrimSpace(filter.Action)
	return s.repo.List(filter)
}
