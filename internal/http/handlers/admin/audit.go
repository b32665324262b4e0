package admin

import (
	"strings"
	"time"

	handlershared "github.com/maryema-next/internal/http/handlers/shared"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAuditLogs 后台审计日志，resource 按前缀过滤
func (h *Handler) GetAuditLogs(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	filter := repository.AdminAuditLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		OperatorID:  handlershared.QueryUint(c, "operator_id"),
		Action:      strings.TrimSpace(c.Query("action")),
		Resource:    strings.TrimSpace(c.Query("resource")),
		CreatedFrom: queryTime(c, "created_from"),
		CreatedTo:   queryTime(c, "created_to"),
	}
	logs, total, err := h.AdminAuditService.List(actor, filter)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

func queryTime(c *gin.Context, name string) *time.Time {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// audit 记录一次后台写操作；失败只告警不影响响应
func (h *Handler) audit(c *gin.Context, action, resource string, detail models.JSON) {
	if h == nil || h.AdminAuditService == nil {
		return
	}
	actor, _ := handlershared.GetActorIfPresent(c)
	entry := service.AdminAuditEntry{
		Operator:         actor,
		OperatorUsername: currentUsername(c),
		Action:           action,
		Resource:         resource,
		Method:           c.Request.Method,
		RequestID:        currentRequestID(c),
		Detail:           detail,
	}
	if err := h.AdminAuditService.Record(entry); err != nil {
		requestLog(c).Warnw("admin_audit_record_failed", "action", action, "resource", resource, "error", err)
	}
}
