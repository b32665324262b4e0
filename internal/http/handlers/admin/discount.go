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

// QuantityRatioRequest 买 X 送 Y 比例请求
type QuantityRatioRequest struct {
	PrerequisiteQuantity int `json:"prerequisite_quantity"`
	EntitledQuantity     int `json:"entitled_quantity"`
}

// ListDiscountRules 折扣规则列表
func (h *Handler) ListDiscountRules(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	filter := repository.DiscountRuleListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if c.Query("active") == "true" {
		now := time.Now()
		filter.ActiveAt = &now
	}
	rules, total, err := h.DiscountService.ListRules(filter)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, rules, response.BuildPagination(page, pageSize, total))
}

// GetDiscountRule 折扣规则详情（含关联集合）
func (h *Handler) GetDiscountRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rule, err := h.DiscountService.GetRule(id)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, rule)
}

// CreateDiscountRule 新增折扣规则
func (h *Handler) CreateDiscountRule(c *gin.Context) {
	var req service.DiscountRuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rule, err := h.DiscountService.CreateRule(req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	h.audit(c, service.AuditDiscountRuleCreate, service.AuditResource("discount_rule", rule.ID), models.JSON{"title": rule.Title})
	response.Success(c, rule)
}

// UpdateDiscountRule 修改折扣规则
func (h *Handler) UpdateDiscountRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.DiscountRuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rule, err := h.DiscountService.UpdateRule(id, req)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	h.audit(c, service.AuditDiscountRuleUpdate, service.AuditResource("discount_rule", id), models.JSON{"title": rule.Title})
	response.Success(c, rule)
}

// DeleteDiscountRule 删除折扣规则
func (h *Handler) DeleteDiscountRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.DiscountService.DeleteRule(id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	h.audit(c, service.AuditDiscountRuleDelete, service.AuditResource("discount_rule", id), nil)
	response.Success(c, gin.H{"deleted": true})
}

// SetDiscountRuleRatio 设置买 X 送 Y 比例
func (h *Handler) SetDiscountRuleRatio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req QuantityRatioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rule, err := h.DiscountService.SetRatio(id, req.PrerequisiteQuantity, req.EntitledQuantity)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, rule)
}

// DeleteDiscountRuleRatio 删除买 X 送 Y 比例
func (h *Handler) DeleteDiscountRuleRatio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.DiscountService.DeleteRatio(id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ListDiscountRuleCodes 规则下的折扣码
func (h *Handler) ListDiscountRuleCodes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.listDiscountCodes(c, id)
}

// ListDiscountCodes 折扣码列表
func (h *Handler) ListDiscountCodes(c *gin.Context) {
	h.listDiscountCodes(c, handlershared.QueryUint(c, "rule_id"))
}

func (h *Handler) listDiscountCodes(c *gin.Context, ruleID uint) {
	page, pageSize := handlershared.PageQuery(c)
	codes, total, err := h.DiscountService.ListCodes(repository.DiscountCodeListFilter{
		Page:     page,
		PageSize: pageSize,
		RuleID:   ruleID,
		Code:     strings.TrimSpace(c.Query("code")),
	})
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, codes, response.BuildPagination(page, pageSize, total))
}

// CreateDiscountCode 为规则新增折扣码
func (h *Handler) CreateDiscountCode(c *gin.Context) {
	ruleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.DiscountCodeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	code, err := h.DiscountService.CreateCode(ruleID, req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	response.Success(c, code)
}

// GenerateDiscountCodes 批量生成折扣码
func (h *Handler) GenerateDiscountCodes(c *gin.Context) {
	ruleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.GenerateCodesInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	codes, err := h.DiscountService.GenerateCodes(ruleID, req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	requestLog(c).Infow("admin_discount_codes_generated", "rule_id", ruleID, "count", len(codes))
	h.audit(c, service.AuditDiscountCodeGenerate, service.AuditResource("discount_rule", ruleID), models.JSON{"count": len(codes)})
	response.Success(c, codes)
}

// UpdateDiscountCode 修改折扣码
func (h *Handler) UpdateDiscountCode(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.DiscountCodeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	code, err := h.DiscountService.UpdateCode(id, req)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, code)
}

// DeleteDiscountCode 删除折扣码
func (h *Handler) DeleteDiscountCode(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.DiscountService.DeleteCode(id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	h.audit(c, service.AuditDiscountCodeDelete, service.AuditResource("discount_code", id), nil)
	response.Success(c, gin.H{"deleted": true})
}
