package admin

import (
	"strconv"

	handlershared "github.com/maryema-next/internal/http/handlers/shared"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListVariantDiscounts 规格折扣列表
func (h *Handler) ListVariantDiscounts(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	filter := repository.VariantDiscountListFilter{
		VariantID: handlershared.QueryUint(c, "variant_id"),
		Page:      page,
		PageSize:  pageSize,
	}
	if raw := c.Query("is_active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	items, total, err := h.VariantDiscountService.List(filter)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// CreateVariantDiscount 新增规格折扣
func (h *Handler) CreateVariantDiscount(c *gin.Context) {
	var req service.VariantDiscountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	discount, err := h.VariantDiscountService.Create(req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	h.audit(c, service.AuditVariantDiscountWrite, service.AuditResource("variant_discount", discount.ID), models.JSON{"op": "create", "variant_id": discount.VariantID})
	response.Success(c, discount)
}

// UpdateVariantDiscount 修改规格折扣
func (h *Handler) UpdateVariantDiscount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.VariantDiscountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	discount, err := h.VariantDiscountService.Update(id, req)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	h.audit(c, service.AuditVariantDiscountWrite, service.AuditResource("variant_discount", id), models.JSON{"op": "update", "variant_id": discount.VariantID})
	response.Success(c, discount)
}

// DeleteVariantDiscount 删除规格折扣
func (h *Handler) DeleteVariantDiscount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.VariantDiscountService.Delete(id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	h.audit(c, service.AuditVariantDiscountWrite, service.AuditResource("variant_discount", id), models.JSON{"op": "delete"})
	response.Success(c, gin.H{"deleted": true})
}
