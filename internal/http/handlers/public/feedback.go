package public

import (
	handlershared "github.com/maryema-next/internal/http/handlers/shared"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/repository"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetProductFeedback 商品评价列表（评分降序）
func (h *Handler) GetProductFeedback(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	items, total, err := h.FeedbackService.List(repository.FeedbackListFilter{
		Page:      page,
		PageSize:  pageSize,
		ProductID: productID,
	})
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// GetProductFeedbackSummary 商品评分汇总
func (h *Handler) GetProductFeedbackSummary(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}
	summary, err := h.FeedbackService.Summary(productID)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, summary)
}

// CreateFeedback 发表评价
func (h *Handler) CreateFeedback(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.FeedbackInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	feedback, err := h.FeedbackService.Create(actor, req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	response.Success(c, feedback)
}

// UpdateFeedback 修改评价
func (h *Handler) UpdateFeedback(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.FeedbackInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	feedback, err := h.FeedbackService.Update(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, feedback)
}

// DeleteFeedback 删除评价
func (h *Handler) DeleteFeedback(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.FeedbackService.Delete(actor, id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
