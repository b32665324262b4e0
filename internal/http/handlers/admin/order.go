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

// CreateOrderRequest 后台建单请求
type CreateOrderRequest struct {
	CustomerID uint `json:"customer_id" binding:"required"`
}

// CloseOrderRequest 关闭订单请求
type CloseOrderRequest struct {
	CloseReason string `json:"close_reason" binding:"required"`
}

// OrderItemRequest 订单明细请求
type OrderItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

// OrderItemQuantityRequest 订单明细数量请求
type OrderItemQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetOrders 订单列表
func (h *Handler) GetOrders(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	filter := repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: handlershared.QueryUint(c, "customer_id"),
		Status:     strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("created_from")); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if raw := strings.TrimSpace(c.Query("created_to")); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &t
		}
	}
	orders, total, err := h.OrderService.List(actor, filter)
	if err != nil {
		respondServiceError(c, err, "error.order_fetch_failed")
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// CreateOrder 为顾客创建空订单
func (h *Handler) CreateOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.Create(actor, req.CustomerID)
	if err != nil {
		respondServiceError(c, err, "error.order_create_failed")
		return
	}
	response.Success(c, order)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(actor, id)
	if err != nil {
		respondServiceError(c, err, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 更新订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// ProcessOrder 开始处理
func (h *Handler) ProcessOrder(c *gin.Context) {
	h.transitionOrder(c, h.OrderService.Process)
}

// FulfillOrder 完成履约
func (h *Handler) FulfillOrder(c *gin.Context) {
	h.transitionOrder(c, h.OrderService.Fulfill)
}

func (h *Handler) transitionOrder(c *gin.Context, fn func(service.Actor, uint) (*models.Order, error)) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := fn(actor, id)
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// CloseOrder 强制关闭订单
func (h *Handler) CloseOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CloseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.Close(actor, id, req.CloseReason)
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	h.audit(c, service.AuditOrderClose, service.AuditResource("order", id), models.JSON{"reason": req.CloseReason})
	response.Success(c, order)
}

// AddOrderItem 订单加项（同规格合并数量）
func (h *Handler) AddOrderItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.AddItem(actor, id, req.VariantID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// UpdateOrderItem 修改订单明细数量
func (h *Handler) UpdateOrderItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req OrderItemQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.UpdateItem(actor, itemID, *req.Quantity)
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// DeleteOrderItem 删除订单明细
func (h *Handler) DeleteOrderItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.DeleteItem(actor, itemID)
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// GetOrderEvents 订单状态流水
func (h *Handler) GetOrderEvents(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	events, err := h.OrderService.ListEvents(actor, id)
	if err != nil {
		respondServiceError(c, err, "error.order_fetch_failed")
		return
	}
	response.Success(c, events)
}
