package public

import (
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加入购物车请求
type CartItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

// CartItemQuantityRequest 修改数量请求（0 表示删除）
type CartItemQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// DiscountCodeRequest 折扣码请求
type DiscountCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart 获取当前购物车
func (h *Handler) GetCart(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	cart, err := h.CartService.GetCart(actor)
	if err != nil {
		respondServiceError(c, err, "error.cart_fetch_failed")
		return
	}
	response.Success(c, cart)
}

// AddCartItem 加入购物车，同规格合并数量
func (h *Handler) AddCartItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	cart, err := h.CartService.AddItem(actor, service.AddCartItemInput{VariantID: req.VariantID, Quantity: req.Quantity})
	if err != nil {
		respondServiceError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, cart)
}

// UpdateCartItem 修改购物车明细数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CartItemQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	cart, err := h.CartService.UpdateItem(actor, itemID, *req.Quantity)
	if err != nil {
		respondServiceError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, cart)
}

// DeleteCartItem 删除购物车明细
func (h *Handler) DeleteCartItem(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	cart, err := h.CartService.DeleteItem(actor, itemID)
	if err != nil {
		respondServiceError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, cart)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	cart, err := h.CartService.ClearCart(actor)
	if err != nil {
		respondServiceError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, cart)
}

// ApplyCartCode 应用折扣码
func (h *Handler) ApplyCartCode(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req DiscountCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	cart, err := h.CartService.ApplyCode(actor, req.Code)
	if err != nil {
		respondServiceError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, cart)
}

// RemoveCartCode 移除折扣码
func (h *Handler) RemoveCartCode(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	cart, err := h.CartService.RemoveCode(actor, c.Param("code"))
	if err != nil {
		respondServiceError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, cart)
}

// PreviewCart 折扣预览（不占用使用次数）
func (h *Handler) PreviewCart(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	preview, err := h.CartService.Preview(actor)
	if err != nil {
		respondServiceError(c, err, "error.cart_fetch_failed")
		return
	}
	response.Success(c, preview)
}

// Checkout 购物车结算下单
func (h *Handler) Checkout(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	order, err := h.CartService.Checkout(actor)
	if err != nil {
		respondServiceError(c, err, "error.order_create_failed")
		return
	}
	response.Success(c, order)
}
