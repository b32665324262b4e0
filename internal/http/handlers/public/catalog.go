package public

import (
	"errors"
	"fmt"
	"strings"

	handlershared "github.com/maryema-next/internal/http/handlers/shared"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// VariantView 规格详情，附带当前生效单价
type VariantView struct {
	*models.ProductVariant
	ActivePrice models.Money            `json:"active_price"`
	Discount    *models.VariantDiscount `json:"discount,omitempty"`
}

// GetCategories 分类列表
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.CatalogService.ListCategories()
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, categories)
}

// GetProducts 商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	minPrice, err := queryPrice(c, "min_price")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	maxPrice, err := queryPrice(c, "max_price")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(maxPrice.Decimal) {
		respondError(c, response.CodeBadRequest, "error.bad_request", errors.New("min_price exceeds max_price"))
		return
	}
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   handlershared.QueryUint(c, "category_id"),
		ProviderID:   handlershared.QueryUint(c, "provider_id"),
		CollectionID: handlershared.QueryUint(c, "collection_id"),
		Search:       strings.TrimSpace(c.Query("search")),
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		Size:         strings.TrimSpace(c.Query("size")),
		Color:        strings.TrimSpace(c.Query("color")),
		OnlyActive:   true,
		WithVariants: true,
	}
	products, total, err := h.CatalogService.ListProducts(filter)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// queryPrice 解析价格参数，缺省返回 nil
func queryPrice(c *gin.Context, name string) (*models.Money, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	price, err := models.NewMoneyFromString(raw)
	if err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%s must not be negative", name)
	}
	return &price, nil
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.CatalogService.GetProduct(id)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, product)
}

// GetProductVariants 商品规格列表
func (h *Handler) GetProductVariants(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	variants, err := h.CatalogService.ListVariants(id)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, variants)
}

// GetVariant 规格详情
func (h *Handler) GetVariant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	variant, err := h.CatalogService.GetVariant(id)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	price, discount, err := h.VariantDiscountService.ActivePrice(variant)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, VariantView{ProductVariant: variant, ActivePrice: price, Discount: discount})
}

// GetCollections 商品集合列表
func (h *Handler) GetCollections(c *gin.Context) {
	collections, err := h.CatalogService.ListCollections()
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, collections)
}

// GetCollection 商品集合详情
func (h *Handler) GetCollection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	collection, err := h.CatalogService.GetCollection(id)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, collection)
}

// CreateProduct 提供方新增商品
func (h *Handler) CreateProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.CatalogService.CreateProduct(actor, req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 修改商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.CatalogService.UpdateProduct(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteProduct(actor, id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// CreateVariant 新增规格
func (h *Handler) CreateVariant(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.VariantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	variant, err := h.CatalogService.CreateVariant(actor, productID, req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	response.Success(c, variant)
}

// UpdateVariant 修改规格（价格变化会重算当前购物车）
func (h *Handler) UpdateVariant(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.VariantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	variant, err := h.CatalogService.UpdateVariant(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, variant)
}

// DeleteVariant 删除规格
func (h *Handler) DeleteVariant(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteVariant(actor, id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
