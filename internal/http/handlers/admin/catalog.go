package admin

import (
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCategory 新增分类
func (h *Handler) CreateCategory(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	category, err := h.CatalogService.CreateCategory(actor, req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	response.Success(c, category)
}

// UpdateCategory 修改分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	category, err := h.CatalogService.UpdateCategory(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类（仍有商品时冲突）
func (h *Handler) DeleteCategory(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteCategory(actor, id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// CreateCollection 新增商品集合
func (h *Handler) CreateCollection(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.CollectionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	collection, err := h.CatalogService.CreateCollection(actor, req)
	if err != nil {
		respondServiceError(c, err, "error.create_failed")
		return
	}
	response.Success(c, collection)
}

// UpdateCollection 修改商品集合
func (h *Handler) UpdateCollection(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.CollectionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	collection, err := h.CatalogService.UpdateCollection(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, collection)
}

// DeleteCollection 删除商品集合
func (h *Handler) DeleteCollection(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteCollection(actor, id); err != nil {
		respondServiceError(c, err, "error.delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
