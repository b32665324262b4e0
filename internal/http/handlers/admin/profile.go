package admin

import (
	"strings"

	handlershared "github.com/maryema-next/internal/http/handlers/shared"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRoleRequest 修改角色请求
type UpdateProfileRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// GetProfiles 账号列表
func (h *Handler) GetProfiles(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	profiles, total, err := h.ProfileService.List(actor, repository.ProfileListFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     c.Query("role"),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, profiles, response.BuildPagination(page, pageSize, total))
}

// GetProfile 账号详情
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	profile, err := h.ProfileService.Get(id)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, profile)
}

// UpdateProfileRole 修改账号角色
func (h *Handler) UpdateProfileRole(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateProfileRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	profile, err := h.ProfileService.UpdateRole(actor, id, req.Role)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	h.audit(c, service.AuditProfileRoleUpdate, service.AuditResource("profile", profile.ID), models.JSON{
		"username": profile.Username,
		"role":     profile.Role,
	})
	response.Success(c, profile)
}

// GetProfileLoginLogs 账号登录日志
func (h *Handler) GetProfileLoginLogs(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	logs, total, err := h.AuthService.ListLoginLogs(actor, id, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}
