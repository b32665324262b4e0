package admin

import (
	"errors"
	"net/url"
	"strings"

	"github.com/maryema-next/internal/authz"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	h.recordPolicyChange(c, service.AuditPolicyGrant, req)
	response.Success(c, nil)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	h.recordPolicyChange(c, service.AuditPolicyRevoke, req)
	response.Success(c, nil)
}

func (h *Handler) recordPolicyChange(c *gin.Context, action string, req authzPolicyPayload) {
	method := strings.ToUpper(strings.TrimSpace(req.Action))
	h.audit(c, action, strings.TrimSpace(req.Role), models.JSON{
		"object": req.Object,
		"method": method,
	})
	requestLog(c).Infow("admin_authz_"+action, "role", req.Role, "object", req.Object, "action", method)
}

func respondAuthzError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrPolicyRequired):
		respondError(c, response.CodeConflict, "error.authz_policy_locked", nil)
	case errors.Is(err, authz.ErrActionInvalid):
		respondError(c, response.CodeBadRequest, "error.authz_action_invalid", nil)
	case errors.Is(err, authz.ErrUnavailable):
		respondError(c, response.CodeInternal, "error.update_failed", err)
	default:
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
	}
}

func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
