package public

import (
	"time"

	handlershared "github.com/maryema-next/internal/http/handlers/shared"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	PhoneNumber string `json:"phone_number"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *models.Profile `json:"profile"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Register 顾客注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	profile, err := h.AuthService.Register(service.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondServiceError(c, err, "error.register_failed")
		return
	}
	response.Success(c, profile)
}

// Login 账号登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	profile, token, expiresAt, err := h.AuthService.Login(service.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		ClientIP:  c.ClientIP(),
		RequestID: c.GetString(response.RequestIDKey),
	})
	if err != nil {
		respondServiceError(c, err, "error.login_failed")
		return
	}
	response.Success(c, LoginResponse{Token: token, ExpiresAt: expiresAt, Profile: profile})
}

// GetMe 当前账号
func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	profile, err := h.ProfileService.Get(actor.ProfileID)
	if err != nil {
		respondServiceError(c, err, "error.profile_fetch_failed")
		return
	}
	response.Success(c, profile)
}

// UpdateMe 修改本人资料
func (h *Handler) UpdateMe(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.UpdateContactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	profile, err := h.ProfileService.UpdateContact(actor, req)
	if err != nil {
		respondServiceError(c, err, "error.profile_update_failed")
		return
	}
	response.Success(c, profile)
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthService.ChangePassword(actor.ProfileID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "error.profile_update_failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// GetMyLoginLogs 本人登录日志
func (h *Handler) GetMyLoginLogs(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	logs, total, err := h.AuthService.ListLoginLogs(actor, 0, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

// GetWishlist 心愿单
func (h *Handler) GetWishlist(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	variants, err := h.ProfileService.ListWishlist(actor)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, variants)
}

// AddWishlist 加入心愿单
func (h *Handler) AddWishlist(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	variantID, ok := parseID(c, "variant_id")
	if !ok {
		return
	}
	variants, err := h.ProfileService.AddWishlist(actor, variantID)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, variants)
}

// RemoveWishlist 移出心愿单
func (h *Handler) RemoveWishlist(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	variantID, ok := parseID(c, "variant_id")
	if !ok {
		return
	}
	variants, err := h.ProfileService.RemoveWishlist(actor, variantID)
	if err != nil {
		respondServiceError(c, err, "error.update_failed")
		return
	}
	response.Success(c, variants)
}
