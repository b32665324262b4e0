package shared

import (
	"strconv"

	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// 鉴权中间件写入的上下文键
const (
	ContextProfileIDKey = "profile_id"
	ContextRoleKey      = "role"
	ContextUsernameKey  = "username"
)

// GetActor 读取当前账号身份
func GetActor(c *gin.Context) (service.Actor, bool) {
	profileID, ok := GetContextUintWithKeys(c, ContextProfileIDKey, "error.profile_id_invalid", "error.profile_id_type_invalid")
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ProfileID: profileID, Role: c.GetString(ContextRoleKey)}, true
}

// ParseIDParam 解析路径中的正整数 ID
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}

// GetActorIfPresent 读取当前账号身份，缺失时不写响应
func GetActorIfPresent(c *gin.Context) (service.Actor, bool) {
	value, exists := c.Get(ContextProfileIDKey)
	if !exists {
		return service.Actor{}, false
	}
	profileID, ok := value.(uint)
	if !ok || profileID == 0 {
		return service.Actor{}, false
	}
	return service.Actor{ProfileID: profileID, Role: c.GetString(ContextRoleKey)}, true
}
