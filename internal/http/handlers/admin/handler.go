package admin

import "github.com/maryema-next/internal/provider"

// Handler 后台管理接口处理器
// 说明：所有接口均经过 JWT 与 RBAC 中间件，仅 admin 角色放行。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
