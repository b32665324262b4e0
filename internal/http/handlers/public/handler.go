package public

import "github.com/maryema-next/internal/provider"

// Handler 前台接口处理器入口
// 说明：面向顾客与商品提供方，后台管理接口见 admin 包。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
