package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey 请求 ID 在 gin 上下文中的键
const RequestIDKey = "request_id"

// Response 统一响应体；HTTP 状态码固定 200，结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
	HasNext   bool  `json:"has_next"`
}

// BuildPagination 由页码与总数推算总页数
func BuildPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	p.HasNext = int64(page) < p.TotalPage
	return p
}

func write(c *gin.Context, body Response) {
	c.JSON(http.StatusOK, body)
}

// Success 成功
func Success(c *gin.Context, data any) {
	write(c, Response{StatusCode: CodeOK, Msg: "success", Data: data})
}

// SuccessWithPage 分页列表
func SuccessWithPage(c *gin.Context, data any, pagination Pagination) {
	write(c, Response{StatusCode: CodeOK, Msg: "success", Data: data, Pagination: &pagination})
}

// Error 失败，data 中附带 request_id
func Error(c *gin.Context, code int, msg string) {
	ErrorWithData(c, code, msg, nil)
}

// ErrorWithData 失败并携带明细（如校验失败项）
func ErrorWithData(c *gin.Context, code int, msg string, data any) {
	write(c, Response{StatusCode: code, Msg: msg, Data: withRequestID(c, data)})
}

// Abort 写出失败响应并终止后续中间件
func Abort(c *gin.Context, code int, msg string) {
	Error(c, code, msg)
	c.Abort()
}

func withRequestID(c *gin.Context, data any) any {
	if c == nil {
		return data
	}
	id := c.GetString(RequestIDKey)
	if id == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{RequestIDKey: id}
	case gin.H:
		if _, ok := v[RequestIDKey]; !ok {
			v[RequestIDKey] = id
		}
		return v
	default:
		return gin.H{RequestIDKey: id, "data": data}
	}
}
