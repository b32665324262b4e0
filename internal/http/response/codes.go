package response

// 业务状态码沿用 HTTP 语义，写在响应体 status_code 中
const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500
)

// IsServerError 服务端故障，需要按错误级别记录
func IsServerError(code int) bool {
	return code >= CodeInternal
}
