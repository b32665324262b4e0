package shared

import (
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/i18n"
	"github.com/maryema-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 与当前账号的日志
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	var fields []interface{}
	if id := c.GetString(response.RequestIDKey); id != "" {
		fields = append(fields, "request_id", id)
	}
	if profileID, ok := c.Get(ContextProfileIDKey); ok {
		fields = append(fields, "profile_id", profileID)
	}
	if len(fields) == 0 {
		return logger.S()
	}
	return logger.SW(fields...)
}

// RespondError 按消息键输出本地化错误；服务端错误记 error，其余记 warn
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	if err != nil {
		log := RequestLog(c).With("code", code, "key", key, "path", c.FullPath(), "error", err)
		if response.IsServerError(code) {
			log.Errorw("handler_error")
		} else {
			log.Warnw("handler_rejected")
		}
	}
	response.Error(c, code, msg)
}
