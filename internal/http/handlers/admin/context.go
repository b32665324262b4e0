package admin

import (
	"strings"

	handlershared "github.com/maryema-next/internal/http/handlers/shared"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error, fallbackKey string) {
	handlershared.RespondServiceError(c, err, fallbackKey)
}

func getActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.GetActor(c)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	return handlershared.ParseIDParam(c, name)
}

func currentUsername(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(handlershared.ContextUsernameKey))
}

func currentRequestID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(response.RequestIDKey))
}
