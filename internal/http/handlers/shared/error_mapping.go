package shared

import (
	"errors"

	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/i18n"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// 具体资源的 404 排在 ErrNotFound 之前
var notFoundErrorRules = []MappedHandlerError{
	{Target: service.ErrProfileNotFound, Code: response.CodeNotFound, Key: "error.profile_not_found"},
	{Target: service.ErrCartNotFound, Code: response.CodeNotFound, Key: "error.cart_not_found"},
	{Target: service.ErrCartItemNotFound, Code: response.CodeNotFound, Key: "error.cart_item_not_found"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderItemNotFound, Code: response.CodeNotFound, Key: "error.order_item_not_found"},
	{Target: service.ErrCategoryNotFound, Code: response.CodeNotFound, Key: "error.category_not_found"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrVariantNotFound, Code: response.CodeNotFound, Key: "error.variant_not_found"},
	{Target: service.ErrVariantDiscountNotFound, Code: response.CodeNotFound, Key: "error.variant_discount_not_found"},
	{Target: service.ErrCollectionNotFound, Code: response.CodeNotFound, Key: "error.collection_not_found"},
	{Target: service.ErrDiscountRuleNotFound, Code: response.CodeNotFound, Key: "error.discount_rule_not_found"},
	{Target: service.ErrDiscountCodeNotFound, Code: response.CodeNotFound, Key: "error.discount_code_not_found"},
	{Target: service.ErrFeedbackNotFound, Code: response.CodeNotFound, Key: "error.feedback_not_found"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
}

var permissionErrorRules = []MappedHandlerError{
	{Target: service.ErrNotCustomer, Code: response.CodeForbidden, Key: "error.not_customer"},
	{Target: service.ErrNotOwner, Code: response.CodeForbidden, Key: "error.not_owner"},
	{Target: service.ErrNotProvider, Code: response.CodeForbidden, Key: "error.not_provider"},
	{Target: service.ErrNotAdmin, Code: response.CodeForbidden, Key: "error.forbidden"},
	{Target: service.ErrForbidden, Code: response.CodeForbidden, Key: "error.forbidden"},
}

var authErrorRules = []MappedHandlerError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_invalid"},
	{Target: service.ErrTokenRevoked, Code: response.CodeUnauthorized, Key: "error.token_revoked"},
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.password_old_invalid"},
	{Target: service.ErrWeakPassword, Code: response.CodeBadRequest, Key: "error.password_weak"},
	{Target: service.ErrUsernameExists, Code: response.CodeConflict, Key: "error.username_exists"},
}

// CommonErrorRules 所有接口共用的业务错误映射
var CommonErrorRules = ConcatMappedHandlerErrors(
	authErrorRules,
	notFoundErrorRules,
	permissionErrorRules,
	[]MappedHandlerError{
		{Target: service.ErrDashboardRangeInvalid, Code: response.CodeBadRequest, Key: "error.dashboard_range_invalid"},
		{Target: service.ErrConflict, Code: response.CodeConflict, Key: "error.conflict"},
	},
)

// ConcatMappedHandlerErrors 合并多组映射
func ConcatMappedHandlerErrors(groups ...[]MappedHandlerError) []MappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// localizedError 携带消息键与参数的业务错误（如密码策略）
type localizedError interface {
	Key() string
	Args() []interface{}
}

// RespondWithMappedError 按映射表返回错误；校验错误带上全部失败项
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		response.ErrorWithData(c, response.CodeBadRequest, validationErr.Error(), gin.H{"violations": validationErr.Violations})
		return
	}
	var perr localizedError
	if errors.As(err, &perr) {
		msg := i18n.Sprintf(i18n.ResolveLocale(c), perr.Key(), perr.Args()...)
		response.Error(c, response.CodeBadRequest, msg)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// RespondServiceError 按通用映射返回业务错误
func RespondServiceError(c *gin.Context, err error, fallbackKey string) {
	RespondWithMappedError(c, err, CommonErrorRules, response.CodeInternal, fallbackKey)
}
