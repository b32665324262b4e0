package service

import (
	"fmt"
	"strings"
)

// Violation 单条校验失败项
type Violation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError 写入前的业务校验失败，携带全部失败项
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field == "" {
			parts = append(parts, v.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return strings.Join(parts, "; ")
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasCode 是否包含指定 code 的失败项
func (e *ValidationError) HasCode(code string) bool {
	if e == nil {
		return false
	}
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func newValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Violations: []Violation{{Field: field, Code: code, Message: message}}}
}

// violations 收集多条失败项
type violations []Violation

func (vs *violations) add(field, code, message string) {
	*vs = append(*vs, Violation{Field: field, Code: code, Message: message})
}

// err 无失败项时返回 nil
func (vs violations) err() error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: vs}
}

// 校验失败 code
const (
	CodeCartInactive          = "cart.inactive"
	CodeCartEmpty             = "cart.empty"
	CodeCartCodeLimit         = "cart.code_limit"
	CodeQuantityInvalid       = "quantity.invalid"
	CodeOrderTerminal         = "order.terminal"
	CodeOrderItemsRequired    = "order.items_required"
	CodeOrderTransition       = "order.transition_invalid"
	CodeOrderStatusInvalid    = "order.status_invalid"
	CodeOrderCloseReason      = "order.close_reason_required"
	CodeDiscountWindow        = "discount.window_invalid"
	CodeDiscountValue         = "discount.value_invalid"
	CodeDiscountEnum          = "discount.enum_invalid"
	CodeDiscountRange         = "discount.range_invalid"
	CodeDiscountCustomers     = "discount.customers_required"
	CodeDiscountEntitled      = "discount.entitled_required"
	CodeDiscountExclusive     = "discount.collections_exclusive"
	CodeDiscountDuplicate     = "discount.variant_duplicate"
	CodeDiscountPrerequisite  = "discount.prerequisite_invalid"
	CodeDiscountRatio         = "discount.ratio_invalid"
	CodeDiscountCodeInvalid   = "discount.code_invalid"
	CodeDiscountCodeInactive  = "discount.code_inactive"
	CodeDiscountUsageExceeded = "discount.usage_exceeded"
	CodeVariantPrice          = "variant.price_invalid"
	CodeFeedbackRate          = "feedback.rate_invalid"
	CodeRoleInvalid           = "profile.role_invalid"
	CodeRequired              = "field.required"
)
