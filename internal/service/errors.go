package service

import (
	"errors"

	"github.com/maryema-next/internal/repository"
)

// 通用错误
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// 账号与鉴权
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("weak password")
	ErrUsernameExists     = errors.New("username exists")
	ErrProfileNotFound    = notFoundError{msg: "profile not found"}
	ErrTokenRevoked       = errors.New("token revoked")
)

// 后台统计
var (
	ErrDashboardRangeInvalid = errors.New("dashboard range invalid")
)

// 权限
var (
	ErrNotCustomer = permissionError{msg: "profile is not a customer"}
	ErrNotOwner    = permissionError{msg: "resource belongs to another profile"}
	ErrNotProvider = permissionError{msg: "profile cannot manage catalog"}
	ErrNotAdmin    = permissionError{msg: "admin role required"}
)

// 资源不存在
var (
	ErrCartNotFound            = notFoundError{msg: "cart not found"}
	ErrCartItemNotFound        = notFoundError{msg: "cart item not found"}
	ErrOrderNotFound           = notFoundError{msg: "order not found"}
	ErrOrderItemNotFound       = notFoundError{msg: "order item not found"}
	ErrCategoryNotFound        = notFoundError{msg: "category not found"}
	ErrProductNotFound         = notFoundError{msg: "product not found"}
	ErrVariantNotFound         = notFoundError{msg: "variant not found"}
	ErrVariantDiscountNotFound = notFoundError{msg: "variant discount not found"}
	ErrCollectionNotFound      = notFoundError{msg: "collection not found"}
	ErrDiscountRuleNotFound    = notFoundError{msg: "discount rule not found"}
	ErrDiscountCodeNotFound    = notFoundError{msg: "discount code not found"}
	ErrFeedbackNotFound        = notFoundError{msg: "feedback not found"}
)

type notFoundError struct {
	msg string
}

func (e notFoundError) Error() string {
	return e.msg
}

func (e notFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type permissionError struct {
	msg string
}

func (e permissionError) Error() string {
	return e.msg
}

func (e permissionError) Is(target error) bool {
	return target == ErrForbidden
}

// translateWriteError 将唯一约束冲突统一为 ErrConflict
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}
