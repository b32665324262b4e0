package service

import "github.com/maryema-next/internal/constants"

// Actor 当前请求的调用方身份
type Actor struct {
	ProfileID uint
	Role      string
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool {
	return a.Role == constants.RoleAdmin
}

// IsCustomer 是否顾客
func (a Actor) IsCustomer() bool {
	return a.Role == constants.RoleCustomer
}

// IsProvider 是否供应商
func (a Actor) IsProvider() bool {
	return a.Role == constants.RoleProvider
}
