package service

import (
	"strings"
	"unicode"

	"github.com/maryema-next/internal/config"
)

// bcrypt 只使用前 72 字节，超出部分会被拒绝
const passwordMaxBytes = 72

// passwordPolicyError 密码策略失败，消息键交给 i18n 渲染
type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string {
	return e.key
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func (e passwordPolicyError) Key() string {
	return e.key
}

func (e passwordPolicyError) Args() []interface{} {
	return e.args
}

type passwordTraits struct {
	upper, lower, number, special bool
}

func scanPassword(password string) passwordTraits {
	var traits passwordTraits
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			traits.upper = true
		case unicode.IsLower(r):
			traits.lower = true
		case unicode.IsDigit(r):
			traits.number = true
		default:
			traits.special = true
		}
	}
	return traits
}

// validatePassword 按配置检查密码，返回第一个未满足的要求
// 长度上限与“不得包含账号名”始终生效。
func validatePassword(policy config.PasswordPolicyConfig, username, password string) error {
	if len(password) > passwordMaxBytes {
		return passwordPolicyError{key: "error.password_max_length", args: []interface{}{passwordMaxBytes}}
	}
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return passwordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}

	traits := scanPassword(password)
	checks := []struct {
		required bool
		present  bool
		key      string
	}{
		{policy.RequireUpper, traits.upper, "error.password_require_upper"},
		{policy.RequireLower, traits.lower, "error.password_require_lower"},
		{policy.RequireNumber, traits.number, "error.password_require_number"},
		{policy.RequireSpecial, traits.special, "error.password_require_special"},
	}
	for _, check := range checks {
		if check.required && !check.present {
			return passwordPolicyError{key: check.key}
		}
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if len(username) >= 3 && strings.Contains(strings.ToLower(password), username) {
		return passwordPolicyError{key: "error.password_contains_username"}
	}
	return nil
}
