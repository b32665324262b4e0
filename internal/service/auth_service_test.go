package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
)

func TestAuthServiceRegisterCreatesCustomerWithCart(t *testing.T) {
	env := setupServiceEnv(t)

	profile, err := env.auth.Register(RegisterInput{Username: " shopper ", Password: "secret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if profile.Username != "shopper" || profile.Role != constants.RoleCustomer {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.PasswordHash == "secret123" {
		t.Fatalf("password must be hashed")
	}
	env.activeCart(t, profile.ID)

	if _, err := env.auth.Register(RegisterInput{Username: "shopper", Password: "secret123"}); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected username exists, got %v", err)
	}
	if _, err := env.auth.Register(RegisterInput{Username: "weak", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if _, err := env.auth.Register(RegisterInput{Username: "nodigit", Password: "abcdefghij"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password without digits, got %v", err)
	}
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	env := setupServiceEnv(t)
	registered, err := env.auth.Register(RegisterInput{Username: "login_user", Password: "secret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, _, err = env.auth.Login(LoginInput{Username: "login_user", Password: "wrong-pass1", ClientIP: "10.0.0.1"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	_, _, _, err = env.auth.Login(LoginInput{Username: "ghost", Password: "secret123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user must look like bad credentials, got %v", err)
	}

	profile, token, expiresAt, err := env.auth.Login(LoginInput{Username: "login_user", Password: "secret123", RequestID: "req-1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if profile.LastLoginAt == nil || expiresAt.IsZero() {
		t.Fatalf("login must stamp last login and expiry")
	}
	claims, err := env.auth.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.ProfileID != registered.ID || claims.Role != constants.RoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := env.auth.ParseJWT(token + "x"); err == nil {
		t.Fatalf("tampered token must be rejected")
	}

	var logs []models.ProfileLoginLog
	if err := env.db.Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load login logs failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("want 3 login logs got %d", len(logs))
	}
	if logs[0].FailReason != constants.LoginFailReasonBadPassword || logs[1].FailReason != constants.LoginFailReasonNotFound {
		t.Fatalf("unexpected fail reasons: %+v", logs)
	}
	if logs[2].Status != constants.LoginLogStatusSuccess || logs[2].RequestID != "req-1" {
		t.Fatalf("unexpected success log: %+v", logs[2])
	}
}

func TestAuthServiceChangePasswordRevokesTokens(t *testing.T) {
	env := setupServiceEnv(t)
	if _, err := env.auth.Register(RegisterInput{Username: "rotate", Password: "secret123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	profile, token, _, err := env.auth.Login(LoginInput{Username: "rotate", Password: "secret123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := env.auth.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if _, err := env.auth.ResolveAuthState(context.Background(), claims); err != nil {
		t.Fatalf("fresh token must resolve: %v", err)
	}

	if err := env.auth.ChangePassword(profile.ID, "bad-old-1", "newsecret456"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected invalid password, got %v", err)
	}
	if err := env.auth.ChangePassword(profile.ID, "secret123", "newsecret456"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := env.auth.ResolveAuthState(context.Background(), claims); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("old token must be revoked, got %v", err)
	}
	if _, _, _, err := env.auth.Login(LoginInput{Username: "rotate", Password: "newsecret456"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestProfileServiceRoleAndWishlist(t *testing.T) {
	env := setupServiceEnv(t)
	admin := env.createAdmin(t)
	provider := env.createProfile(t, "becomes_customer", constants.RoleProvider)
	_, customer := env.createCustomer(t, "wish_customer")
	product := env.createProduct(t, "kettle")
	variant := env.createVariant(t, product.ID, "", "30.00")

	if _, err := env.profile.UpdateRole(customer, provider.ID, constants.RoleCustomer); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer cannot change roles, got %v", err)
	}
	_, err := env.profile.UpdateRole(admin, provider.ID, "root")
	requireViolation(t, err, CodeRoleInvalid)

	updated, err := env.profile.UpdateRole(admin, provider.ID, "CUSTOMER")
	if err != nil {
		t.Fatalf("update role failed: %v", err)
	}
	if updated.Role != constants.RoleCustomer || updated.TokenVersion != provider.TokenVersion+1 {
		t.Fatalf("role change must bump token version: %+v", updated)
	}
	env.activeCart(t, provider.ID)

	if _, err := env.profile.AddWishlist(customer, 9999); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected variant not found, got %v", err)
	}
	if _, err := env.profile.AddWishlist(customer, variant.ID); err != nil {
		t.Fatalf("add wishlist failed: %v", err)
	}
	list, err := env.profile.AddWishlist(customer, variant.ID)
	if err != nil {
		t.Fatalf("repeat add wishlist failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != variant.ID {
		t.Fatalf("unexpected wishlist: %+v", list)
	}
	list, err = env.profile.RemoveWishlist(customer, variant.ID)
	if err != nil {
		t.Fatalf("remove wishlist failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("wishlist should be empty")
	}

	profiles, total, err := env.profile.List(admin, repository.ProfileListFilter{Role: constants.RoleCustomer})
	if err != nil {
		t.Fatalf("list profiles failed: %v", err)
	}
	if total != 2 || len(profiles) != 2 {
		t.Fatalf("want 2 customers got %d", total)
	}
}

func TestProfileServiceEnsureDefaultAdmin(t *testing.T) {
	env := setupServiceEnv(t)
	if err := env.profile.EnsureDefaultAdmin("root", "secret123"); err != nil {
		t.Fatalf("ensure admin failed: %v", err)
	}
	if err := env.profile.EnsureDefaultAdmin("root", "other-pass1"); err != nil {
		t.Fatalf("ensure admin must be idempotent: %v", err)
	}
	profile, _, _, err := env.auth.Login(LoginInput{Username: "root", Password: "secret123"})
	if err != nil {
		t.Fatalf("default admin login failed: %v", err)
	}
	if !profile.IsAdmin() {
		t.Fatalf("default profile must be admin")
	}
}

func TestValidatePasswordPolicy(t *testing.T) {
	policy := config.PasswordPolicyConfig{MinLength: 8, RequireUpper: true, RequireNumber: true}
	cases := []struct {
		name     string
		username string
		password string
		key      string
	}{
		{"ok", "shopper", "Winter2026", ""},
		{"too_short", "shopper", "Ab1", "error.password_min_length"},
		{"no_upper", "shopper", "winter2026", "error.password_require_upper"},
		{"no_number", "shopper", "WinterSnow", "error.password_require_number"},
		{"contains_username", "shopper", "Shopper2026", "error.password_contains_username"},
		{"too_long", "shopper", "A1" + strings.Repeat("x", 80), "error.password_max_length"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(policy, tc.username, tc.password)
			if tc.key == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var perr passwordPolicyError
			if !errors.As(err, &perr) || perr.Key() != tc.key {
				t.Fatalf("want %s got %v", tc.key, err)
			}
			if !errors.Is(err, ErrWeakPassword) {
				t.Fatalf("policy errors must match ErrWeakPassword")
			}
		})
	}
}
