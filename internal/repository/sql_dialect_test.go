package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
)

func TestBuildLikeConditionByDialectSQLite(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", []string{"name", " ", "description"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "name LIKE ? OR description LIKE ?" {
		t.Fatalf("unexpected condition: %s", condition)
	}
}

func TestBuildLikeConditionByDialectPostgres(t *testing.T) {
	condition, _ := buildLikeConditionByDialect("postgres", []string{"username"})
	if !strings.Contains(condition, "username ILIKE ?") {
		t.Fatalf("postgres condition should use ILIKE, got %s", condition)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("create cart: %w", gorm.ErrDuplicatedKey), true},
		{errors.New("UNIQUE constraint failed: cart_items.cart_id, cart_items.variant_id"), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_carts_active_customer" (SQLSTATE 23505)`), true},
		{errors.New("record not found"), false},
	}
	for _, tc := range cases {
		if got := IsDuplicateKeyError(tc.err); got != tc.want {
			t.Fatalf("IsDuplicateKeyError(%v) want %v got %v", tc.err, tc.want, got)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`discount_rule:50%\x`); got != `discount\_rule:50\%\\x` {
		t.Fatalf("unexpected escape result %q", got)
	}
}
