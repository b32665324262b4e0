package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
)

func TestDiscountServiceCreateRulePersistsAssociations(t *testing.T) {
	env := setupServiceEnv(t)
	customer, _ := env.createCustomer(t, "rule_customer")
	shoes := env.createProduct(t, "shoes")
	socks := env.createProduct(t, "socks")

	in := openWindowRule("selected", constants.DiscountValueTypePercentage, "20")
	in.CustomerSelection = constants.DiscountSelectionSelected
	in.CustomerIDs = []uint{customer.ID}
	in.TargetSelection = constants.DiscountSelectionSelected
	in.EntitledProductIDs = []uint{socks.ID}
	in.PrerequisiteProductIDs = []uint{shoes.ID}

	view, err := env.discount.CreateRule(in)
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	if len(view.CustomerIDs) != 1 || view.CustomerIDs[0] != customer.ID {
		t.Fatalf("unexpected customers: %v", view.CustomerIDs)
	}
	if len(view.EntitledProductIDs) != 1 || view.EntitledProductIDs[0] != socks.ID {
		t.Fatalf("unexpected entitled products: %v", view.EntitledProductIDs)
	}
	if len(view.PrerequisiteProductIDs) != 1 || view.PrerequisiteProductIDs[0] != shoes.ID {
		t.Fatalf("unexpected prerequisite products: %v", view.PrerequisiteProductIDs)
	}
	if view.AllocationMethod != constants.DiscountAllocationEach || view.UsageLimit != 1 {
		t.Fatalf("defaults not applied: %+v", view.DiscountRule)
	}
}

func TestDiscountServiceCreateRuleRejectsInvalidInput(t *testing.T) {
	env := setupServiceEnv(t)
	in := openWindowRule("broken", constants.DiscountValueTypeFixed, "5")
	in.TargetSelection = constants.DiscountSelectionSelected
	in.EntitledCollectionIDs = []uint{1}
	in.EntitledProductIDs = []uint{2}

	_, err := env.discount.CreateRule(in)
	requireViolation(t, err, CodeDiscountExclusive)

	var count int64
	if err := env.db.Model(&models.DiscountRule{}).Count(&count).Error; err != nil {
		t.Fatalf("count rules failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("invalid rule must not be persisted, got %d", count)
	}
}

func TestDiscountServiceRatioLifecycle(t *testing.T) {
	env := setupServiceEnv(t)
	shoes := env.createProduct(t, "shoes")
	socks := env.createProduct(t, "socks")

	fixed, err := env.discount.CreateRule(openWindowRule("fixed", constants.DiscountValueTypeFixed, "5"))
	if err != nil {
		t.Fatalf("create fixed rule failed: %v", err)
	}
	_, err = env.discount.SetRatio(fixed.ID, 2, 1)
	requireViolation(t, err, CodeDiscountRatio)

	in := openWindowRule("bxgy", constants.DiscountValueTypePercentage, "100")
	in.TargetSelection = constants.DiscountSelectionSelected
	in.EntitledProductIDs = []uint{socks.ID}
	in.PrerequisiteProductIDs = []uint{shoes.ID}
	rule, err := env.discount.CreateRule(in)
	if err != nil {
		t.Fatalf("create bxgy rule failed: %v", err)
	}
	view, err := env.discount.SetRatio(rule.ID, 2, 1)
	if err != nil {
		t.Fatalf("set ratio failed: %v", err)
	}
	if view.Ratio == nil || view.Ratio.PrerequisiteQuantity != 2 || view.Ratio.EntitledQuantity != 1 {
		t.Fatalf("unexpected ratio: %+v", view.Ratio)
	}

	in.ValueType = constants.DiscountValueTypeFixed
	in.Value = models.MustMoney("5")
	_, err = env.discount.UpdateRule(rule.ID, in)
	requireViolation(t, err, CodeDiscountRatio)

	if err := env.discount.DeleteRatio(rule.ID); err != nil {
		t.Fatalf("delete ratio failed: %v", err)
	}
	if _, err := env.discount.UpdateRule(rule.ID, in); err != nil {
		t.Fatalf("update rule without ratio failed: %v", err)
	}
}

func TestDiscountServiceCodes(t *testing.T) {
	env := setupServiceEnv(t)
	rule, code := env.createRuleWithCode(t, openWindowRule("codes", constants.DiscountValueTypeFixed, "5"), "WELCOME")
	if !code.StartsAt.Equal(rule.StartsAt) || !code.EndsAt.Equal(rule.EndsAt) {
		t.Fatalf("code window should default to rule window")
	}

	_, err := env.discount.CreateCode(rule.ID, DiscountCodeInput{Code: "WELCOME"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	_, err = env.discount.CreateCode(rule.ID, DiscountCodeInput{Code: "a!"})
	requireViolation(t, err, CodeDiscountCodeInvalid)
	_, err = env.discount.CreateCode(9999, DiscountCodeInput{Code: "MISSING"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	generated, err := env.discount.GenerateCodes(rule.ID, GenerateCodesInput{Count: 5, Prefix: "vip"})
	if err != nil {
		t.Fatalf("generate codes failed: %v", err)
	}
	if len(generated) != 5 {
		t.Fatalf("want 5 codes got %d", len(generated))
	}
	seen := map[string]bool{}
	for _, c := range generated {
		if !strings.HasPrefix(c.Code, "VIP") || len(c.Code) != 13 {
			t.Fatalf("unexpected generated code %q", c.Code)
		}
		if c.Code != strings.ToUpper(c.Code) {
			t.Fatalf("generated code must be uppercase: %q", c.Code)
		}
		seen[c.Code] = true
	}
	if len(seen) != 5 {
		t.Fatalf("generated codes must be unique")
	}

	codes, total, err := env.discount.ListCodes(repository.DiscountCodeListFilter{RuleID: rule.ID})
	if err != nil {
		t.Fatalf("list codes failed: %v", err)
	}
	if total != 6 || len(codes) != 6 {
		t.Fatalf("want 6 codes got %d", total)
	}

	if err := env.discount.DeleteCode(code.ID); err != nil {
		t.Fatalf("delete code failed: %v", err)
	}
	if err := env.discount.DeleteCode(code.ID); !errors.Is(err, ErrDiscountCodeNotFound) {
		t.Fatalf("expected code not found, got %v", err)
	}
}

func TestDiscountServiceUpdateRuleRecalculatesCarts(t *testing.T) {
	env := setupServiceEnv(t)
	customer, actor := env.createCustomer(t, "recalc_customer")
	product := env.createProduct(t, "hat")
	variant := env.createVariant(t, product.ID, "M", "10.00")

	in := openWindowRule("ten", constants.DiscountValueTypePercentage, "10")
	rule, _ := env.createRuleWithCode(t, in, "TENOFF")

	if _, err := env.cart.AddItem(actor, AddCartItemInput{VariantID: variant.ID, Quantity: intPtr(1)}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := env.cart.ApplyCode(actor, "TENOFF"); err != nil {
		t.Fatalf("apply code failed: %v", err)
	}
	assertMoney(t, "cost", env.activeCart(t, customer.ID).Cost, "9.00")

	in.Value = models.MustMoney("50")
	if _, err := env.discount.UpdateRule(rule.ID, in); err != nil {
		t.Fatalf("update rule failed: %v", err)
	}
	cart := env.activeCart(t, customer.ID)
	assertMoney(t, "discount", cart.DiscountAmount, "5.00")
	assertMoney(t, "cost", cart.Cost, "5.00")

	if err := env.discount.DeleteRule(rule.ID); err != nil {
		t.Fatalf("delete rule failed: %v", err)
	}
	assertMoney(t, "cost after delete", env.activeCart(t, customer.ID).Cost, "10.00")
}
