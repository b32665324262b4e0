package service

import (
	"testing"
	"time"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"

	"github.com/shopspring/decimal"
)

func evalTestRule(id uint, valueType, value string) *models.DiscountRule {
	now := time.Now()
	return &models.DiscountRule{
		ID:                id,
		Title:             "rule",
		StartsAt:          now.Add(-time.Hour),
		EndsAt:            now.Add(time.Hour),
		ValueType:         valueType,
		Value:             models.MustMoney(value),
		CustomerSelection: constants.DiscountSelectionAll,
		TargetSelection:   constants.DiscountSelectionAll,
		UsageLimit:        10,
		AllocationMethod:  constants.DiscountAllocationAcross,
	}
}

func evalTestCode(id, ruleID uint, code string) *models.DiscountCode {
	now := time.Now()
	return &models.DiscountCode{
		ID:       id,
		RuleID:   ruleID,
		Code:     code,
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
	}
}

func evalLine(itemID, variantID, productID uint, price string, qty int, collections ...uint) DiscountLine {
	return DiscountLine{
		ItemID:        itemID,
		VariantID:     variantID,
		ProductID:     productID,
		CollectionIDs: collections,
		UnitPrice:     decimal.RequireFromString(price),
		Quantity:      qty,
	}
}

func assertMoney(t *testing.T, label string, got models.Money, want string) {
	t.Helper()
	if got.String() != want {
		t.Fatalf("%s want %s got %s", label, want, got.String())
	}
}

func TestEvaluateDiscountsPercentageBoundaries(t *testing.T) {
	lines := []DiscountLine{evalLine(1, 1, 1, "10.00", 1), evalLine(2, 2, 1, "14.00", 2)}
	cases := []struct {
		value    string
		discount string
		total    string
	}{
		{"100", "38.00", "0.00"},
		{"0", "0.00", "38.00"},
		{"50", "19.00", "19.00"},
	}
	for _, tc := range cases {
		rule := evalTestRule(1, constants.DiscountValueTypePercentage, tc.value)
		result := EvaluateDiscounts(lines, []DiscountCandidate{{Rule: rule, Code: evalTestCode(1, 1, "P")}}, time.Now())
		assertMoney(t, "subtotal", result.Subtotal, "38.00")
		assertMoney(t, "discount "+tc.value, result.Discount, tc.discount)
		assertMoney(t, "total "+tc.value, result.Total, tc.total)
	}
}

func TestEvaluateRuleRejectsOutsideWindowsAndUsage(t *testing.T) {
	lines := []DiscountLine{evalLine(1, 1, 1, "20.00", 1)}
	now := time.Now()

	rule := evalTestRule(1, constants.DiscountValueTypeFixed, "5")
	rule.EndsAt = now.Add(-time.Minute)
	if out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "A")}, now); out.Eligible || out.Reason != DiscountReasonRuleWindow {
		t.Fatalf("expired rule should be rejected, got %+v", out)
	}

	rule = evalTestRule(1, constants.DiscountValueTypeFixed, "5")
	code := evalTestCode(1, 1, "A")
	code.StartsAt = now.Add(time.Minute)
	if out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: code}, now); out.Reason != DiscountReasonCodeWindow {
		t.Fatalf("future code should be rejected, got %+v", out)
	}

	code = evalTestCode(1, 1, "A")
	code.UsageCount = rule.UsageLimit
	if out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: code}, now); out.Reason != DiscountReasonUsageLimit {
		t.Fatalf("exhausted code should be rejected, got %+v", out)
	}
	if out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: code, Consumed: true}, now); !out.Eligible {
		t.Fatalf("consumed code on its own order should still apply, got %+v", out)
	}
}

func TestEvaluateRuleCustomerSelection(t *testing.T) {
	lines := []DiscountLine{evalLine(1, 1, 1, "20.00", 1)}
	rule := evalTestRule(1, constants.DiscountValueTypeFixed, "5")
	rule.CustomerSelection = constants.DiscountSelectionSelected
	if out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "A")}, time.Now()); out.Reason != DiscountReasonCustomer {
		t.Fatalf("unselected customer should be rejected, got %+v", out)
	}
	rule.OncePerCustomer = true
	out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "A"), CustomerSelected: true, UsedByCustomer: true}, time.Now())
	if out.Reason != DiscountReasonOncePerUser {
		t.Fatalf("once per customer should block reuse, got %+v", out)
	}
}

func TestEvaluateRuleFixedAcrossAndEach(t *testing.T) {
	lines := []DiscountLine{evalLine(1, 1, 1, "3.00", 1), evalLine(2, 2, 2, "10.00", 2)}

	across := evalTestRule(1, constants.DiscountValueTypeFixed, "5")
	out := EvaluateRule(lines, DiscountCandidate{Rule: across, Code: evalTestCode(1, 1, "A")}, time.Now())
	assertMoney(t, "across fixed", out.Amount, "5.00")

	each := evalTestRule(2, constants.DiscountValueTypeFixed, "5")
	each.AllocationMethod = constants.DiscountAllocationEach
	out = EvaluateRule(lines, DiscountCandidate{Rule: each, Code: evalTestCode(2, 2, "E")}, time.Now())
	// 第一行 3.00 封顶，第二行扣 5
	assertMoney(t, "each fixed", out.Amount, "8.00")

	limit := 1
	each.AllocationLimit = &limit
	out = EvaluateRule(lines, DiscountCandidate{Rule: each, Code: evalTestCode(2, 2, "E")}, time.Now())
	assertMoney(t, "each fixed limited", out.Amount, "3.00")
}

func TestEvaluateRuleSelectedCollection(t *testing.T) {
	lines := []DiscountLine{
		evalLine(1, 11, 1, "10.00", 1, 7),
		evalLine(2, 12, 2, "40.00", 1),
	}
	rule := evalTestRule(1, constants.DiscountValueTypePercentage, "50")
	rule.TargetSelection = constants.DiscountSelectionSelected
	rule.Targets = []models.DiscountRuleTarget{{Kind: constants.DiscountTargetEntitled, RefType: constants.DiscountRefCollection, RefID: 7}}
	out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "C")}, time.Now())
	assertMoney(t, "collection discount", out.Amount, "5.00")
	if !out.Lines[1].Equal(decimal.RequireFromString("5")) || !out.Lines[2].IsZero() {
		t.Fatalf("discount should land on collection item only, got %v", out.Lines)
	}

	rule.Targets = []models.DiscountRuleTarget{{Kind: constants.DiscountTargetEntitled, RefType: constants.DiscountRefCollection, RefID: 99}}
	out = EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "C")}, time.Now())
	if out.Eligible || out.Reason != DiscountReasonNoEntitled {
		t.Fatalf("rule without matching items should contribute zero, got %+v", out)
	}
}

func TestEvaluateRulePrerequisiteThresholds(t *testing.T) {
	lines := []DiscountLine{
		evalLine(1, 1, 1, "10.00", 2),
		evalLine(2, 2, 2, "30.00", 1),
	}
	rule := evalTestRule(1, constants.DiscountValueTypePercentage, "10")
	rule.TargetSelection = constants.DiscountSelectionSelected
	rule.AllocationMethod = constants.DiscountAllocationEach
	rule.PrerequisiteQuantityRange = 3
	rule.Targets = []models.DiscountRuleTarget{
		{Kind: constants.DiscountTargetPrerequisite, RefType: constants.DiscountRefProduct, RefID: 1},
		{Kind: constants.DiscountTargetEntitled, RefType: constants.DiscountRefProduct, RefID: 2},
	}
	out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "Q")}, time.Now())
	if out.Reason != DiscountReasonPrerequisite {
		t.Fatalf("2 prerequisite units should not meet quantity range 3, got %+v", out)
	}

	// 数量与小计满足其一即可
	rule.PrerequisiteSubtotalRange = models.MustMoney("20.00")
	out = EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "Q")}, time.Now())
	assertMoney(t, "prerequisite met by subtotal", out.Amount, "3.00")

	rule.PrerequisiteToEntitlementPurchase = models.MustMoney("25.00")
	out = EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "Q")}, time.Now())
	if out.Eligible {
		t.Fatalf("prerequisite purchase threshold should block discount, got %+v", out)
	}
}

func TestEvaluateRuleBuyXGetY(t *testing.T) {
	rule := evalTestRule(1, constants.DiscountValueTypePercentage, "100")
	rule.TargetSelection = constants.DiscountSelectionSelected
	rule.AllocationMethod = constants.DiscountAllocationEach
	rule.Ratio = &models.DiscountRuleRatio{RuleID: 1, PrerequisiteQuantity: 2, EntitledQuantity: 1}
	rule.Targets = []models.DiscountRuleTarget{
		{Kind: constants.DiscountTargetPrerequisite, RefType: constants.DiscountRefProduct, RefID: 1},
		{Kind: constants.DiscountTargetEntitled, RefType: constants.DiscountRefProduct, RefID: 2},
	}

	// 买 4 件前置，权益商品 3 件：可得 2 件免费（取最便宜）
	lines := []DiscountLine{
		evalLine(1, 1, 1, "10.00", 4),
		evalLine(2, 2, 2, "6.00", 1),
		evalLine(3, 3, 2, "4.00", 2),
	}
	out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "BXGY")}, time.Now())
	assertMoney(t, "bxgy two sets", out.Amount, "8.00")

	limit := 1
	rule.AllocationLimit = &limit
	out = EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "BXGY")}, time.Now())
	assertMoney(t, "bxgy limited to one set", out.Amount, "4.00")
}

func TestEvaluateRuleBuyXGetYSharedItems(t *testing.T) {
	rule := evalTestRule(1, constants.DiscountValueTypePercentage, "50")
	rule.TargetSelection = constants.DiscountSelectionSelected
	rule.AllocationMethod = constants.DiscountAllocationEach
	rule.Ratio = &models.DiscountRuleRatio{RuleID: 1, PrerequisiteQuantity: 2, EntitledQuantity: 1}
	rule.Targets = []models.DiscountRuleTarget{
		{Kind: constants.DiscountTargetPrerequisite, RefType: constants.DiscountRefProduct, RefID: 1},
		{Kind: constants.DiscountTargetEntitled, RefType: constants.DiscountRefProduct, RefID: 1},
	}
	// 同一商品 3 件：2 件作前置，第 3 件半价
	lines := []DiscountLine{evalLine(1, 1, 1, "8.00", 3)}
	out := EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "SAME")}, time.Now())
	assertMoney(t, "shared units", out.Amount, "4.00")

	lines = []DiscountLine{evalLine(1, 1, 1, "8.00", 2)}
	out = EvaluateRule(lines, DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "SAME")}, time.Now())
	if out.Eligible {
		t.Fatalf("units counted as prerequisite must not also be entitled, got %+v", out)
	}
}

func TestEvaluateRuleBuyXGetYLargeQuantities(t *testing.T) {
	rule := evalTestRule(1, constants.DiscountValueTypePercentage, "100")
	rule.TargetSelection = constants.DiscountSelectionSelected
	rule.AllocationMethod = constants.DiscountAllocationEach
	rule.Ratio = &models.DiscountRuleRatio{RuleID: 1, PrerequisiteQuantity: 1, EntitledQuantity: 1}
	rule.Targets = []models.DiscountRuleTarget{
		{Kind: constants.DiscountTargetPrerequisite, RefType: constants.DiscountRefProduct, RefID: 1},
		{Kind: constants.DiscountTargetEntitled, RefType: constants.DiscountRefProduct, RefID: 2},
	}
	lines := []DiscountLine{
		evalLine(1, 1, 1, "2.00", 5_000_000),
		evalLine(2, 2, 2, "1.00", 5_000_000),
	}
	candidate := DiscountCandidate{Rule: rule, Code: evalTestCode(1, 1, "BULK")}

	started := time.Now()
	out := EvaluateRule(lines, candidate, time.Now())
	assertMoney(t, "bulk sets", out.Amount, "5000000.00")
	if !out.Lines[2].Equal(decimal.NewFromInt(5_000_000)) || !out.Lines[1].IsZero() {
		t.Fatalf("entitled line should carry the whole amount, got %+v", out.Lines)
	}

	limit := 1
	rule.AllocationLimit = &limit
	out = EvaluateRule(lines, candidate, time.Now())
	assertMoney(t, "bulk limited", out.Amount, "1.00")

	// 同一明细既是前置又是权益：每 2 件送 1 件
	rule.AllocationLimit = nil
	rule.Targets[1].RefID = 1
	out = EvaluateRule([]DiscountLine{evalLine(1, 1, 1, "2.00", 10_000_001)}, candidate, time.Now())
	assertMoney(t, "bulk shared", out.Amount, "10000000.00")

	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("allocation should not scale with unit count, took %s", elapsed)
	}
}

func TestEvaluateDiscountsDedupesRulesAndCapsTotal(t *testing.T) {
	lines := []DiscountLine{evalLine(1, 1, 1, "10.00", 1)}
	rule := evalTestRule(1, constants.DiscountValueTypeFixed, "8")
	other := evalTestRule(2, constants.DiscountValueTypeFixed, "8")
	result := EvaluateDiscounts(lines, []DiscountCandidate{
		{Rule: rule, Code: evalTestCode(1, 1, "A")},
		{Rule: rule, Code: evalTestCode(2, 1, "B")},
		{Rule: other, Code: evalTestCode(3, 2, "C")},
	}, time.Now())
	if result.Rules[1].Reason != DiscountReasonDuplicateRule {
		t.Fatalf("second code of the same rule should be skipped, got %+v", result.Rules[1])
	}
	assertMoney(t, "capped discount", result.Discount, "10.00")
	assertMoney(t, "total", result.Total, "0.00")
}

func TestEvaluateDiscountsEmptyLines(t *testing.T) {
	result := EvaluateDiscounts(nil, nil, time.Now())
	assertMoney(t, "empty subtotal", result.Subtotal, "0.00")
	assertMoney(t, "empty total", result.Total, "0.00")
}
