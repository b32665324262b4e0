package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"

	"github.com/shopspring/decimal"
)

// DiscountRuleInput 折扣规则写入参数（含关联集合）
type DiscountRuleInput struct {
	Title                             string       `json:"title"`
	Description                       string       `json:"description"`
	StartsAt                          time.Time    `json:"starts_at"`
	EndsAt                            time.Time    `json:"ends_at"`
	ValueType                         string       `json:"value_type"`
	Value                             models.Money `json:"value"`
	CustomerSelection                 string       `json:"customer_selection"`
	TargetSelection                   string       `json:"target_selection"`
	CustomerIDs                       []uint       `json:"customer_ids"`
	EntitledCollectionIDs             []uint       `json:"entitled_collection_ids"`
	EntitledProductIDs                []uint       `json:"entitled_product_ids"`
	EntitledVariantIDs                []uint       `json:"entitled_variant_ids"`
	PrerequisiteCollectionIDs         []uint       `json:"prerequisite_collection_ids"`
	PrerequisiteProductIDs            []uint       `json:"prerequisite_product_ids"`
	PrerequisiteVariantIDs            []uint       `json:"prerequisite_variant_ids"`
	PrerequisiteQuantityRange         int          `json:"prerequisite_quantity_range"`
	PrerequisiteSubtotalRange         models.Money `json:"prerequisite_subtotal_range"`
	PrerequisiteToEntitlementPurchase models.Money `json:"prerequisite_to_entitlement_purchase"`
	OncePerCustomer                   bool         `json:"once_per_customer"`
	UsageLimit                        int          `json:"usage_limit"`
	AllocationMethod                  string       `json:"allocation_method"`
	AllocationLimit                   *int         `json:"allocation_limit"`
}

// HasPrerequisites 是否配置了前置集合
func (in DiscountRuleInput) HasPrerequisites() bool {
	return len(in.PrerequisiteCollectionIDs) > 0 || len(in.PrerequisiteProductIDs) > 0 || len(in.PrerequisiteVariantIDs) > 0
}

// HasEntitled 是否配置了权益集合
func (in DiscountRuleInput) HasEntitled() bool {
	return len(in.EntitledCollectionIDs) > 0 || len(in.EntitledProductIDs) > 0 || len(in.EntitledVariantIDs) > 0
}

// normalize 去除空白并统一枚举大小写
func (in *DiscountRuleInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.ValueType = strings.ToUpper(strings.TrimSpace(in.ValueType))
	in.CustomerSelection = strings.ToUpper(strings.TrimSpace(in.CustomerSelection))
	in.TargetSelection = strings.ToUpper(strings.TrimSpace(in.TargetSelection))
	in.AllocationMethod = strings.ToUpper(strings.TrimSpace(in.AllocationMethod))
	if in.ValueType == "" {
		in.ValueType = constants.DiscountValueTypeFixed
	}
	if in.CustomerSelection == "" {
		in.CustomerSelection = constants.DiscountSelectionAll
	}
	if in.TargetSelection == "" {
		in.TargetSelection = constants.DiscountSelectionAll
	}
	if in.AllocationMethod == "" {
		in.AllocationMethod = constants.DiscountAllocationEach
	}
	if in.UsageLimit == 0 {
		in.UsageLimit = 1
	}
	in.CustomerIDs = uniqueIDs(in.CustomerIDs)
	in.EntitledCollectionIDs = uniqueIDs(in.EntitledCollectionIDs)
	in.EntitledProductIDs = uniqueIDs(in.EntitledProductIDs)
	in.EntitledVariantIDs = uniqueIDs(in.EntitledVariantIDs)
	in.PrerequisiteCollectionIDs = uniqueIDs(in.PrerequisiteCollectionIDs)
	in.PrerequisiteProductIDs = uniqueIDs(in.PrerequisiteProductIDs)
	in.PrerequisiteVariantIDs = uniqueIDs(in.PrerequisiteVariantIDs)
}

// ValidateDiscountRule 一次性收集规则的全部不变量失败项
// variantProducts 为权益规格 → 所属商品映射，用于判断规格是否已被权益商品覆盖
func ValidateDiscountRule(in DiscountRuleInput, variantProducts map[uint]uint) error {
	var vs violations

	if in.Title == "" {
		vs.add("title", CodeRequired, "title is required")
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		vs.add("starts_at", CodeDiscountWindow, "starts_at and ends_at are required")
	} else if in.EndsAt.Before(in.StartsAt) {
		vs.add("ends_at", CodeDiscountWindow, "ends_at must not be earlier than starts_at")
	}

	switch in.ValueType {
	case constants.DiscountValueTypePercentage:
		if in.Value.LessThan(decimal.Zero) || in.Value.GreaterThan(hundred) {
			vs.add("value", CodeDiscountValue, "percentage value must be between 0 and 100")
		}
	case constants.DiscountValueTypeFixed:
		if in.Value.LessThan(decimal.Zero) {
			vs.add("value", CodeDiscountValue, "fixed value must not be negative")
		}
	default:
		vs.add("value_type", CodeDiscountEnum, "value_type must be PERCENTAGE or FIXED")
	}
	if !isSelection(in.CustomerSelection) {
		vs.add("customer_selection", CodeDiscountEnum, "customer_selection must be ALL or SELECTED")
	}
	if !isSelection(in.TargetSelection) {
		vs.add("target_selection", CodeDiscountEnum, "target_selection must be ALL or SELECTED")
	}
	if in.AllocationMethod != constants.DiscountAllocationAcross && in.AllocationMethod != constants.DiscountAllocationEach {
		vs.add("allocation_method", CodeDiscountEnum, "allocation_method must be ACROSS or EACH")
	}

	if in.UsageLimit < 1 {
		vs.add("usage_limit", CodeDiscountRange, "usage_limit must be at least 1")
	}
	if in.AllocationLimit != nil && *in.AllocationLimit < 1 {
		vs.add("allocation_limit", CodeDiscountRange, "allocation_limit must be at least 1")
	}
	if in.PrerequisiteQuantityRange < 0 {
		vs.add("prerequisite_quantity_range", CodeDiscountRange, "prerequisite_quantity_range must not be negative")
	}
	if in.PrerequisiteSubtotalRange.LessThan(decimal.Zero) {
		vs.add("prerequisite_subtotal_range", CodeDiscountRange, "prerequisite_subtotal_range must not be negative")
	}
	if in.PrerequisiteToEntitlementPurchase.LessThan(decimal.Zero) {
		vs.add("prerequisite_to_entitlement_purchase", CodeDiscountRange, "prerequisite_to_entitlement_purchase must not be negative")
	}

	if in.CustomerSelection == constants.DiscountSelectionSelected && len(in.CustomerIDs) == 0 {
		vs.add("customer_ids", CodeDiscountCustomers, "selected customers must not be empty")
	}
	if in.TargetSelection == constants.DiscountSelectionSelected && !in.HasEntitled() {
		vs.add("entitled", CodeDiscountEntitled, "selected targets require entitled collections, products or variants")
	}
	if len(in.EntitledCollectionIDs) > 0 && (len(in.EntitledProductIDs) > 0 || len(in.EntitledVariantIDs) > 0) {
		vs.add("entitled_collection_ids", CodeDiscountExclusive, "entitled collections cannot be combined with entitled products or variants")
	}
	if len(in.EntitledProductIDs) > 0 && len(in.EntitledVariantIDs) > 0 {
		products := make(map[uint]struct{}, len(in.EntitledProductIDs))
		for _, id := range in.EntitledProductIDs {
			products[id] = struct{}{}
		}
		for _, variantID := range in.EntitledVariantIDs {
			if productID, ok := variantProducts[variantID]; ok {
				if _, dup := products[productID]; dup {
					vs.add("entitled_variant_ids", CodeDiscountDuplicate, "entitled variant is already covered by an entitled product")
					break
				}
			}
		}
	}
	if in.HasPrerequisites() {
		if in.TargetSelection != constants.DiscountSelectionSelected {
			vs.add("target_selection", CodeDiscountPrerequisite, "prerequisites require target_selection SELECTED")
		}
		if in.AllocationMethod != constants.DiscountAllocationEach {
			vs.add("allocation_method", CodeDiscountPrerequisite, "prerequisites require allocation_method EACH")
		}
	}

	return vs.err()
}

// ValidateQuantityRatio 买 X 送 Y 仅适用于百分比 + SELECTED + EACH 且前置与权益集合均非空的规则
func ValidateQuantityRatio(rule *models.DiscountRule, prerequisiteQuantity, entitledQuantity int) error {
	var vs violations
	if rule == nil {
		vs.add("rule_id", CodeRequired, "rule is required")
		return vs.err()
	}
	if prerequisiteQuantity < 1 {
		vs.add("prerequisite_quantity", CodeDiscountRatio, "prerequisite_quantity must be at least 1")
	}
	if entitledQuantity < 1 {
		vs.add("entitled_quantity", CodeDiscountRatio, "entitled_quantity must be at least 1")
	}
	if rule.ValueType != constants.DiscountValueTypePercentage {
		vs.add("value_type", CodeDiscountRatio, "ratio requires a percentage rule")
	}
	if rule.TargetSelection != constants.DiscountSelectionSelected {
		vs.add("target_selection", CodeDiscountRatio, "ratio requires target_selection SELECTED")
	}
	if rule.AllocationMethod != constants.DiscountAllocationEach {
		vs.add("allocation_method", CodeDiscountRatio, "ratio requires allocation_method EACH")
	}
	targets := splitRuleTargets(rule.Targets)
	if targets.prerequisite.empty() {
		vs.add("prerequisite", CodeDiscountRatio, "ratio requires prerequisite items")
	}
	if targets.entitled.empty() {
		vs.add("entitled", CodeDiscountRatio, "ratio requires entitled items")
	}
	return vs.err()
}

var discountCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)

// ValidateDiscountCode 校验折扣码格式与有效期
func ValidateDiscountCode(code string, startsAt, endsAt time.Time) error {
	var vs violations
	if !discountCodePattern.MatchString(code) {
		vs.add("code", CodeDiscountCodeInvalid, "code must be 3-64 letters, digits, '-' or '_'")
	}
	if startsAt.IsZero() || endsAt.IsZero() {
		vs.add("starts_at", CodeDiscountWindow, "starts_at and ends_at are required")
	} else if endsAt.Before(startsAt) {
		vs.add("ends_at", CodeDiscountWindow, "ends_at must not be earlier than starts_at")
	}
	return vs.err()
}

func isSelection(value string) bool {
	return value == constants.DiscountSelectionAll || value == constants.DiscountSelectionSelected
}

func uniqueIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// buildRuleTargets 将输入集合展开为关联表行
func buildRuleTargets(in DiscountRuleInput) []models.DiscountRuleTarget {
	var targets []models.DiscountRuleTarget
	appendRefs := func(kind, refType string, ids []uint) {
		for _, id := range ids {
			targets = append(targets, models.DiscountRuleTarget{Kind: kind, RefType: refType, RefID: id})
		}
	}
	appendRefs(constants.DiscountTargetEntitled, constants.DiscountRefCollection, in.EntitledCollectionIDs)
	appendRefs(constants.DiscountTargetEntitled, constants.DiscountRefProduct, in.EntitledProductIDs)
	appendRefs(constants.DiscountTargetEntitled, constants.DiscountRefVariant, in.EntitledVariantIDs)
	appendRefs(constants.DiscountTargetPrerequisite, constants.DiscountRefCollection, in.PrerequisiteCollectionIDs)
	appendRefs(constants.DiscountTargetPrerequisite, constants.DiscountRefProduct, in.PrerequisiteProductIDs)
	appendRefs(constants.DiscountTargetPrerequisite, constants.DiscountRefVariant, in.PrerequisiteVariantIDs)
	return targets
}
