package service

import (
	"sort"
	"time"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"

	"github.com/shopspring/decimal"
)

// 规则未生效原因
const (
	DiscountReasonRuleWindow    = "rule_window"
	DiscountReasonCodeWindow    = "code_window"
	DiscountReasonUsageLimit    = "usage_limit"
	DiscountReasonCustomer      = "customer_not_selected"
	DiscountReasonOncePerUser   = "once_per_customer"
	DiscountReasonNoEntitled    = "no_entitled_items"
	DiscountReasonPrerequisite  = "prerequisite_not_met"
	DiscountReasonDuplicateRule = "duplicate_rule"
)

// DiscountLine 参与计算的明细快照
type DiscountLine struct {
	ItemID        uint            `json:"item_id"`
	VariantID     uint            `json:"variant_id"`
	ProductID     uint            `json:"product_id"`
	CollectionIDs []uint          `json:"collection_ids,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
}

// Subtotal 明细小计
func (l DiscountLine) Subtotal() decimal.Decimal {
	return lineSubtotal(l.UnitPrice, l.Quantity)
}

// DiscountCandidate 待计算的折扣码及其顾客维度判定
type DiscountCandidate struct {
	Code *models.DiscountCode
	Rule *models.DiscountRule
	// CustomerSelected 顾客是否在 SELECTED 名单内（ALL 时忽略）
	CustomerSelected bool
	// UsedByCustomer 顾客历史上是否已使用过该规则
	UsedByCustomer bool
	// Consumed 该码已在当前订单上计过次数，不再校验使用上限
	Consumed bool
}

// RuleOutcome 单条规则的计算结果
type RuleOutcome struct {
	CodeID   uint                     `json:"code_id"`
	Code     string                   `json:"code"`
	RuleID   uint                     `json:"rule_id"`
	Title    string                   `json:"title"`
	Eligible bool                     `json:"eligible"`
	Reason   string                   `json:"reason,omitempty"`
	Amount   models.Money             `json:"amount"`
	Lines    map[uint]decimal.Decimal `json:"-"`
}

// DiscountResult 汇总结果
type DiscountResult struct {
	Subtotal models.Money  `json:"subtotal"`
	Discount models.Money  `json:"discount"`
	Total    models.Money  `json:"total"`
	Rules    []RuleOutcome `json:"rules"`
}

// EvaluateDiscounts 对一组明细依次计算折扣码，同一规则只生效一次，总优惠不超过原价合计
func EvaluateDiscounts(lines []DiscountLine, candidates []DiscountCandidate, now time.Time) DiscountResult {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}

	result := DiscountResult{Rules: make([]RuleOutcome, 0, len(candidates))}
	discount := decimal.Zero
	seenRules := make(map[uint]struct{}, len(candidates))
	for _, candidate := range candidates {
		if candidate.Code == nil || candidate.Rule == nil {
			continue
		}
		if _, ok := seenRules[candidate.Rule.ID]; ok {
			result.Rules = append(result.Rules, RuleOutcome{
				CodeID: candidate.Code.ID,
				Code:   candidate.Code.Code,
				RuleID: candidate.Rule.ID,
				Title:  candidate.Rule.Title,
				Reason: DiscountReasonDuplicateRule,
				Amount: models.ZeroMoney(),
			})
			continue
		}
		outcome := EvaluateRule(lines, candidate, now)
		if outcome.Eligible {
			seenRules[candidate.Rule.ID] = struct{}{}
			discount = discount.Add(outcome.Amount.Decimal)
		}
		result.Rules = append(result.Rules, outcome)
	}

	discount = minDecimal(discount, subtotal)
	result.Subtotal = models.NewMoneyFromDecimal(subtotal)
	result.Discount = models.NewMoneyFromDecimal(discount)
	result.Total = models.NewMoneyFromDecimal(floorZero(subtotal.Sub(discount)))
	return result
}

// EvaluateRule 计算单条规则的优惠金额，不满足条件时金额为 0，不返回错误
func EvaluateRule(lines []DiscountLine, candidate DiscountCandidate, now time.Time) RuleOutcome {
	rule := candidate.Rule
	code := candidate.Code
	outcome := RuleOutcome{
		CodeID: code.ID,
		Code:   code.Code,
		RuleID: rule.ID,
		Title:  rule.Title,
		Amount: models.ZeroMoney(),
	}

	switch {
	case now.Before(rule.StartsAt) || now.After(rule.EndsAt):
		outcome.Reason = DiscountReasonRuleWindow
		return outcome
	case now.Before(code.StartsAt) || now.After(code.EndsAt):
		outcome.Reason = DiscountReasonCodeWindow
		return outcome
	case !candidate.Consumed && code.UsageCount >= rule.UsageLimit:
		outcome.Reason = DiscountReasonUsageLimit
		return outcome
	case rule.CustomerSelection == constants.DiscountSelectionSelected && !candidate.CustomerSelected:
		outcome.Reason = DiscountReasonCustomer
		return outcome
	case rule.OncePerCustomer && candidate.UsedByCustomer:
		outcome.Reason = DiscountReasonOncePerUser
		return outcome
	}

	targets := splitRuleTargets(rule.Targets)
	entitled := make([]bool, len(lines))
	prerequisite := make([]bool, len(lines))
	hasEntitled := false
	for i, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if rule.TargetSelection != constants.DiscountSelectionSelected || targets.entitled.matches(line) {
			entitled[i] = true
			hasEntitled = true
		}
		if targets.prerequisite.matches(line) {
			prerequisite[i] = true
		}
	}
	if !hasEntitled {
		outcome.Reason = DiscountReasonNoEntitled
		return outcome
	}

	gate := entitled
	if !targets.prerequisite.empty() {
		gate = prerequisite
	}
	if !prerequisiteSatisfied(rule, lines, gate) {
		outcome.Reason = DiscountReasonPrerequisite
		return outcome
	}

	var perLine map[uint]decimal.Decimal
	if rule.Ratio != nil && !targets.prerequisite.empty() {
		perLine = allocateBuyXGetY(rule, lines, prerequisite, entitled)
	} else if rule.AllocationMethod == constants.DiscountAllocationAcross {
		perLine = allocateAcross(rule, lines, entitled)
	} else {
		perLine = allocateEach(rule, lines, entitled)
	}

	amount := decimal.Zero
	for _, v := range perLine {
		amount = amount.Add(v)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		outcome.Reason = DiscountReasonNoEntitled
		return outcome
	}
	outcome.Eligible = true
	outcome.Amount = models.NewMoneyFromDecimal(amount)
	outcome.Lines = perLine
	return outcome
}

// prerequisiteSatisfied 数量与小计门槛满足其一即可；均未配置时至少需要 1 件；前置消费门槛额外叠加
func prerequisiteSatisfied(rule *models.DiscountRule, lines []DiscountLine, gate []bool) bool {
	quantity := 0
	subtotal := decimal.Zero
	for i, line := range lines {
		if !gate[i] || line.Quantity <= 0 {
			continue
		}
		quantity += line.Quantity
		subtotal = subtotal.Add(line.Subtotal())
	}
	if quantity == 0 {
		return false
	}

	quantityRange := rule.PrerequisiteQuantityRange
	subtotalRange := rule.PrerequisiteSubtotalRange.Decimal
	if quantityRange > 0 || subtotalRange.GreaterThan(decimal.Zero) {
		met := (quantityRange > 0 && quantity >= quantityRange) ||
			(subtotalRange.GreaterThan(decimal.Zero) && subtotal.GreaterThanOrEqual(subtotalRange))
		if !met {
			return false
		}
	}
	purchase := rule.PrerequisiteToEntitlementPurchase.Decimal
	if purchase.GreaterThan(decimal.Zero) && subtotal.LessThan(purchase) {
		return false
	}
	return true
}

func allocateAcross(rule *models.DiscountRule, lines []DiscountLine, entitled []bool) map[uint]decimal.Decimal {
	eligible := decimal.Zero
	for i, line := range lines {
		if entitled[i] {
			eligible = eligible.Add(line.Subtotal())
		}
	}
	if eligible.IsZero() {
		return nil
	}
	var total decimal.Decimal
	if rule.ValueType == constants.DiscountValueTypePercentage {
		total = percentOff(eligible, rule.Value.Decimal)
	} else {
		total = minDecimal(rule.Value.Decimal, eligible)
	}

	// 按小计比例拆分到明细，尾差记到最后一条
	perLine := make(map[uint]decimal.Decimal)
	remaining := total
	last := -1
	for i := range lines {
		if entitled[i] {
			last = i
		}
	}
	for i, line := range lines {
		if !entitled[i] {
			continue
		}
		if i == last {
			perLine[line.ItemID] = perLine[line.ItemID].Add(remaining)
			break
		}
		share := total.Mul(line.Subtotal()).Div(eligible).Round(2)
		perLine[line.ItemID] = perLine[line.ItemID].Add(share)
		remaining = remaining.Sub(share)
	}
	return perLine
}

func allocateEach(rule *models.DiscountRule, lines []DiscountLine, entitled []bool) map[uint]decimal.Decimal {
	perLine := make(map[uint]decimal.Decimal)
	applied := 0
	for i, line := range lines {
		if !entitled[i] {
			continue
		}
		if rule.AllocationLimit != nil && applied >= *rule.AllocationLimit {
			break
		}
		subtotal := line.Subtotal()
		var off decimal.Decimal
		if rule.ValueType == constants.DiscountValueTypePercentage {
			off = percentOff(subtotal, rule.Value.Decimal)
		} else {
			off = minDecimal(rule.Value.Decimal, subtotal)
		}
		perLine[line.ItemID] = perLine[line.ItemID].Add(off)
		applied++
	}
	return perLine
}

// unitGroup 同一明细的剩余件数，前置与权益两条队列共用同一份计数
type unitGroup struct {
	itemID    uint
	price     decimal.Decimal
	remaining int
}

func sortGroups(groups []*unitGroup, desc bool) {
	sort.SliceStable(groups, func(i, j int) bool {
		if desc {
			return groups[i].price.GreaterThan(groups[j].price)
		}
		return groups[i].price.LessThan(groups[j].price)
	})
}

func firstRemaining(groups []*unitGroup) *unitGroup {
	for _, g := range groups {
		if g.remaining > 0 {
			return g
		}
	}
	return nil
}

func totalRemaining(groups []*unitGroup) int {
	total := 0
	for _, g := range groups {
		total += g.remaining
	}
	return total
}

// allocateBuyXGetY 按明细分组计算：前置件优先消耗仅前置的高价件，权益件取剩余最便宜的件。
// 连续若干组落在同一对明细上时整批结算，耗时只与明细数有关。
func allocateBuyXGetY(rule *models.DiscountRule, lines []DiscountLine, prerequisite, entitled []bool) map[uint]decimal.Decimal {
	ratio := rule.Ratio
	need, grant := ratio.PrerequisiteQuantity, ratio.EntitledQuantity
	if need <= 0 || grant <= 0 {
		return nil
	}

	var prereqOnly, shared, entitledOnly []*unitGroup
	for i, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		g := &unitGroup{itemID: line.ItemID, price: line.UnitPrice, remaining: line.Quantity}
		switch {
		case prerequisite[i] && entitled[i]:
			shared = append(shared, g)
		case prerequisite[i]:
			prereqOnly = append(prereqOnly, g)
		case entitled[i]:
			entitledOnly = append(entitledOnly, g)
		}
	}
	sortGroups(prereqOnly, true)
	sortGroups(shared, true)
	prereqQueue := append(prereqOnly, shared...)
	pool := append(append([]*unitGroup{}, entitledOnly...), shared...)
	sortGroups(pool, false)

	perLine := make(map[uint]decimal.Decimal)
	award := func(g *unitGroup, units int) {
		off := percentOff(g.price, rule.Value.Decimal).Mul(decimal.NewFromInt(int64(units)))
		perLine[g.itemID] = perLine[g.itemID].Add(off)
		g.remaining -= units
	}

	sets := 0
	for {
		left := -1
		if rule.AllocationLimit != nil {
			left = *rule.AllocationLimit - sets
			if left <= 0 {
				break
			}
		}

		// 前置与权益都不跨明细时整批处理
		pf, cf := firstRemaining(prereqQueue), firstRemaining(pool)
		if pf != nil && cf != nil {
			var batch int
			if pf == cf {
				batch = pf.remaining / (need + grant)
			} else {
				batch = min(pf.remaining/need, cf.remaining/grant)
			}
			if left > 0 {
				batch = min(batch, left)
			}
			if batch > 0 {
				pf.remaining -= batch * need
				award(cf, batch*grant)
				sets += batch
				continue
			}
		}

		// 跨明细的一组逐段扣减
		if totalRemaining(prereqQueue) < need {
			break
		}
		for want, i := need, 0; want > 0; i++ {
			take := min(want, prereqQueue[i].remaining)
			prereqQueue[i].remaining -= take
			want -= take
		}
		granted := 0
		for _, g := range pool {
			if granted == grant {
				break
			}
			if take := min(grant-granted, g.remaining); take > 0 {
				award(g, take)
				granted += take
			}
		}
		if granted == 0 {
			break
		}
		sets++
	}
	return perLine
}

type targetSet struct {
	collections map[uint]struct{}
	products    map[uint]struct{}
	variants    map[uint]struct{}
}

func newTargetSet() targetSet {
	return targetSet{
		collections: map[uint]struct{}{},
		products:    map[uint]struct{}{},
		variants:    map[uint]struct{}{},
	}
}

func (s targetSet) empty() bool {
	return len(s.collections) == 0 && len(s.products) == 0 && len(s.variants) == 0
}

func (s targetSet) add(refType string, refID uint) {
	switch refType {
	case constants.DiscountRefCollection:
		s.collections[refID] = struct{}{}
	case constants.DiscountRefProduct:
		s.products[refID] = struct{}{}
	case constants.DiscountRefVariant:
		s.variants[refID] = struct{}{}
	}
}

func (s targetSet) matches(line DiscountLine) bool {
	if _, ok := s.variants[line.VariantID]; ok {
		return true
	}
	if _, ok := s.products[line.ProductID]; ok {
		return true
	}
	for _, id := range line.CollectionIDs {
		if _, ok := s.collections[id]; ok {
			return true
		}
	}
	return false
}

type ruleTargets struct {
	entitled     targetSet
	prerequisite targetSet
}

func splitRuleTargets(targets []models.DiscountRuleTarget) ruleTargets {
	out := ruleTargets{entitled: newTargetSet(), prerequisite: newTargetSet()}
	for _, target := range targets {
		switch target.Kind {
		case constants.DiscountTargetEntitled:
			out.entitled.add(target.RefType, target.RefID)
		case constants.DiscountTargetPrerequisite:
			out.prerequisite.add(target.RefType, target.RefID)
		}
	}
	return out
}
