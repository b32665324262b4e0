package service

import (
	"strings"
	"time"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscountRuleView 规则详情（含关联集合）
type DiscountRuleView struct {
	*models.DiscountRule
	CustomerIDs               []uint `json:"customer_ids"`
	EntitledCollectionIDs     []uint `json:"entitled_collection_ids"`
	EntitledProductIDs        []uint `json:"entitled_product_ids"`
	EntitledVariantIDs        []uint `json:"entitled_variant_ids"`
	PrerequisiteCollectionIDs []uint `json:"prerequisite_collection_ids"`
	PrerequisiteProductIDs    []uint `json:"prerequisite_product_ids"`
	PrerequisiteVariantIDs    []uint `json:"prerequisite_variant_ids"`
}

// DiscountCodeInput 折扣码写入参数
type DiscountCodeInput struct {
	Code     string    `json:"code"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// GenerateCodesInput 批量生成折扣码参数
type GenerateCodesInput struct {
	Count    int       `json:"count"`
	Prefix   string    `json:"prefix"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// DiscountService 折扣规则与折扣码管理
type DiscountService struct {
	cfg         config.DiscountConfig
	ruleRepo    repository.DiscountRuleRepository
	codeRepo    repository.DiscountCodeRepository
	variantRepo repository.ProductVariantRepository
	cartRepo    repository.CartRepository
	recalc      *RecalcService
}

// NewDiscountService 创建折扣管理服务
func NewDiscountService(
	cfg config.DiscountConfig,
	ruleRepo repository.DiscountRuleRepository,
	codeRepo repository.DiscountCodeRepository,
	variantRepo repository.ProductVariantRepository,
	cartRepo repository.CartRepository,
	recalc *RecalcService,
) *DiscountService {
	return &DiscountService{
		cfg:         cfg,
		ruleRepo:    ruleRepo,
		codeRepo:    codeRepo,
		variantRepo: variantRepo,
		cartRepo:    cartRepo,
		recalc:      recalc,
	}
}

// ListRules 规则列表
func (s *DiscountService) ListRules(filter repository.DiscountRuleListFilter) ([]models.DiscountRule, int64, error) {
	return s.ruleRepo.List(filter)
}

// GetRule 规则详情
func (s *DiscountService) GetRule(id uint) (*DiscountRuleView, error) {
	rule, err := s.ruleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrDiscountRuleNotFound
	}
	customerIDs, err := s.ruleRepo.ListCustomerIDs(id)
	if err != nil {
		return nil, err
	}
	view := &DiscountRuleView{DiscountRule: rule, CustomerIDs: customerIDs}
	for _, target := range rule.Targets {
		var dest *[]uint
		switch {
		case target.Kind == constants.DiscountTargetEntitled && target.RefType == constants.DiscountRefCollection:
			dest = &view.EntitledCollectionIDs
		case target.Kind == constants.DiscountTargetEntitled && target.RefType == constants.DiscountRefProduct:
			dest = &view.EntitledProductIDs
		case target.Kind == constants.DiscountTargetEntitled && target.RefType == constants.DiscountRefVariant:
			dest = &view.EntitledVariantIDs
		case target.Kind == constants.DiscountTargetPrerequisite && target.RefType == constants.DiscountRefCollection:
			dest = &view.PrerequisiteCollectionIDs
		case target.Kind == constants.DiscountTargetPrerequisite && target.RefType == constants.DiscountRefProduct:
			dest = &view.PrerequisiteProductIDs
		case target.Kind == constants.DiscountTargetPrerequisite && target.RefType == constants.DiscountRefVariant:
			dest = &view.PrerequisiteVariantIDs
		default:
			continue
		}
		*dest = append(*dest, target.RefID)
	}
	return view, nil
}

func (s *DiscountService) validateRuleInput(in *DiscountRuleInput) error {
	in.normalize()
	variantProducts := map[uint]uint{}
	if len(in.EntitledVariantIDs) > 0 {
		variants, err := s.variantRepo.ListByIDs(in.EntitledVariantIDs)
		if err != nil {
			return err
		}
		for _, v := range variants {
			variantProducts[v.ID] = v.ProductID
		}
	}
	return ValidateDiscountRule(*in, variantProducts)
}

func applyRuleInput(rule *models.DiscountRule, in DiscountRuleInput) {
	rule.Title = in.Title
	rule.Description = in.Description
	rule.StartsAt = in.StartsAt
	rule.EndsAt = in.EndsAt
	rule.ValueType = in.ValueType
	rule.Value = in.Value
	rule.CustomerSelection = in.CustomerSelection
	rule.TargetSelection = in.TargetSelection
	rule.PrerequisiteQuantityRange = in.PrerequisiteQuantityRange
	rule.PrerequisiteSubtotalRange = in.PrerequisiteSubtotalRange
	rule.PrerequisiteToEntitlementPurchase = in.PrerequisiteToEntitlementPurchase
	rule.OncePerCustomer = in.OncePerCustomer
	rule.UsageLimit = in.UsageLimit
	rule.AllocationMethod = in.AllocationMethod
	rule.AllocationLimit = in.AllocationLimit
}

// CreateRule 校验后原子写入规则及关联集合
func (s *DiscountService) CreateRule(in DiscountRuleInput) (*DiscountRuleView, error) {
	if err := s.validateRuleInput(&in); err != nil {
		return nil, err
	}
	rule := &models.DiscountRule{}
	applyRuleInput(rule, in)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.ruleRepo.WithTx(tx)
		if err := repo.Create(rule); err != nil {
			return translateWriteError(err)
		}
		if err := repo.ReplaceTargets(rule.ID, buildRuleTargets(in)); err != nil {
			return err
		}
		return repo.ReplaceCustomers(rule.ID, in.CustomerIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRule(rule.ID)
}

// UpdateRule 更新规则；已有买 X 送 Y 比例时需仍满足比例约束
func (s *DiscountService) UpdateRule(id uint, in DiscountRuleInput) (*DiscountRuleView, error) {
	rule, err := s.ruleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrDiscountRuleNotFound
	}
	if err := s.validateRuleInput(&in); err != nil {
		return nil, err
	}
	applyRuleInput(rule, in)
	rule.Targets = buildRuleTargets(in)
	if rule.Ratio != nil {
		if err := ValidateQuantityRatio(rule, rule.Ratio.PrerequisiteQuantity, rule.Ratio.EntitledQuantity); err != nil {
			return nil, err
		}
	}
	err = s.withRuleCartRecalc(id, func(tx *gorm.DB) error {
		repo := s.ruleRepo.WithTx(tx)
		if err := repo.Update(rule); err != nil {
			return translateWriteError(err)
		}
		if err := repo.ReplaceTargets(id, rule.Targets); err != nil {
			return err
		}
		return repo.ReplaceCustomers(id, in.CustomerIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRule(id)
}

// DeleteRule 删除规则及其折扣码
func (s *DiscountService) DeleteRule(id uint) error {
	rule, err := s.ruleRepo.GetByID(id)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrDiscountRuleNotFound
	}
	return s.withRuleCartRecalc(id, func(tx *gorm.DB) error {
		return s.ruleRepo.WithTx(tx).Delete(id)
	})
}

// SetRatio 设置买 X 送 Y 比例
func (s *DiscountService) SetRatio(ruleID uint, prerequisiteQuantity, entitledQuantity int) (*DiscountRuleView, error) {
	rule, err := s.ruleRepo.GetByID(ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrDiscountRuleNotFound
	}
	if err := ValidateQuantityRatio(rule, prerequisiteQuantity, entitledQuantity); err != nil {
		return nil, err
	}
	err = s.withRuleCartRecalc(ruleID, func(tx *gorm.DB) error {
		return s.ruleRepo.WithTx(tx).SaveRatio(&models.DiscountRuleRatio{
			RuleID:               ruleID,
			PrerequisiteQuantity: prerequisiteQuantity,
			EntitledQuantity:     entitledQuantity,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetRule(ruleID)
}

// DeleteRatio 删除买 X 送 Y 比例
func (s *DiscountService) DeleteRatio(ruleID uint) error {
	rule, err := s.ruleRepo.GetByID(ruleID)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrDiscountRuleNotFound
	}
	return s.withRuleCartRecalc(ruleID, func(tx *gorm.DB) error {
		return s.ruleRepo.WithTx(tx).DeleteRatio(ruleID)
	})
}

// ListCodes 折扣码列表
func (s *DiscountService) ListCodes(filter repository.DiscountCodeListFilter) ([]models.DiscountCode, int64, error) {
	return s.codeRepo.List(filter)
}

// CreateCode 为规则创建折扣码，未传有效期时沿用规则有效期
func (s *DiscountService) CreateCode(ruleID uint, in DiscountCodeInput) (*models.DiscountCode, error) {
	rule, err := s.ruleRepo.GetByID(ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrDiscountRuleNotFound
	}
	code := &models.DiscountCode{
		RuleID:   ruleID,
		Code:     strings.TrimSpace(in.Code),
		StartsAt: in.StartsAt,
		EndsAt:   in.EndsAt,
	}
	if code.StartsAt.IsZero() {
		code.StartsAt = rule.StartsAt
	}
	if code.EndsAt.IsZero() {
		code.EndsAt = rule.EndsAt
	}
	if err := ValidateDiscountCode(code.Code, code.StartsAt, code.EndsAt); err != nil {
		return nil, err
	}
	if err := s.codeRepo.Create(code); err != nil {
		return nil, translateWriteError(err)
	}
	return code, nil
}

// GenerateCodes 批量生成随机折扣码
func (s *DiscountService) GenerateCodes(ruleID uint, in GenerateCodesInput) ([]models.DiscountCode, error) {
	if in.Count < 1 || in.Count > 1000 {
		return nil, newValidationError("count", CodeDiscountRange, "count must be between 1 and 1000")
	}
	rule, err := s.ruleRepo.GetByID(ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrDiscountRuleNotFound
	}
	startsAt, endsAt := in.StartsAt, in.EndsAt
	if startsAt.IsZero() {
		startsAt = rule.StartsAt
	}
	if endsAt.IsZero() {
		endsAt = rule.EndsAt
	}
	length := s.cfg.GeneratedCodeLength
	if length <= 0 {
		length = 10
	}
	prefix := strings.ToUpper(strings.TrimSpace(in.Prefix))
	codes := make([]models.DiscountCode, 0, in.Count)
	for i := 0; i < in.Count; i++ {
		value := prefix + randomCode(length)
		if err := ValidateDiscountCode(value, startsAt, endsAt); err != nil {
			return nil, err
		}
		codes = append(codes, models.DiscountCode{RuleID: ruleID, Code: value, StartsAt: startsAt, EndsAt: endsAt})
	}
	if err := s.codeRepo.CreateBatch(codes); err != nil {
		return nil, translateWriteError(err)
	}
	logger.Infow("discount_codes_generated", "rule_id", ruleID, "count", len(codes))
	return codes, nil
}

// UpdateCode 更新折扣码
func (s *DiscountService) UpdateCode(id uint, in DiscountCodeInput) (*models.DiscountCode, error) {
	code, err := s.codeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrDiscountCodeNotFound
	}
	if value := strings.TrimSpace(in.Code); value != "" {
		code.Code = value
	}
	if !in.StartsAt.IsZero() {
		code.StartsAt = in.StartsAt
	}
	if !in.EndsAt.IsZero() {
		code.EndsAt = in.EndsAt
	}
	if err := ValidateDiscountCode(code.Code, code.StartsAt, code.EndsAt); err != nil {
		return nil, err
	}
	err = s.withRuleCartRecalc(code.RuleID, func(tx *gorm.DB) error {
		return translateWriteError(s.codeRepo.WithTx(tx).Update(code))
	})
	if err != nil {
		return nil, err
	}
	return code, nil
}

// DeleteCode 删除折扣码
func (s *DiscountService) DeleteCode(id uint) error {
	code, err := s.codeRepo.GetByID(id)
	if err != nil {
		return err
	}
	if code == nil {
		return ErrDiscountCodeNotFound
	}
	return s.withRuleCartRecalc(code.RuleID, func(tx *gorm.DB) error {
		return s.codeRepo.WithTx(tx).Delete(id)
	})
}

// withRuleCartRecalc 规则或折扣码变更后重算已应用该规则的当前购物车
func (s *DiscountService) withRuleCartRecalc(ruleID uint, write func(tx *gorm.DB) error) error {
	var cartIDs []uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		ids, err := s.cartRepo.WithTx(tx).ListActiveCartIDsByRule(ruleID)
		if err != nil {
			return err
		}
		cartIDs = ids
		if err := write(tx); err != nil {
			return err
		}
		return s.recalc.RecalculateCarts(tx, ids)
	})
	if err != nil {
		return err
	}
	invalidatePreviews(cartIDs)
	return nil
}

// randomCode 生成大写随机码
func randomCode(length int) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	for len(raw) < length {
		raw += strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return raw[:length]
}
