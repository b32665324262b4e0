package service

import (
	"context"
	"strings"
	"time"

	"github.com/maryema-next/internal/cache"
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountedUnitPrice 规格折扣后的单价
func DiscountedUnitPrice(base models.Money, discount *models.VariantDiscount) models.Money {
	if discount == nil {
		return base
	}
	switch strings.ToLower(strings.TrimSpace(discount.Type)) {
	case constants.VariantDiscountTypeFixed:
		return models.NewMoneyFromDecimal(applyFixed(base.Decimal, discount.Value.Decimal))
	case constants.VariantDiscountTypePercent:
		return models.NewMoneyFromDecimal(applyPercentage(base.Decimal, discount.Value.Decimal))
	default:
		return base
	}
}

// VariantDiscountService 规格折扣服务
type VariantDiscountService struct {
	discountRepo repository.VariantDiscountRepository
	variantRepo  repository.ProductVariantRepository
	cartRepo     repository.CartRepository
	recalc       *RecalcService
}

// NewVariantDiscountService 创建规格折扣服务
func NewVariantDiscountService(
	discountRepo repository.VariantDiscountRepository,
	variantRepo repository.ProductVariantRepository,
	cartRepo repository.CartRepository,
	recalc *RecalcService,
) *VariantDiscountService {
	return &VariantDiscountService{
		discountRepo: discountRepo,
		variantRepo:  variantRepo,
		cartRepo:     cartRepo,
		recalc:       recalc,
	}
}

// VariantDiscountInput 规格折扣写入参数
type VariantDiscountInput struct {
	VariantID uint         `json:"variant_id"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	Value     models.Money `json:"value"`
	StartsAt  *time.Time   `json:"starts_at"`
	EndsAt    *time.Time   `json:"ends_at"`
	IsActive  *bool        `json:"is_active"`
}

func validateVariantDiscount(in VariantDiscountInput) error {
	var vs violations
	if strings.TrimSpace(in.Name) == "" {
		vs.add("name", CodeRequired, "name is required")
	}
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case constants.VariantDiscountTypePercent:
		if in.Value.LessThan(decimal.Zero) || in.Value.GreaterThan(hundred) {
			vs.add("value", CodeDiscountValue, "percent value must be between 0 and 100")
		}
	case constants.VariantDiscountTypeFixed:
		if in.Value.LessThan(decimal.Zero) {
			vs.add("value", CodeDiscountValue, "fixed value must not be negative")
		}
	default:
		vs.add("type", CodeDiscountEnum, "type must be fixed or percent")
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		vs.add("ends_at", CodeDiscountWindow, "ends_at must not be earlier than starts_at")
	}
	return vs.err()
}

// ActivePrice 返回规格当前单价与生效的规格折扣
func (s *VariantDiscountService) ActivePrice(variant *models.ProductVariant) (models.Money, *models.VariantDiscount, error) {
	if variant == nil {
		return models.ZeroMoney(), nil, ErrVariantNotFound
	}
	discount, err := s.discountRepo.GetActiveByVariant(variant.ID, time.Now())
	if err != nil {
		return models.Money{}, nil, err
	}
	return DiscountedUnitPrice(variant.Price, discount), discount, nil
}

// List 规格折扣列表
func (s *VariantDiscountService) List(filter repository.VariantDiscountListFilter) ([]models.VariantDiscount, int64, error) {
	return s.discountRepo.List(filter)
}

// Create 新增规格折扣并重算受影响的购物车
func (s *VariantDiscountService) Create(in VariantDiscountInput) (*models.VariantDiscount, error) {
	if err := validateVariantDiscount(in); err != nil {
		return nil, err
	}
	variant, err := s.variantRepo.GetByID(in.VariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	discount := &models.VariantDiscount{
		VariantID: in.VariantID,
		Name:      strings.TrimSpace(in.Name),
		Type:      strings.ToLower(strings.TrimSpace(in.Type)),
		Value:     in.Value,
		StartsAt:  in.StartsAt,
		EndsAt:    in.EndsAt,
		IsActive:  in.IsActive == nil || *in.IsActive,
	}
	err = s.withCartRecalc(in.VariantID, func(tx *gorm.DB) error {
		repo := s.discountRepo.WithTx(tx)
		if err := repo.Create(discount); err != nil {
			return err
		}
		// is_active 列有默认值，false 需要显式回写
		if !discount.IsActive {
			return repo.Update(discount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return discount, nil
}

// Update 更新规格折扣
func (s *VariantDiscountService) Update(id uint, in VariantDiscountInput) (*models.VariantDiscount, error) {
	discount, err := s.discountRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, ErrVariantDiscountNotFound
	}
	in.VariantID = discount.VariantID
	if err := validateVariantDiscount(in); err != nil {
		return nil, err
	}
	discount.Name = strings.TrimSpace(in.Name)
	discount.Type = strings.ToLower(strings.TrimSpace(in.Type))
	discount.Value = in.Value
	discount.StartsAt = in.StartsAt
	discount.EndsAt = in.EndsAt
	if in.IsActive != nil {
		discount.IsActive = *in.IsActive
	}
	err = s.withCartRecalc(discount.VariantID, func(tx *gorm.DB) error {
		return s.discountRepo.WithTx(tx).Update(discount)
	})
	if err != nil {
		return nil, err
	}
	return discount, nil
}

// Delete 删除规格折扣
func (s *VariantDiscountService) Delete(id uint) error {
	discount, err := s.discountRepo.GetByID(id)
	if err != nil {
		return err
	}
	if discount == nil {
		return ErrVariantDiscountNotFound
	}
	return s.withCartRecalc(discount.VariantID, func(tx *gorm.DB) error {
		return s.discountRepo.WithTx(tx).Delete(id)
	})
}

// withCartRecalc 写入与当前购物车重算放在同一事务
func (s *VariantDiscountService) withCartRecalc(variantID uint, write func(tx *gorm.DB) error) error {
	var cartIDs []uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := write(tx); err != nil {
			return err
		}
		ids, err := s.cartRepo.WithTx(tx).ListCartIDsByVariant(variantID, true)
		if err != nil {
			return err
		}
		cartIDs = ids
		return s.recalc.RecalculateCarts(tx, ids)
	})
	if err != nil {
		return err
	}
	_ = cache.InvalidateDiscountPreview(context.Background(), cartIDs...)
	return nil
}
