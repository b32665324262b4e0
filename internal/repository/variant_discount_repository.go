package repository

import (
	"errors"
	"time"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// VariantDiscountRepository 规格折扣数据访问接口
type VariantDiscountRepository interface {
	GetByID(id uint) (*models.VariantDiscount, error)
	GetActiveByVariant(variantID uint, now time.Time) (*models.VariantDiscount, error)
	MapActiveByVariants(variantIDs []uint, now time.Time) (map[uint]models.VariantDiscount, error)
	Create(discount *models.VariantDiscount) error
	Update(discount *models.VariantDiscount) error
	Delete(id uint) error
	List(filter VariantDiscountListFilter) ([]models.VariantDiscount, int64, error)
	WithTx(tx *gorm.DB) *GormVariantDiscountRepository
}

// VariantDiscountListFilter 规格折扣列表筛选
type VariantDiscountListFilter struct {
	VariantID uint
	IsActive  *bool
	Page      int
	PageSize  int
}

// GormVariantDiscountRepository GORM 实现
type GormVariantDiscountRepository struct {
	db *gorm.DB
}

// NewVariantDiscountRepository 创建规格折扣仓库
func NewVariantDiscountRepository(db *gorm.DB) *GormVariantDiscountRepository {
	return &GormVariantDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantDiscountRepository) WithTx(tx *gorm.DB) *GormVariantDiscountRepository {
	if tx == nil {
		return r
	}
	return &GormVariantDiscountRepository{db: tx}
}

// GetByID 根据ID获取规格折扣
func (r *GormVariantDiscountRepository) GetByID(id uint) (*models.VariantDiscount, error) {
	var discount models.VariantDiscount
	if err := r.db.First(&discount, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

func (r *GormVariantDiscountRepository) activeQuery(now time.Time) *gorm.DB {
	query := r.db.Where("is_active = ?", true)
	query = query.Where("(starts_at IS NULL OR starts_at <= ?)", now)
	return query.Where("(ends_at IS NULL OR ends_at >= ?)", now)
}

// GetActiveByVariant 获取规格当前有效折扣
func (r *GormVariantDiscountRepository) GetActiveByVariant(variantID uint, now time.Time) (*models.VariantDiscount, error) {
	var discount models.VariantDiscount
	if err := r.activeQuery(now).Where("variant_id = ?", variantID).Order("id desc").First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// MapActiveByVariants 批量获取有效折扣，同一规格取最新一条
func (r *GormVariantDiscountRepository) MapActiveByVariants(variantIDs []uint, now time.Time) (map[uint]models.VariantDiscount, error) {
	result := make(map[uint]models.VariantDiscount)
	if len(variantIDs) == 0 {
		return result, nil
	}
	var rows []models.VariantDiscount
	if err := r.activeQuery(now).Where("variant_id IN ?", variantIDs).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.VariantID] = row
	}
	return result, nil
}

// Create 创建规格折扣
func (r *GormVariantDiscountRepository) Create(discount *models.VariantDiscount) error {
	return r.db.Create(discount).Error
}

// Update 更新规格折扣
func (r *GormVariantDiscountRepository) Update(discount *models.VariantDiscount) error {
	return r.db.Save(discount).Error
}

// Delete 删除规格折扣
func (r *GormVariantDiscountRepository) Delete(id uint) error {
	return r.db.Delete(&models.VariantDiscount{}, id).Error
}

// List 规格折扣列表
func (r *GormVariantDiscountRepository) List(filter VariantDiscountListFilter) ([]models.VariantDiscount, int64, error) {
	query := r.db.Model(&models.VariantDiscount{})
	if filter.VariantID != 0 {
		query = query.Where("variant_id = ?", filter.VariantID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var discounts []models.VariantDiscount
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id desc").Find(&discounts).Error; err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}
