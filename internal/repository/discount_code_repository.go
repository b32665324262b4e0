package repository

import (
	"errors"
	"strings"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// DiscountCodeRepository 折扣码数据访问接口
type DiscountCodeRepository interface {
	GetByID(id uint) (*models.DiscountCode, error)
	GetByCode(code string) (*models.DiscountCode, error)
	ListByIDs(ids []uint) ([]models.DiscountCode, error)
	List(filter DiscountCodeListFilter) ([]models.DiscountCode, int64, error)
	Create(code *models.DiscountCode) error
	CreateBatch(codes []models.DiscountCode) error
	Update(code *models.DiscountCode) error
	Delete(id uint) error
	IncrementUsage(id uint, usageLimit int) (bool, error)
	WithTx(tx *gorm.DB) *GormDiscountCodeRepository
}

// GormDiscountCodeRepository GORM 实现
type GormDiscountCodeRepository struct {
	db *gorm.DB
}

// NewDiscountCodeRepository 创建折扣码仓库
func NewDiscountCodeRepository(db *gorm.DB) *GormDiscountCodeRepository {
	return &GormDiscountCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountCodeRepository) WithTx(tx *gorm.DB) *GormDiscountCodeRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountCodeRepository{db: tx}
}

func (r *GormDiscountCodeRepository) withRule(query *gorm.DB) *gorm.DB {
	return query.Preload("Rule").Preload("Rule.Targets").Preload("Rule.Ratio")
}

// GetByID 根据 ID 获取折扣码（含规则）
func (r *GormDiscountCodeRepository) GetByID(id uint) (*models.DiscountCode, error) {
	var code models.DiscountCode
	if err := r.withRule(r.db).First(&code, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetByCode 根据折扣码获取（含规则）
func (r *GormDiscountCodeRepository) GetByCode(code string) (*models.DiscountCode, error) {
	var row models.DiscountCode
	if err := r.withRule(r.db).Where("code = ?", strings.TrimSpace(code)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByIDs 批量获取折扣码（含规则）
func (r *GormDiscountCodeRepository) ListByIDs(ids []uint) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	if len(ids) == 0 {
		return codes, nil
	}
	if err := r.withRule(r.db).Where("id IN ?", ids).Order("id asc").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// List 折扣码列表
func (r *GormDiscountCodeRepository) List(filter DiscountCodeListFilter) ([]models.DiscountCode, int64, error) {
	query := r.db.Model(&models.DiscountCode{})
	if filter.RuleID != 0 {
		query = query.Where("rule_id = ?", filter.RuleID)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		condition, count := buildLikeCondition(r.db, []string{"code"})
		query = query.Where(condition, repeatLikeArgs("%"+code+"%", count)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var codes []models.DiscountCode
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id desc").Find(&codes).Error; err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// Create 创建折扣码
func (r *GormDiscountCodeRepository) Create(code *models.DiscountCode) error {
	return r.db.Omit("Rule").Create(code).Error
}

// CreateBatch 批量创建折扣码
func (r *GormDiscountCodeRepository) CreateBatch(codes []models.DiscountCode) error {
	if len(codes) == 0 {
		return nil
	}
	return r.db.Omit("Rule").Create(&codes).Error
}

// Update 更新折扣码
func (r *GormDiscountCodeRepository) Update(code *models.DiscountCode) error {
	return r.db.Omit("Rule").Save(code).Error
}

// Delete 删除折扣码及其购物车关联
func (r *GormDiscountCodeRepository) Delete(id uint) error {
	if err := r.db.Exec("DELETE FROM cart_discount_codes WHERE discount_code_id = ?", id).Error; err != nil {
		return err
	}
	if err := r.db.Exec("DELETE FROM order_discount_codes WHERE discount_code_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.DiscountCode{}, id).Error
}

// IncrementUsage 在未达上限时递增使用次数，返回是否成功
func (r *GormDiscountCodeRepository) IncrementUsage(id uint, usageLimit int) (bool, error) {
	result := r.db.Model(&models.DiscountCode{}).
		Where("id = ? AND usage_count < ?", id, usageLimit).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
