package repository

import (
	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// DiscountUsageRepository 折扣使用记录数据访问接口
type DiscountUsageRepository interface {
	Create(usage *models.DiscountUsage) error
	CountByRuleAndCustomer(ruleID, customerID, excludeOrderID uint) (int64, error)
	ListByCustomer(customerID uint, page, pageSize int) ([]models.DiscountUsage, int64, error)
	WithTx(tx *gorm.DB) *GormDiscountUsageRepository
}

// GormDiscountUsageRepository GORM 实现
type GormDiscountUsageRepository struct {
	db *gorm.DB
}

// NewDiscountUsageRepository 创建折扣使用记录仓库
func NewDiscountUsageRepository(db *gorm.DB) *GormDiscountUsageRepository {
	return &GormDiscountUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountUsageRepository) WithTx(tx *gorm.DB) *GormDiscountUsageRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountUsageRepository{db: tx}
}

// Create 创建使用记录
func (r *GormDiscountUsageRepository) Create(usage *models.DiscountUsage) error {
	return r.db.Create(usage).Error
}

// CountByRuleAndCustomer 统计顾客对规则的使用次数（可排除指定订单）
func (r *GormDiscountUsageRepository) CountByRuleAndCustomer(ruleID, customerID, excludeOrderID uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.DiscountUsage{}).Where("rule_id = ? AND customer_id = ?", ruleID, customerID)
	if excludeOrderID > 0 {
		query = query.Where("order_id <> ?", excludeOrderID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListByCustomer 顾客使用记录
func (r *GormDiscountUsageRepository) ListByCustomer(customerID uint, page, pageSize int) ([]models.DiscountUsage, int64, error) {
	query := r.db.Model(&models.DiscountUsage{}).Where("customer_id = ?", customerID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var usages []models.DiscountUsage
	if err := query.Scopes(paginate(page, pageSize)).Order("id desc").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}
