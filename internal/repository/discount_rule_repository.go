package repository

import (
	"errors"
	"strings"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// DiscountRuleRepository 折扣规则数据访问接口
type DiscountRuleRepository interface {
	GetByID(id uint) (*models.DiscountRule, error)
	List(filter DiscountRuleListFilter) ([]models.DiscountRule, int64, error)
	Create(rule *models.DiscountRule) error
	Update(rule *models.DiscountRule) error
	Delete(id uint) error
	ReplaceTargets(ruleID uint, targets []models.DiscountRuleTarget) error
	ListTargets(ruleID uint) ([]models.DiscountRuleTarget, error)
	ReplaceCustomers(ruleID uint, profileIDs []uint) error
	ListCustomerIDs(ruleID uint) ([]uint, error)
	HasCustomer(ruleID, profileID uint) (bool, error)
	GetRatio(ruleID uint) (*models.DiscountRuleRatio, error)
	SaveRatio(ratio *models.DiscountRuleRatio) error
	DeleteRatio(ruleID uint) error
	WithTx(tx *gorm.DB) *GormDiscountRuleRepository
}

// GormDiscountRuleRepository GORM 实现
type GormDiscountRuleRepository struct {
	db *gorm.DB
}

// NewDiscountRuleRepository 创建折扣规则仓库
func NewDiscountRuleRepository(db *gorm.DB) *GormDiscountRuleRepository {
	return &GormDiscountRuleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRuleRepository) WithTx(tx *gorm.DB) *GormDiscountRuleRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRuleRepository{db: tx}
}

// GetByID 根据 ID 获取规则（含关联集合与比例）
func (r *GormDiscountRuleRepository) GetByID(id uint) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	if err := r.db.Preload("Targets").Preload("Ratio").First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// List 规则列表
func (r *GormDiscountRuleRepository) List(filter DiscountRuleListFilter) ([]models.DiscountRule, int64, error) {
	query := r.db.Model(&models.DiscountRule{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, count := buildLikeCondition(r.db, []string{"title", "description"})
		query = query.Where(condition, repeatLikeArgs("%"+search+"%", count)...)
	}
	if filter.ActiveAt != nil {
		query = query.Where("starts_at <= ? AND ends_at >= ?", *filter.ActiveAt, *filter.ActiveAt)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rules []models.DiscountRule
	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if err := query.Preload("Ratio").Order("id desc").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

// Create 创建规则
func (r *GormDiscountRuleRepository) Create(rule *models.DiscountRule) error {
	return r.db.Omit("Targets", "Ratio").Create(rule).Error
}

// Update 更新规则
func (r *GormDiscountRuleRepository) Update(rule *models.DiscountRule) error {
	return r.db.Omit("Targets", "Ratio").Save(rule).Error
}

// Delete 删除规则及其关联数据
func (r *GormDiscountRuleRepository) Delete(id uint) error {
	var codeIDs []uint
	if err := r.db.Model(&models.DiscountCode{}).Where("rule_id = ?", id).Pluck("id", &codeIDs).Error; err != nil {
		return err
	}
	if len(codeIDs) > 0 {
		if err := r.db.Exec("DELETE FROM cart_discount_codes WHERE discount_code_id IN ?", codeIDs).Error; err != nil {
			return err
		}
		if err := r.db.Exec("DELETE FROM order_discount_codes WHERE discount_code_id IN ?", codeIDs).Error; err != nil {
			return err
		}
	}
	steps := []interface{}{
		&models.DiscountCode{},
		&models.DiscountRuleTarget{},
		&models.DiscountRuleCustomer{},
		&models.DiscountRuleRatio{},
	}
	for _, model := range steps {
		if err := r.db.Where("rule_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	return r.db.Delete(&models.DiscountRule{}, id).Error
}

// ReplaceTargets 覆盖规则的权益/前置集合
func (r *GormDiscountRuleRepository) ReplaceTargets(ruleID uint, targets []models.DiscountRuleTarget) error {
	if err := r.db.Where("rule_id = ?", ruleID).Delete(&models.DiscountRuleTarget{}).Error; err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}
	rows := make([]models.DiscountRuleTarget, 0, len(targets))
	for _, target := range targets {
		target.ID = 0
		target.RuleID = ruleID
		rows = append(rows, target)
	}
	return r.db.Create(&rows).Error
}

// ListTargets 获取规则关联集合
func (r *GormDiscountRuleRepository) ListTargets(ruleID uint) ([]models.DiscountRuleTarget, error) {
	var targets []models.DiscountRuleTarget
	if err := r.db.Where("rule_id = ?", ruleID).Order("id asc").Find(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

// ReplaceCustomers 覆盖规则指定顾客
func (r *GormDiscountRuleRepository) ReplaceCustomers(ruleID uint, profileIDs []uint) error {
	if err := r.db.Where("rule_id = ?", ruleID).Delete(&models.DiscountRuleCustomer{}).Error; err != nil {
		return err
	}
	if len(profileIDs) == 0 {
		return nil
	}
	rows := make([]models.DiscountRuleCustomer, 0, len(profileIDs))
	for _, id := range profileIDs {
		rows = append(rows, models.DiscountRuleCustomer{RuleID: ruleID, ProfileID: id})
	}
	return r.db.Create(&rows).Error
}

// ListCustomerIDs 获取规则指定顾客
func (r *GormDiscountRuleRepository) ListCustomerIDs(ruleID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.DiscountRuleCustomer{}).Where("rule_id = ?", ruleID).Order("profile_id asc").Pluck("profile_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// HasCustomer 判断顾客是否在规则指定名单中
func (r *GormDiscountRuleRepository) HasCustomer(ruleID, profileID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.DiscountRuleCustomer{}).Where("rule_id = ? AND profile_id = ?", ruleID, profileID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetRatio 获取买 X 送 Y 比例
func (r *GormDiscountRuleRepository) GetRatio(ruleID uint) (*models.DiscountRuleRatio, error) {
	var ratio models.DiscountRuleRatio
	if err := r.db.Where("rule_id = ?", ruleID).First(&ratio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ratio, nil
}

// SaveRatio 创建或更新比例
func (r *GormDiscountRuleRepository) SaveRatio(ratio *models.DiscountRuleRatio) error {
	existing, err := r.GetRatio(ratio.RuleID)
	if err != nil {
		return err
	}
	if existing != nil {
		ratio.ID = existing.ID
		ratio.CreatedAt = existing.CreatedAt
	}
	return r.db.Save(ratio).Error
}

// DeleteRatio 删除比例
func (r *GormDiscountRuleRepository) DeleteRatio(ruleID uint) error {
	return r.db.Where("rule_id = ?", ruleID).Delete(&models.DiscountRuleRatio{}).Error
}
