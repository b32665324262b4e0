package repository

import (
	"errors"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// FeedbackRepository 评价数据访问接口
type FeedbackRepository interface {
	GetByID(id uint) (*models.Feedback, error)
	GetByCustomerAndProduct(customerID, productID uint) (*models.Feedback, error)
	List(filter FeedbackListFilter) ([]models.Feedback, int64, error)
	AverageRate(productID uint) (float64, int64, error)
	Create(feedback *models.Feedback) error
	Update(feedback *models.Feedback) error
	Delete(id uint) error
}

// GormFeedbackRepository GORM 实现
type GormFeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 创建评价仓库
func NewFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

// GetByID 根据 ID 获取评价
func (r *GormFeedbackRepository) GetByID(id uint) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.First(&feedback, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &feedback, nil
}

// GetByCustomerAndProduct 获取顾客对商品的评价
func (r *GormFeedbackRepository) GetByCustomerAndProduct(customerID, productID uint) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.Where("customer_id = ? AND product_id = ?", customerID, productID).First(&feedback).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &feedback, nil
}

// List 评价列表（高分在前）
func (r *GormFeedbackRepository) List(filter FeedbackListFilter) ([]models.Feedback, int64, error) {
	query := r.db.Model(&models.Feedback{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var feedbacks []models.Feedback
	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if err := query.Preload("Customer").Order("rate desc, id desc").Find(&feedbacks).Error; err != nil {
		return nil, 0, err
	}
	return feedbacks, total, nil
}

// AverageRate 商品平均评分与评价数
func (r *GormFeedbackRepository) AverageRate(productID uint) (float64, int64, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	if err := r.db.Model(&models.Feedback{}).
		Select("COALESCE(AVG(rate), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Count, nil
}

// Create 创建评价
func (r *GormFeedbackRepository) Create(feedback *models.Feedback) error {
	return r.db.Omit("Customer").Create(feedback).Error
}

// Update 更新评价
func (r *GormFeedbackRepository) Update(feedback *models.Feedback) error {
	return r.db.Omit("Customer").Save(feedback).Error
}

// Delete 删除评价
func (r *GormFeedbackRepository) Delete(id uint) error {
	return r.db.Delete(&models.Feedback{}, id).Error
}
