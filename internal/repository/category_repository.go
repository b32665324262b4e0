package repository

import (
	"errors"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类数据访问接口
type CategoryRepository interface {
	List() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	DeleteIfEmpty(id uint) (bool, error)
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List 按排序权重倒序，附带上架商品数
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	activeProducts := r.db.Model(&models.Product{}).
		Select("COUNT(*)").
		Where("products.category_id = categories.id AND products.is_active = ?", true)

	var categories []models.Category
	err := r.db.Model(&models.Category{}).
		Select("categories.*, (?) AS product_count", activeProducts).
		Order("categories.sort_order DESC, categories.id ASC").
		Find(&categories).Error
	return categories, err
}

// GetByID 不存在时返回 nil
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Create 新增分类
func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// Update 只写名称与排序
func (r *GormCategoryRepository) Update(category *models.Category) error {
	return r.db.Model(category).Select("name", "sort_order").Updates(category).Error
}

// DeleteIfEmpty 分类下没有任何商品（含下架）时删除；有商品返回 false
func (r *GormCategoryRepository) DeleteIfEmpty(id uint) (bool, error) {
	hasProducts := r.db.Model(&models.Product{}).Select("1").Where("products.category_id = ?", id)
	result := r.db.Where("id = ? AND NOT EXISTS (?)", id, hasProducts).Delete(&models.Category{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
