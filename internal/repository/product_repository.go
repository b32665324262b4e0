package repository

import (
	"errors"
	"strings"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ProviderID != 0 {
		query = query.Where("provider_id = ?", filter.ProviderID)
	}
	if filter.CollectionID != 0 {
		query = query.Where("id IN (?)", r.db.Table("collection_products").Select("product_id").Where("collection_id = ?", filter.CollectionID))
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, count := buildLikeCondition(r.db, []string{"name", "description"})
		query = query.Where(condition, repeatLikeArgs("%"+search+"%", count)...)
	}
	if variants, ok := r.variantFilter(filter); ok {
		query = query.Where("EXISTS (?)", variants)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if filter.WithVariants {
		query = query.Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order desc, id asc")
		})
	}
	var products []models.Product
	if err := query.Preload("Category").Order("sort_order desc, id desc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// variantFilter 规格条件子查询，未设置任何规格条件时返回 false
func (r *GormProductRepository) variantFilter(filter ProductListFilter) (*gorm.DB, bool) {
	sub := r.db.Model(&models.ProductVariant{}).Select("1").Where("product_variants.product_id = products.id")
	applied := false
	if filter.MinPrice != nil {
		sub = sub.Where("product_variants.price >= ?", *filter.MinPrice)
		applied = true
	}
	if filter.MaxPrice != nil {
		sub = sub.Where("product_variants.price <= ?", *filter.MaxPrice)
		applied = true
	}
	if size := strings.TrimSpace(filter.Size); size != "" {
		sub = sub.Where("LOWER(product_variants.size) = ?", strings.ToLower(size))
		applied = true
	}
	if color := strings.TrimSpace(filter.Color); color != "" {
		sub = sub.Where("LOWER(product_variants.color) = ?", strings.ToLower(color))
		applied = true
	}
	return sub, applied
}

// GetByID 根据 ID 获取商品（含规格）
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Category").Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order desc, id asc")
	}).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Omit("Variants", "Category").Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Omit("Variants", "Category").Save(product).Error
}

// Delete 删除商品及其合集关联
func (r *GormProductRepository) Delete(id uint) error {
	if err := r.db.Exec("DELETE FROM collection_products WHERE product_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Product{}, id).Error
}
