package repository

import (
	"errors"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// CollectionRepository 合集数据访问接口
type CollectionRepository interface {
	List() ([]models.Collection, error)
	GetByID(id uint) (*models.Collection, error)
	Create(collection *models.Collection) error
	Update(collection *models.Collection) error
	Delete(id uint) error
	ReplaceProducts(collectionID uint, productIDs []uint) error
	MapCollectionIDsByProducts(productIDs []uint) (map[uint][]uint, error)
	WithTx(tx *gorm.DB) *GormCollectionRepository
}

// GormCollectionRepository GORM 实现
type GormCollectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository 创建合集仓库
func NewCollectionRepository(db *gorm.DB) *GormCollectionRepository {
	return &GormCollectionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCollectionRepository) WithTx(tx *gorm.DB) *GormCollectionRepository {
	if tx == nil {
		return r
	}
	return &GormCollectionRepository{db: tx}
}

// List 合集列表
func (r *GormCollectionRepository) List() ([]models.Collection, error) {
	var collections []models.Collection
	if err := r.db.Order("id desc").Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

// GetByID 根据 ID 获取合集（含商品）
func (r *GormCollectionRepository) GetByID(id uint) (*models.Collection, error) {
	var collection models.Collection
	if err := r.db.Preload("Products").First(&collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &collection, nil
}

// Create 创建合集
func (r *GormCollectionRepository) Create(collection *models.Collection) error {
	return r.db.Omit("Products").Create(collection).Error
}

// Update 更新合集
func (r *GormCollectionRepository) Update(collection *models.Collection) error {
	return r.db.Omit("Products").Save(collection).Error
}

// Delete 删除合集及商品关联
func (r *GormCollectionRepository) Delete(id uint) error {
	if err := r.db.Exec("DELETE FROM collection_products WHERE collection_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Collection{}, id).Error
}

// ReplaceProducts 覆盖合集商品
func (r *GormCollectionRepository) ReplaceProducts(collectionID uint, productIDs []uint) error {
	if err := r.db.Exec("DELETE FROM collection_products WHERE collection_id = ?", collectionID).Error; err != nil {
		return err
	}
	for _, productID := range productIDs {
		if err := r.db.Exec(
			"INSERT INTO collection_products (collection_id, product_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			collectionID, productID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

// MapCollectionIDsByProducts 获取商品所属合集：product_id -> []collection_id
func (r *GormCollectionRepository) MapCollectionIDsByProducts(productIDs []uint) (map[uint][]uint, error) {
	result := make(map[uint][]uint)
	if len(productIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		CollectionID uint
		ProductID    uint
	}
	if err := r.db.Table("collection_products").
		Select("collection_id", "product_id").
		Where("product_id IN ?", productIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ProductID] = append(result[row.ProductID], row.CollectionID)
	}
	return result, nil
}
