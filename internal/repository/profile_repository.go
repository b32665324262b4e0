package repository

import (
	"errors"
	"strings"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository 账号数据访问接口
type ProfileRepository interface {
	GetByID(id uint) (*models.Profile, error)
	GetByUsername(username string) (*models.Profile, error)
	Create(profile *models.Profile) error
	Update(profile *models.Profile) error
	UpdateRole(id uint, role string) error
	List(filter ProfileListFilter) ([]models.Profile, int64, error)
	ListWishlist(profileID uint) ([]models.ProductVariant, error)
	AddWishlist(profileID, variantID uint) error
	RemoveWishlist(profileID, variantID uint) error
	WithTx(tx *gorm.DB) *GormProfileRepository
}

// GormProfileRepository GORM 实现
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建账号仓库
func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProfileRepository) WithTx(tx *gorm.DB) *GormProfileRepository {
	if tx == nil {
		return r
	}
	return &GormProfileRepository{db: tx}
}

// GetByID 根据 ID 获取账号
func (r *GormProfileRepository) GetByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByUsername 根据登录名获取账号
func (r *GormProfileRepository) GetByUsername(username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("username = ?", strings.TrimSpace(username)).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create 创建账号
func (r *GormProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

// Update 更新账号
func (r *GormProfileRepository) Update(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

// UpdateRole 修改角色并递增 Token 版本
func (r *GormProfileRepository) UpdateRole(id uint, role string) error {
	return r.db.Model(&models.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"role":          role,
		"token_version": gorm.Expr("token_version + 1"),
	}).Error
}

// List 账号列表
func (r *GormProfileRepository) List(filter ProfileListFilter) ([]models.Profile, int64, error) {
	query := r.db.Model(&models.Profile{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, count := buildLikeCondition(r.db, []string{"username", "phone_number"})
		query = query.Where(condition, repeatLikeArgs("%"+search+"%", count)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []models.Profile
	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if err := query.Order("id desc").Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ListWishlist 获取心愿单
func (r *GormProfileRepository) ListWishlist(profileID uint) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := r.db.Preload("Product").
		Joins("JOIN profile_wishlist ON profile_wishlist.variant_id = product_variants.id").
		Where("profile_wishlist.profile_id = ?", profileID).
		Order("product_variants.id asc").
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// AddWishlist 加入心愿单（重复加入无副作用）
func (r *GormProfileRepository) AddWishlist(profileID, variantID uint) error {
	return r.db.Exec(
		"INSERT INTO profile_wishlist (profile_id, variant_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		profileID, variantID,
	).Error
}

// RemoveWishlist 移出心愿单
func (r *GormProfileRepository) RemoveWishlist(profileID, variantID uint) error {
	return r.db.Exec("DELETE FROM profile_wishlist WHERE profile_id = ? AND variant_id = ?", profileID, variantID).Error
}
