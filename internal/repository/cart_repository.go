package repository

import (
	"errors"
	"time"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByID(id uint) (*models.Cart, error)
	GetActiveByCustomer(customerID uint) (*models.Cart, error)
	LockActiveByCustomer(customerID uint) (*models.Cart, error)
	Create(cart *models.Cart) error
	Deactivate(cartID uint) error
	UpdateTotals(cartID uint, subtotal, discount, cost models.Money) error
	ListItems(cartID uint) ([]models.CartItem, error)
	GetItemByID(id uint) (*models.CartItem, error)
	GetItemByVariant(cartID, variantID uint) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	UpdateItemQuantity(id uint, quantity int) error
	DeleteItem(id uint) error
	ClearItems(cartID uint) (int64, error)
	ListCartIDsByVariant(variantID uint, onlyActive bool) ([]uint, error)
	DeleteItemsByVariant(variantID uint) error
	ListActiveCartIDsByRule(ruleID uint) ([]uint, error)
	ListActiveCartIDsByWindowEdge(from, to time.Time) ([]uint, error)
	ListCodes(cartID uint) ([]models.DiscountCode, error)
	AttachCode(cartID, codeID uint) error
	DetachCode(cartID, codeID uint) error
	ClearCodes(cartID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

func (r *GormCartRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Variant").
		Preload("Items.Variant.Product").
		Preload("DiscountCodes")
}

// GetByID 根据 ID 获取购物车
func (r *GormCartRepository) GetByID(id uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.withDetail(r.db).First(&cart, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetActiveByCustomer 获取顾客当前购物车
func (r *GormCartRepository) GetActiveByCustomer(customerID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.withDetail(r.db).Where("customer_id = ? AND is_active = ?", customerID, true).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// LockActiveByCustomer 在事务中锁定顾客当前购物车（sqlite 忽略行锁）
func (r *GormCartRepository) LockActiveByCustomer(customerID uint) (*models.Cart, error) {
	var cart models.Cart
	query := r.db
	if dbDialectName(r.db) != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Where("customer_id = ? AND is_active = ?", customerID, true).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create 创建购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Omit("Items", "DiscountCodes").Create(cart).Error
}

// Deactivate 停用购物车
func (r *GormCartRepository) Deactivate(cartID uint) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Update("is_active", false).Error
}

// UpdateTotals 写入购物车派生金额
func (r *GormCartRepository) UpdateTotals(cartID uint, subtotal, discount, cost models.Money) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"subtotal":        subtotal,
		"discount_amount": discount,
		"cost":            cost,
	}).Error
}

// ListItems 获取购物车明细（含规格与商品）
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Variant").Preload("Variant.Product").
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetItemByID 根据 ID 获取购物车明细
func (r *GormCartRepository) GetItemByID(id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetItemByVariant 获取购物车内指定规格的明细
func (r *GormCartRepository) GetItemByVariant(cartID, variantID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Where("cart_id = ? AND variant_id = ?", cartID, variantID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem 创建购物车明细
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	return r.db.Omit("Variant").Create(item).Error
}

// UpdateItemQuantity 更新明细数量
func (r *GormCartRepository) UpdateItemQuantity(id uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity).Error
}

// DeleteItem 删除明细
func (r *GormCartRepository) DeleteItem(id uint) error {
	return r.db.Delete(&models.CartItem{}, id).Error
}

// ClearItems 清空购物车明细
func (r *GormCartRepository) ClearItems(cartID uint) (int64, error) {
	result := r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// ListCartIDsByVariant 获取包含指定规格的购物车 ID
func (r *GormCartRepository) ListCartIDsByVariant(variantID uint, onlyActive bool) ([]uint, error) {
	var ids []uint
	query := r.db.Model(&models.CartItem{}).
		Distinct("cart_items.cart_id").
		Where("cart_items.variant_id = ?", variantID)
	if onlyActive {
		query = query.Joins("JOIN carts ON carts.id = cart_items.cart_id").Where("carts.is_active = ?", true)
	}
	if err := query.Pluck("cart_items.cart_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteItemsByVariant 删除引用指定规格的明细
func (r *GormCartRepository) DeleteItemsByVariant(variantID uint) error {
	return r.db.Where("variant_id = ?", variantID).Delete(&models.CartItem{}).Error
}

// ListActiveCartIDsByRule 获取已应用该规则折扣码的当前购物车 ID
func (r *GormCartRepository) ListActiveCartIDsByRule(ruleID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Table("cart_discount_codes").
		Distinct("cart_discount_codes.cart_id").
		Joins("JOIN carts ON carts.id = cart_discount_codes.cart_id").
		Joins("JOIN discount_codes ON discount_codes.id = cart_discount_codes.discount_code_id").
		Where("carts.is_active = ? AND discount_codes.rule_id = ?", true, ruleID).
		Pluck("cart_discount_codes.cart_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListActiveCartIDsByWindowEdge 获取 (from, to] 内有折扣窗口开启或结束的当前购物车 ID
// 包含规格折扣、折扣规则与折扣码三类窗口
func (r *GormCartRepository) ListActiveCartIDsByWindowEdge(from, to time.Time) ([]uint, error) {
	edge := func(table string) string {
		return "((" + table + ".starts_at > ? AND " + table + ".starts_at <= ?) OR (" + table + ".ends_at > ? AND " + table + ".ends_at <= ?))"
	}
	var variantCarts []uint
	err := r.db.Model(&models.CartItem{}).
		Distinct("cart_items.cart_id").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Joins("JOIN variant_discounts ON variant_discounts.variant_id = cart_items.variant_id").
		Where("carts.is_active = ?", true).
		Where(edge("variant_discounts"), from, to, from, to).
		Pluck("cart_items.cart_id", &variantCarts).Error
	if err != nil {
		return nil, err
	}

	var codeCarts []uint
	err = r.db.Table("cart_discount_codes").
		Distinct("cart_discount_codes.cart_id").
		Joins("JOIN carts ON carts.id = cart_discount_codes.cart_id").
		Joins("JOIN discount_codes ON discount_codes.id = cart_discount_codes.discount_code_id").
		Joins("JOIN discount_rules ON discount_rules.id = discount_codes.rule_id").
		Where("carts.is_active = ?", true).
		Where("("+edge("discount_codes")+" OR "+edge("discount_rules")+")", from, to, from, to, from, to, from, to).
		Pluck("cart_discount_codes.cart_id", &codeCarts).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(variantCarts)+len(codeCarts))
	ids := make([]uint, 0, len(variantCarts)+len(codeCarts))
	for _, id := range append(variantCarts, codeCarts...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListCodes 获取购物车已应用折扣码
func (r *GormCartRepository) ListCodes(cartID uint) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	err := r.db.Preload("Rule").Preload("Rule.Targets").Preload("Rule.Ratio").
		Joins("JOIN cart_discount_codes ON cart_discount_codes.discount_code_id = discount_codes.id").
		Where("cart_discount_codes.cart_id = ?", cartID).
		Order("discount_codes.id asc").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// AttachCode 应用折扣码
func (r *GormCartRepository) AttachCode(cartID, codeID uint) error {
	return r.db.Exec(
		"INSERT INTO cart_discount_codes (cart_id, discount_code_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		cartID, codeID,
	).Error
}

// DetachCode 移除折扣码
func (r *GormCartRepository) DetachCode(cartID, codeID uint) error {
	return r.db.Exec("DELETE FROM cart_discount_codes WHERE cart_id = ? AND discount_code_id = ?", cartID, codeID).Error
}

// ClearCodes 清空购物车折扣码
func (r *GormCartRepository) ClearCodes(cartID uint) error {
	return r.db.Exec("DELETE FROM cart_discount_codes WHERE cart_id = ?", cartID).Error
}
