package repository

import (
	"errors"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	UpdateTotals(orderID uint, subtotal, discount, total models.Money) error
	CountItems(orderID uint) (int64, error)
	ListItems(orderID uint) ([]models.OrderItem, error)
	GetItemByID(id uint) (*models.OrderItem, error)
	GetItemByVariant(orderID, variantID uint) (*models.OrderItem, error)
	CreateItem(item *models.OrderItem) error
	UpdateItemQuantity(id uint, quantity int) error
	DeleteItem(id uint) error
	ListOrderIDsByVariant(variantID uint) ([]uint, error)
	DeleteItemsByVariant(variantID uint) error
	AttachCodes(orderID uint, codeIDs []uint) error
	ListCodes(orderID uint) ([]models.DiscountCode, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Variant").
		Preload("Items.Variant.Product").
		Preload("DiscountCodes")
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items", "DiscountCodes", "Customer").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Omit("Variant").Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 订单列表（新订单在前）
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if err := r.withDetail(query).Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateTotals 写入订单派生金额
func (r *GormOrderRepository) UpdateTotals(orderID uint, subtotal, discount, total models.Money) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"subtotal":        subtotal,
		"discount_amount": discount,
		"total":           total,
	}).Error
}

// CountItems 统计订单项数量
func (r *GormOrderRepository) CountItems(orderID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListItems 获取订单项（含规格与商品）
func (r *GormOrderRepository) ListItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.Preload("Variant").Preload("Variant.Product").
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetItemByID 根据 ID 获取订单项
func (r *GormOrderRepository) GetItemByID(id uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetItemByVariant 获取订单内指定规格的订单项
func (r *GormOrderRepository) GetItemByVariant(orderID, variantID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.Where("order_id = ? AND variant_id = ?", orderID, variantID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem 创建订单项
func (r *GormOrderRepository) CreateItem(item *models.OrderItem) error {
	return r.db.Omit("Variant").Create(item).Error
}

// UpdateItemQuantity 更新订单项数量
func (r *GormOrderRepository) UpdateItemQuantity(id uint, quantity int) error {
	return r.db.Model(&models.OrderItem{}).Where("id = ?", id).Update("quantity", quantity).Error
}

// DeleteItem 删除订单项
func (r *GormOrderRepository) DeleteItem(id uint) error {
	return r.db.Delete(&models.OrderItem{}, id).Error
}

// ListOrderIDsByVariant 获取包含指定规格的订单 ID
func (r *GormOrderRepository) ListOrderIDsByVariant(variantID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.OrderItem{}).
		Distinct("order_id").
		Where("variant_id = ?", variantID).
		Pluck("order_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteItemsByVariant 删除引用指定规格的订单项
func (r *GormOrderRepository) DeleteItemsByVariant(variantID uint) error {
	return r.db.Where("variant_id = ?", variantID).Delete(&models.OrderItem{}).Error
}

// AttachCodes 关联订单折扣码
func (r *GormOrderRepository) AttachCodes(orderID uint, codeIDs []uint) error {
	if len(codeIDs) == 0 {
		return nil
	}
	for _, codeID := range codeIDs {
		if err := r.db.Exec(
			"INSERT INTO order_discount_codes (order_id, discount_code_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			orderID, codeID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListCodes 获取订单折扣码
func (r *GormOrderRepository) ListCodes(orderID uint) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	err := r.db.Preload("Rule").Preload("Rule.Targets").Preload("Rule.Ratio").
		Joins("JOIN order_discount_codes ON order_discount_codes.discount_code_id = discount_codes.id").
		Where("order_discount_codes.order_id = ?", orderID).
		Order("discount_codes.id asc").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
