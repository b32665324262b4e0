package models

import (
	"time"
)

// Cart 购物车（每个顾客同一时刻仅有一个 is_active=true）
type Cart struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	CustomerID     uint      `gorm:"not null;index" json:"customer_id"`                            // 顾客账号ID
	IsActive       bool      `gorm:"not null;default:true;index" json:"is_active"`                 // 是否为当前购物车
	Subtotal       Money     `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`        // 明细原价合计
	DiscountAmount Money     `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"` // 折扣码优惠金额
	Cost           Money     `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`            // 应付金额（派生值）
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`                                      // 更新时间

	Items         []CartItem     `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`      // 购物车明细
	DiscountCodes []DiscountCode `gorm:"many2many:cart_discount_codes" json:"discount_codes,omitempty"`           // 已应用折扣码
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// CartItem 购物车明细
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                    // 主键
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_variant" json:"cart_id"`              // 购物车ID
	VariantID uint      `gorm:"not null;index;uniqueIndex:idx_cart_item_variant" json:"variant_id"`     // 规格ID
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`                                      // 数量
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                                 // 更新时间

	Variant *ProductVariant `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"variant,omitempty"` // 关联规格
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
