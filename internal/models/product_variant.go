package models

import (
	"time"
)

// ProductVariant 商品规格（颜色 + 尺码维度）
type ProductVariant struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                              // 主键
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_variant_product_color_size" json:"product_id"`       // 商品ID
	Color     string    `gorm:"type:varchar(50);not null;default:'';uniqueIndex:idx_variant_product_color_size" json:"color"` // 颜色
	Size      string    `gorm:"type:varchar(20);not null;default:'';uniqueIndex:idx_variant_product_color_size" json:"size"`  // 尺码
	Cost      Money     `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`                                 // 成本价
	Price     Money     `gorm:"type:decimal(10,2);not null;default:0" json:"price"`                                // 售价
	Stock     int       `gorm:"not null;default:0" json:"stock"`                                                   // 库存
	SortOrder int       `gorm:"default:0;index" json:"sort_order"`                                                 // 排序权重
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                           // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                                           // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// VariantDiscount 规格折扣（库存促销价）
type VariantDiscount struct {
	ID        uint       `gorm:"primarykey" json:"id"`                     // 主键
	VariantID uint       `gorm:"index;not null" json:"variant_id"`         // 关联规格ID
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`   // 名称（如 黑五、换季）
	Type      string     `gorm:"type:varchar(20);not null" json:"type"`    // 类型（fixed/percent）
	Value     Money      `gorm:"type:decimal(10,2);not null" json:"value"` // 数值（固定金额/百分比）
	StartsAt  *time.Time `gorm:"index" json:"starts_at"`                   // 生效时间
	EndsAt    *time.Time `gorm:"index" json:"ends_at"`                     // 失效时间
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`   // 是否启用
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt time.Time  `gorm:"index" json:"updated_at"`                  // 更新时间
}

// TableName 指定表名
func (VariantDiscount) TableName() string {
	return "variant_discounts"
}
