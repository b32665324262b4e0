package models

import (
	"time"
)

// Product 商品表
type Product struct {
	ID          uint        `gorm:"primarykey" json:"id"`                          // 主键
	CategoryID  uint        `gorm:"not null;index" json:"category_id"`             // 分类ID
	ProviderID  *uint       `gorm:"index" json:"provider_id,omitempty"`            // 供应商账号ID
	Name        string      `gorm:"type:varchar(255);not null" json:"name"`        // 商品名称
	Description string      `gorm:"type:text" json:"description"`                  // 商品描述
	Tags        StringArray `gorm:"type:json" json:"tags"`                         // 标签数组
	IsActive    bool        `gorm:"default:true;index" json:"is_active"`           // 是否上架
	SortOrder   int         `gorm:"default:0;index" json:"sort_order"`             // 排序权重
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt   time.Time   `json:"updated_at"`                                    // 更新时间

	// 关联
	Category *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 规格列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// Collection 商品合集
type Collection struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                // 主键
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"` // 合集名称
	Description string    `gorm:"type:text" json:"description"`                        // 合集描述
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                          // 更新时间

	Products []Product `gorm:"many2many:collection_products" json:"products,omitempty"` // 合集商品
}

// TableName 指定表名
func (Collection) TableName() string {
	return "collections"
}
