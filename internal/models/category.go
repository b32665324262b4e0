package models

import "time"

// Category 商品分类
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	SortOrder int       `gorm:"default:0;index" json:"sort_order"` // 越大越靠前
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// 列表查询时填充：分类下上架商品数
	ProductCount int64 `gorm:"->;-:migration" json:"product_count"`
}

// TableName 表名
func (Category) TableName() string {
	return "categories"
}
