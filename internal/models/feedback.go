package models

import (
	"time"
)

// Feedback 商品评价
type Feedback struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                        // 主键
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_feedback_customer_product" json:"customer_id"` // 顾客账号ID
	ProductID  uint      `gorm:"not null;index;uniqueIndex:idx_feedback_customer_product" json:"product_id"` // 商品ID
	Rate       int       `gorm:"not null;default:0;index" json:"rate"`                        // 评分（0-5）
	Comment    string    `gorm:"type:text" json:"comment"`                                    // 评价内容
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`                                     // 更新时间

	Customer *Profile `gorm:"foreignKey:CustomerID" json:"customer,omitempty"` // 评价人
}

// TableName 指定表名
func (Feedback) TableName() string {
	return "feedbacks"
}
