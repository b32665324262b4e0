package models

import (
	"time"
)

// Order 订单表
type Order struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                          // 主键
	CustomerID     uint      `gorm:"index;not null" json:"customer_id"`                             // 顾客账号ID
	Status         string    `gorm:"type:varchar(20);index;not null;default:'PENDING'" json:"status"` // 订单状态
	CloseReason    string    `gorm:"type:text" json:"close_reason"`                                 // 关闭原因
	Subtotal       Money     `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`         // 明细原价合计
	DiscountAmount Money     `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`  // 折扣码优惠金额
	Total          Money     `gorm:"type:decimal(10,2);not null;default:0" json:"total"`            // 订单金额（派生值）
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`                                       // 更新时间

	Items         []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"` // 订单项
	DiscountCodes []DiscountCode `gorm:"many2many:order_discount_codes" json:"discount_codes,omitempty"`       // 使用的折扣码
	Customer      *Profile       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`                      // 下单顾客
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单项表
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                 // 主键
	OrderID   uint      `gorm:"not null;uniqueIndex:idx_order_item_variant" json:"order_id"`         // 订单ID
	VariantID uint      `gorm:"not null;index;uniqueIndex:idx_order_item_variant" json:"variant_id"` // 规格ID
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`                                   // 数量
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                              // 更新时间

	Variant *ProductVariant `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"variant,omitempty"` // 关联规格
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderEvent 订单事件流水（由 worker 写入）
type OrderEvent struct {
	ID         uint      `gorm:"primarykey" json:"id"`                           // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`                 // 订单ID
	EventType  string    `gorm:"type:varchar(32);index;not null" json:"event_type"` // 事件类型（placed/status_changed）
	FromStatus string    `gorm:"type:varchar(20)" json:"from_status"`            // 变更前状态
	ToStatus   string    `gorm:"type:varchar(20)" json:"to_status"`              // 变更后状态
	Payload    JSON      `gorm:"type:json" json:"payload"`                       // 事件快照
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                        // 记录时间
}

// TableName 指定表名
func (OrderEvent) TableName() string {
	return "order_events"
}
