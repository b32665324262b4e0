package models

import (
	"fmt"
	"time"
)

// DiscountRule 折扣规则
type DiscountRule struct {
	ID                                uint      `gorm:"primarykey" json:"id"`                                                            // 主键
	Title                             string    `gorm:"type:varchar(255);not null" json:"title"`                                         // 标题
	Description                       string    `gorm:"type:text" json:"description"`                                                    // 描述
	StartsAt                          time.Time `gorm:"not null;index" json:"starts_at"`                                                 // 生效时间
	EndsAt                            time.Time `gorm:"not null;index" json:"ends_at"`                                                   // 失效时间
	ValueType                         string    `gorm:"type:varchar(20);not null;default:'FIXED'" json:"value_type"`                     // 取值类型（PERCENTAGE/FIXED）
	Value                             Money     `gorm:"type:decimal(10,2);not null;default:0" json:"value"`                              // 数值（百分比/固定金额）
	CustomerSelection                 string    `gorm:"type:varchar(8);not null;default:'ALL'" json:"customer_selection"`                // 顾客选择（ALL/SELECTED）
	TargetSelection                   string    `gorm:"type:varchar(8);not null;default:'ALL'" json:"target_selection"`                  // 目标选择（ALL/SELECTED）
	PrerequisiteQuantityRange         int       `gorm:"not null;default:0" json:"prerequisite_quantity_range"`                           // 前置商品最低数量
	PrerequisiteSubtotalRange         Money     `gorm:"type:decimal(12,2);not null;default:0" json:"prerequisite_subtotal_range"`        // 前置商品最低小计
	PrerequisiteToEntitlementPurchase Money     `gorm:"type:decimal(12,2);not null;default:0" json:"prerequisite_to_entitlement_purchase"` // 解锁权益的最低前置消费
	OncePerCustomer                   bool      `gorm:"not null;default:false" json:"once_per_customer"`                                 // 每位顾客仅可使用一次
	UsageLimit                        int       `gorm:"not null;default:1" json:"usage_limit"`                                           // 每个折扣码最大使用次数
	AllocationMethod                  string    `gorm:"type:varchar(8);not null;default:'EACH'" json:"allocation_method"`                // 分摊方式（ACROSS/EACH）
	AllocationLimit                   *int      `json:"allocation_limit"`                                                                // 单次分摊上限（空为不限）
	CreatedAt                         time.Time `gorm:"index" json:"created_at"`                                                         // 创建时间
	UpdatedAt                         time.Time `gorm:"index" json:"updated_at"`                                                         // 更新时间

	Targets []DiscountRuleTarget `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"-"`                     // 关联集合（权益/前置）
	Ratio   *DiscountRuleRatio   `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"ratio,omitempty"`    // 买 X 送 Y 比例
}

// TableName 指定表名
func (DiscountRule) TableName() string {
	return "discount_rules"
}

// DiscountRuleTarget 折扣规则关联集合表
// 说明：kind 区分 entitled/prerequisite，ref_type 区分 collection/product/variant。
type DiscountRuleTarget struct {
	ID      uint   `gorm:"primarykey" json:"id"`                                                    // 主键
	RuleID  uint   `gorm:"not null;uniqueIndex:idx_discount_rule_target" json:"rule_id"`           // 规则ID
	Kind    string `gorm:"type:varchar(16);not null;uniqueIndex:idx_discount_rule_target" json:"kind"` // 集合类型
	RefType string `gorm:"type:varchar(16);not null;uniqueIndex:idx_discount_rule_target" json:"ref_type"` // 对象类型
	RefID   uint   `gorm:"not null;index;uniqueIndex:idx_discount_rule_target" json:"ref_id"`     // 对象ID
}

// TableName 指定表名
func (DiscountRuleTarget) TableName() string {
	return "discount_rule_targets"
}

// DiscountRuleCustomer 规则指定顾客
type DiscountRuleCustomer struct {
	RuleID    uint `gorm:"primaryKey" json:"rule_id"`    // 规则ID
	ProfileID uint `gorm:"primaryKey" json:"profile_id"` // 顾客账号ID
}

// TableName 指定表名
func (DiscountRuleCustomer) TableName() string {
	return "discount_rule_customers"
}

// DiscountRuleRatio 前置数量与权益数量比例（买 X 送 Y）
type DiscountRuleRatio struct {
	ID                   uint      `gorm:"primarykey" json:"id"`                       // 主键
	RuleID               uint      `gorm:"not null;uniqueIndex" json:"rule_id"`        // 规则ID（一对一）
	PrerequisiteQuantity int       `gorm:"not null" json:"prerequisite_quantity"`      // 前置数量
	EntitledQuantity     int       `gorm:"not null" json:"entitled_quantity"`          // 权益数量
	CreatedAt            time.Time `json:"created_at"`                                 // 创建时间
	UpdatedAt            time.Time `json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (DiscountRuleRatio) TableName() string {
	return "discount_rule_ratios"
}

// String 返回 Buy X get Y 描述
func (r DiscountRuleRatio) String() string {
	return fmt.Sprintf("Buy %d get %d", r.PrerequisiteQuantity, r.EntitledQuantity)
}

// DiscountCode 折扣码
type DiscountCode struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                  // 主键
	RuleID     uint      `gorm:"not null;index" json:"rule_id"`                         // 规则ID
	Code       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"code"`   // 折扣码
	StartsAt   time.Time `gorm:"not null;index" json:"starts_at"`                       // 生效时间
	EndsAt     time.Time `gorm:"not null;index" json:"ends_at"`                         // 失效时间
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`                 // 已使用次数
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`                               // 更新时间

	Rule *DiscountRule `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"rule,omitempty"` // 所属规则
}

// TableName 指定表名
func (DiscountCode) TableName() string {
	return "discount_codes"
}

// IsActive 当前时间处于有效期内且未达到使用上限
func (c *DiscountCode) IsActive(now time.Time, usageLimit int) bool {
	if c == nil {
		return false
	}
	if now.Before(c.StartsAt) || now.After(c.EndsAt) {
		return false
	}
	return c.UsageCount < usageLimit
}

// DiscountUsage 折扣使用记录（用于 once_per_customer）
type DiscountUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	RuleID         uint      `gorm:"index;not null" json:"rule_id"`                                // 规则ID
	CodeID         uint      `gorm:"index;not null" json:"code_id"`                                // 折扣码ID
	CustomerID     uint      `gorm:"index;not null" json:"customer_id"`                            // 顾客账号ID
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                               // 订单ID
	DiscountAmount Money     `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"` // 优惠金额
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (DiscountUsage) TableName() string {
	return "discount_usages"
}
