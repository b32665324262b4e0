package models

import "time"

// AdminAuditLog 后台写操作审计：权限策略、账号角色、折扣与订单干预
type AdminAuditLog struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	OperatorID       uint      `gorm:"index;not null" json:"operator_id"`
	OperatorUsername string    `gorm:"type:varchar(100);not null;default:''" json:"operator_username"`
	Action           string    `gorm:"type:varchar(64);index;not null" json:"action"`
	Resource         string    `gorm:"type:varchar(255);index;not null;default:''" json:"resource"` // 形如 discount_rule:12、role:customer
	Method           string    `gorm:"type:varchar(16);not null;default:''" json:"method"`
	RequestID        string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	Detail           JSON      `gorm:"type:json" json:"detail"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

// TableName 表名
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
