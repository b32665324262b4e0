package models

import (
	"time"

	"github.com/maryema-next/internal/constants"
)

// Profile 账号资料表（顾客/供应商/管理员共用）
type Profile struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                                 // 主键
	Username     string     `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`               // 登录名
	PasswordHash string     `gorm:"not null" json:"-"`                                                    // 密码哈希（不返回给前端）
	PhoneNumber  string     `gorm:"type:varchar(32);default:''" json:"phone_number"`                      // 手机号
	Role         string     `gorm:"type:varchar(20);not null;default:'customer';index" json:"role"`       // 角色（admin/customer/provider）
	Note         string     `gorm:"type:text" json:"note"`                                                // 备注
	TokenVersion uint64     `gorm:"not null;default:0" json:"-"`                                          // Token 版本（用于全量失效）
	LastLoginAt  *time.Time `json:"last_login_at"`                                                        // 最后登录时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`                                              // 更新时间

	Wishlist []ProductVariant `gorm:"many2many:profile_wishlist;joinForeignKey:ProfileID;joinReferences:VariantID" json:"wishlist,omitempty"` // 心愿单
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// IsCustomer 是否顾客角色
func (p *Profile) IsCustomer() bool {
	return p != nil && p.Role == constants.RoleCustomer
}

// IsAdmin 是否管理员角色
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == constants.RoleAdmin
}

// ProfileLoginLog 登录日志
// 说明：记录登录成功或失败行为，用于后台审计。
type ProfileLoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                     // 主键
	ProfileID  uint      `gorm:"index" json:"profile_id"`                  // 账号ID（失败时可为0）
	Username   string    `gorm:"index;not null" json:"username"`           // 登录尝试账号
	Status     string    `gorm:"index;not null" json:"status"`             // 登录结果（success/failed）
	FailReason string    `gorm:"index" json:"fail_reason"`                 // 失败原因枚举
	ClientIP   string    `gorm:"type:varchar(64);index" json:"client_ip"`  // 客户端IP
	RequestID  string    `gorm:"type:varchar(64);index" json:"request_id"` // 请求追踪ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                  // 记录时间
}

// TableName 指定表名
func (ProfileLoginLog) TableName() string {
	return "profile_login_logs"
}
