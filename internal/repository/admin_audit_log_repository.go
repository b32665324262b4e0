package repository

import (
	"strings"
	"time"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// AdminAuditLogRepository 后台审计日志
type AdminAuditLogRepository interface {
	Create(entry *models.AdminAuditLog) error
	List(filter AdminAuditLogListFilter) ([]models.AdminAuditLog, int64, error)
}

// AdminAuditLogListFilter 审计日志筛选；Resource 以前缀匹配，如 discount_rule: 查全部规则操作
type AdminAuditLogListFilter struct {
	Page        int
	PageSize    int
	OperatorID  uint
	Action      string
	Resource    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// GormAdminAuditLogRepository GORM 实现
type GormAdminAuditLogRepository struct {
	db *gorm.DB
}

// NewAdminAuditLogRepository 创建审计日志仓库
func NewAdminAuditLogRepository(db *gorm.DB) *GormAdminAuditLogRepository {
	return &GormAdminAuditLogRepository{db: db}
}

// Create 写入一条审计
func (r *GormAdminAuditLogRepository) Create(entry *models.AdminAuditLog) error {
	return r.db.Create(entry).Error
}

// List 按时间倒序分页
func (r *GormAdminAuditLogRepository) List(filter AdminAuditLogListFilter) ([]models.AdminAuditLog, int64, error) {
	query := r.db.Model(&models.AdminAuditLog{})
	if filter.OperatorID > 0 {
		query = query.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if prefix := strings.TrimSpace(filter.Resource); prefix != "" {
		query = query.Where("resource LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
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
	entries := []models.AdminAuditLog{}
	err := query.Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, total, err
}
