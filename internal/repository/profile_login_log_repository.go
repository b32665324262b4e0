package repository

import (
	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// ProfileLoginLogRepository 登录日志数据访问接口
type ProfileLoginLogRepository interface {
	Create(log *models.ProfileLoginLog) error
	ListByProfile(profileID uint, page, pageSize int) ([]models.ProfileLoginLog, int64, error)
}

// GormProfileLoginLogRepository GORM 实现
type GormProfileLoginLogRepository struct {
	db *gorm.DB
}

// NewProfileLoginLogRepository 创建登录日志仓库
func NewProfileLoginLogRepository(db *gorm.DB) *GormProfileLoginLogRepository {
	return &GormProfileLoginLogRepository{db: db}
}

// Create 写入登录日志
func (r *GormProfileLoginLogRepository) Create(log *models.ProfileLoginLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// ListByProfile 查询账号登录日志
func (r *GormProfileLoginLogRepository) ListByProfile(profileID uint, page, pageSize int) ([]models.ProfileLoginLog, int64, error) {
	query := r.db.Model(&models.ProfileLoginLog{}).Where("profile_id = ?", profileID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []models.ProfileLoginLog
	if err := query.Scopes(paginate(page, pageSize)).Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
