package repository

import (
	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// OrderEventRepository 订单事件数据访问接口
type OrderEventRepository interface {
	Create(event *models.OrderEvent) error
	ListByOrder(orderID uint) ([]models.OrderEvent, error)
}

// GormOrderEventRepository GORM 实现
type GormOrderEventRepository struct {
	db *gorm.DB
}

// NewOrderEventRepository 创建订单事件仓库
func NewOrderEventRepository(db *gorm.DB) *GormOrderEventRepository {
	return &GormOrderEventRepository{db: db}
}

// Create 写入订单事件
func (r *GormOrderEventRepository) Create(event *models.OrderEvent) error {
	return r.db.Create(event).Error
}

// ListByOrder 按时间顺序列出订单事件
func (r *GormOrderEventRepository) ListByOrder(orderID uint) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
