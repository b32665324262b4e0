package service

import (
	"encoding/json"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/queue"
	"github.com/maryema-next/internal/repository"
)

// OrderEventService 订单事件发布与落库
type OrderEventService struct {
	eventRepo   repository.OrderEventRepository
	queueClient *queue.Client
}

// NewOrderEventService 创建订单事件服务
func NewOrderEventService(eventRepo repository.OrderEventRepository, queueClient *queue.Client) *OrderEventService {
	return &OrderEventService{
		eventRepo:   eventRepo,
		queueClient: queueClient,
	}
}

// PublishPlaced 下单后推送事件，队列不可用时直接落库
func (s *OrderEventService) PublishPlaced(payload queue.OrderPlacedPayload) {
	if s == nil {
		return
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueOrderPlaced(payload)
		if err == nil {
			return
		}
		logger.Warnw("order_event_enqueue_failed",
			"order_id", payload.OrderID,
			"event_type", constants.OrderEventPlaced,
			"error", err,
		)
	}
	if err := s.RecordPlaced(payload); err != nil {
		logger.Warnw("order_event_record_failed", "order_id", payload.OrderID, "error", err)
	}
}

// PublishStatusChanged 状态变更后推送事件
func (s *OrderEventService) PublishStatusChanged(payload queue.OrderStatusChangedPayload) {
	if s == nil {
		return
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueOrderStatusChanged(payload)
		if err == nil {
			return
		}
		logger.Warnw("order_event_enqueue_failed",
			"order_id", payload.OrderID,
			"event_type", constants.OrderEventStatusChanged,
			"error", err,
		)
	}
	if err := s.RecordStatusChanged(payload); err != nil {
		logger.Warnw("order_event_record_failed", "order_id", payload.OrderID, "error", err)
	}
}

// RecordPlaced 写入下单事件
func (s *OrderEventService) RecordPlaced(payload queue.OrderPlacedPayload) error {
	return s.eventRepo.Create(&models.OrderEvent{
		OrderID:   payload.OrderID,
		EventType: constants.OrderEventPlaced,
		ToStatus:  constants.OrderStatusPending,
		Payload:   toEventPayload(payload),
	})
}

// RecordStatusChanged 写入状态变更事件
func (s *OrderEventService) RecordStatusChanged(payload queue.OrderStatusChangedPayload) error {
	return s.eventRepo.Create(&models.OrderEvent{
		OrderID:    payload.OrderID,
		EventType:  constants.OrderEventStatusChanged,
		FromStatus: payload.FromStatus,
		ToStatus:   payload.ToStatus,
		Payload:    toEventPayload(payload),
	})
}

// ListByOrder 订单事件流水
func (s *OrderEventService) ListByOrder(orderID uint) ([]models.OrderEvent, error) {
	return s.eventRepo.ListByOrder(orderID)
}

func toEventPayload(value interface{}) models.JSON {
	raw, err := json.Marshal(value)
	if err != nil {
		return models.JSON{}
	}
	out := models.JSON{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.JSON{}
	}
	return out
}
