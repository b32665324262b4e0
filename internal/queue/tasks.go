package queue

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/maryema-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderPlaced 下单事件任务
	TaskOrderPlaced = constants.TaskOrderPlaced
	// TaskOrderStatusChanged 订单状态变更事件任务
	TaskOrderStatusChanged = constants.TaskOrderStatusChanged
	// TaskCartRecalculate 购物车重算任务
	TaskCartRecalculate = constants.TaskCartRecalculateByID
)

// OrderPlacedPayload 下单事件载荷
type OrderPlacedPayload struct {
	OrderID    uint     `json:"order_id"`
	CustomerID uint     `json:"customer_id"`
	CartID     uint     `json:"cart_id"`
	Total      string   `json:"total"`
	Codes      []string `json:"codes,omitempty"`
}

// OrderStatusChangedPayload 订单状态变更载荷
type OrderStatusChangedPayload struct {
	OrderID     uint   `json:"order_id"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
	CloseReason string `json:"close_reason,omitempty"`
	ActorID     uint   `json:"actor_id"`
}

// CartRecalculatePayload 购物车重算载荷
type CartRecalculatePayload struct {
	CartIDs []uint `json:"cart_ids"`
	Reason  string `json:"reason"`
}

func newTask[T any](taskType string, payload T) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, body), nil
}

// NewOrderPlacedTask 下单事件任务
func NewOrderPlacedTask(payload OrderPlacedPayload) (*asynq.Task, error) {
	return newTask(TaskOrderPlaced, payload)
}

// NewOrderStatusChangedTask 订单状态变更任务
func NewOrderStatusChangedTask(payload OrderStatusChangedPayload) (*asynq.Task, error) {
	return newTask(TaskOrderStatusChanged, payload)
}

// NewCartRecalculateTask 购物车重算任务，ID 去重后按升序排列
func NewCartRecalculateTask(payload CartRecalculatePayload) (*asynq.Task, error) {
	payload.CartIDs = uniqueSortedIDs(payload.CartIDs)
	return newTask(TaskCartRecalculate, payload)
}

func uniqueSortedIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return ids
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
