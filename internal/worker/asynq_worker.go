package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/provider"
	"github.com/maryema-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderPlaced, c.handleOrderPlaced)
	mux.HandleFunc(queue.TaskOrderStatusChanged, c.handleOrderStatusChanged)
	mux.HandleFunc(queue.TaskCartRecalculate, c.handleCartRecalculate)
}

func (c *Consumer) handleOrderPlaced(_ context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_placed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPlacedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_placed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_placed_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderEventService.RecordPlaced(payload); err != nil {
		logger.Warnw("worker_order_placed_record_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	logger.Infow("worker_order_placed_recorded",
		"order_id", payload.OrderID,
		"customer_id", payload.CustomerID,
		"total", payload.Total,
		"codes", payload.Codes,
	)
	return nil
}

func (c *Consumer) handleOrderStatusChanged(_ context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_status_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_changed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.ToStatus == "" {
		logger.Debugw("worker_order_status_changed_skip_invalid_payload", "order_id", payload.OrderID, "to_status", payload.ToStatus)
		return nil
	}
	if err := c.OrderEventService.RecordStatusChanged(payload); err != nil {
		logger.Warnw("worker_order_status_changed_record_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleCartRecalculate(_ context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_cart_recalculate_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartRecalculatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_recalculate_unmarshal_failed", "error", err)
		return err
	}
	if len(payload.CartIDs) == 0 {
		logger.Debugw("worker_cart_recalculate_skip_empty", "reason", payload.Reason)
		return nil
	}
	if err := c.RecalcService.RefreshCarts(payload.CartIDs); err != nil {
		logger.Warnw("worker_cart_recalculate_failed", "cart_ids", payload.CartIDs, "reason", payload.Reason, "error", err)
		return err
	}
	logger.Debugw("worker_cart_recalculated", "cart_ids", payload.CartIDs, "reason", payload.Reason)
	return nil
}

// sweepDiscountWindows 查找窗口跨越的购物车并投递重算任务；返回投递的购物车 ID
func (c *Consumer) sweepDiscountWindows(from, to time.Time) ([]uint, error) {
	if c == nil || c.Container == nil || c.RecalcService == nil {
		return nil, nil
	}
	ids, err := c.RecalcService.CartsCrossingWindows(from, to)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	payload := queue.CartRecalculatePayload{CartIDs: ids, Reason: "discount_window"}
	if c.QueueClient.Enabled() {
		return ids, c.QueueClient.EnqueueCartRecalculate(payload, 0)
	}
	return ids, c.RecalcService.RefreshCarts(ids)
}
