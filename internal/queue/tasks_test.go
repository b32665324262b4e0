package queue

import (
	"encoding/json"
	"testing"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/constants"
)

func TestNewOrderStatusChangedTask(t *testing.T) {
	task, err := NewOrderStatusChangedTask(OrderStatusChangedPayload{OrderID: 9, FromStatus: "PENDING", ToStatus: "CLOSED", CloseReason: "customer request"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderStatusChanged {
		t.Fatalf("task type want %s got %s", TaskOrderStatusChanged, task.Type())
	}
	var payload OrderStatusChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal payload failed: %v", err)
	}
	if payload.OrderID != 9 || payload.ToStatus != "CLOSED" || payload.CloseReason != "customer request" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderPlaced(OrderPlacedPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	var nilClient *Client
	if err := nilClient.EnqueueOrderStatusChanged(OrderStatusChangedPayload{OrderID: 1}); err != nil {
		t.Fatalf("nil client enqueue should be noop, got %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("default addr want 127.0.0.1:6379 got %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("default concurrency want 10 got %d", cfg.Concurrency)
	}
	if cfg.Queues[constants.QueueCritical] != 6 || cfg.Queues[DefaultQueue] != 3 {
		t.Fatalf("unexpected default weights: %v", cfg.Queues)
	}

	opt, cfg = BuildServerConfig(&config.QueueConfig{Host: " redis.internal ", Port: 6380, DB: 2, Concurrency: 4, Queues: map[string]int{"default": 1}})
	if opt.Addr != "redis.internal:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 4 || len(cfg.Queues) != 1 {
		t.Fatalf("configured values must win: %+v", cfg)
	}
}

func TestTaskRoutes(t *testing.T) {
	for _, taskType := range []string{TaskOrderPlaced, TaskOrderStatusChanged, TaskCartRecalculate} {
		if _, ok := routes[taskType]; !ok {
			t.Fatalf("task %s has no route", taskType)
		}
	}
	if routes[TaskCartRecalculate].queue != constants.QueueCritical {
		t.Fatalf("cart recalculation must run on the critical queue")
	}
	if got := optionsFor("unknown:task"); len(got) != 1 {
		t.Fatalf("unknown task should only pick the default queue, got %d options", len(got))
	}
	if got := optionsFor(TaskOrderPlaced); len(got) != 3 {
		t.Fatalf("routed task want 3 options got %d", len(got))
	}
}

func TestNewCartRecalculateTaskDedupesIDs(t *testing.T) {
	task, err := NewCartRecalculateTask(CartRecalculatePayload{CartIDs: []uint{7, 3, 7, 1, 3}, Reason: "discount_window"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	var payload CartRecalculatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal payload failed: %v", err)
	}
	if len(payload.CartIDs) != 3 || payload.CartIDs[0] != 1 || payload.CartIDs[2] != 7 {
		t.Fatalf("cart ids want [1 3 7] got %v", payload.CartIDs)
	}
}
