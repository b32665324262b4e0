package queue

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/constants"

	"github.com/hibiken/asynq"
)

// DefaultQueue 订单事件所在队列
const DefaultQueue = constants.QueueDefault

// route 每种任务的投递参数
type route struct {
	queue    string
	maxRetry int
	timeout  time.Duration
}

var routes = map[string]route{
	TaskOrderPlaced:        {queue: constants.QueueDefault, maxRetry: 8, timeout: 30 * time.Second},
	TaskOrderStatusChanged: {queue: constants.QueueDefault, maxRetry: 8, timeout: 30 * time.Second},
	// 重算只关心最终状态，失败后等下一轮巡检
	TaskCartRecalculate: {queue: constants.QueueCritical, maxRetry: 2, timeout: 2 * time.Minute},
}

// Client 投递订单事件与购物车重算任务；未启用时所有投递都是空操作
type Client struct {
	inner *asynq.Client
}

// NewClient 按队列配置连接 redis
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{inner: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 队列是否可用
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 释放连接
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueOrderPlaced 投递下单事件；同一订单只投递一次
func (c *Client) EnqueueOrderPlaced(payload OrderPlacedPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderPlacedTask(payload)
	if err != nil {
		return err
	}
	opts = append([]asynq.Option{asynq.TaskID(fmt.Sprintf("%s:%d", TaskOrderPlaced, payload.OrderID))}, opts...)
	return c.enqueue(task, opts...)
}

// EnqueueOrderStatusChanged 投递状态变更事件；同一订单同一目标状态只投递一次
func (c *Client) EnqueueOrderStatusChanged(payload OrderStatusChangedPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderStatusChangedTask(payload)
	if err != nil {
		return err
	}
	id := fmt.Sprintf("%s:%d:%s", TaskOrderStatusChanged, payload.OrderID, payload.ToStatus)
	opts = append([]asynq.Option{asynq.TaskID(id)}, opts...)
	return c.enqueue(task, opts...)
}

// EnqueueCartRecalculate 投递购物车重算，delay 小于零按立即执行
func (c *Client) EnqueueCartRecalculate(payload CartRecalculatePayload, delay time.Duration) error {
	if !c.Enabled() || len(payload.CartIDs) == 0 {
		return nil
	}
	task, err := NewCartRecalculateTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, asynq.ProcessIn(max(delay, 0)))
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	_, err := c.inner.Enqueue(task, append(optionsFor(task.Type()), opts...)...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func optionsFor(taskType string) []asynq.Option {
	r, ok := routes[taskType]
	if !ok {
		return []asynq.Option{asynq.Queue(DefaultQueue)}
	}
	return []asynq.Option{asynq.Queue(r.queue), asynq.MaxRetry(r.maxRetry), asynq.Timeout(r.timeout)}
}

// BuildServerConfig worker 端的连接与并发配置；未配置权重时两条队列按 6:3 分配
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			constants.QueueCritical: 6,
			constants.QueueDefault:  3,
		},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisOpt(cfg), serverCfg
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
