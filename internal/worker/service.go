package worker

import (
	"context"
	"errors"
	"time"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultSweepInterval = time.Minute
)

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepInterval: sweepInterval(cfg),
	}, nil
}

// NewSweepService 队列关闭时仅运行折扣窗口巡检，重算在进程内同步完成
func NewSweepService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	return &Service{
		name:          "discount_sweep",
		consumer:      consumer,
		sweepInterval: sweepInterval(cfg),
	}, nil
}

func sweepInterval(cfg *config.QueueConfig) time.Duration {
	if cfg != nil && cfg.SweepIntervalSeconds > 0 {
		return time.Duration(cfg.SweepIntervalSeconds) * time.Second
	}
	return defaultSweepInterval
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("worker not initialized")
	}
	if s.server == nil {
		if s.consumer == nil {
			return errors.New("worker not initialized")
		}
		s.runWindowSweepLoop(ctx)
		return nil
	}
	if s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.RecalcService != nil {
		go s.runWindowSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runWindowSweepLoop 定时重算折扣窗口刚开启或结束的购物车
func (s *Service) runWindowSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	last := time.Now().Add(-s.sweepInterval)
	runOnce := func() {
		now := time.Now()
		ids, err := s.consumer.sweepDiscountWindows(last, now)
		if err != nil {
			logger.Warnw("worker_discount_window_sweep_failed", "from", last, "to", now, "error", err)
			return
		}
		if len(ids) > 0 {
			logger.Infow("worker_discount_window_sweep", "cart_count", len(ids))
		}
		last = now
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
