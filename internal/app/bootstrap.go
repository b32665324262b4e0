package app

import (
	"errors"
	"fmt"
	"net"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/provider"
	"github.com/maryema-next/internal/router"
	"github.com/maryema-next/internal/worker"
)

// BuildRunner 按启动模式组装 HTTP 与后台服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !isKnownMode(mode) {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	container := provider.NewContainer(cfg)
	return buildRunner(cfg, mode, container)
}

func buildRunner(cfg *config.Config, mode string, container *provider.Container) (*Runner, error) {
	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		if cfg.Queue.Enabled {
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled")
		} else {
			// 队列关闭时折扣窗口巡检仍需运行
			logger.Warnw("app_queue_disabled", "fallback", "inline_discount_sweep")
			sweepService, err := worker.NewSweepService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, sweepService)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...), nil
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", listenAddr(opts.Config),
		"mode", opts.Mode,
		"queue_enabled", opts.Config.Queue.Enabled,
		"services", runner.Names(),
	)
	return RunWithOptions(runner, opts)
}

// OpenDatabase 建立连接并完成迁移（含当前购物车部分唯一索引）
func OpenDatabase(cfg config.DatabaseConfig) error {
	pool := models.DBPoolConfig{
		MaxOpenConns:           cfg.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Pool.ConnMaxIdleTimeSeconds,
	}
	if err := models.InitDB(cfg.Driver, cfg.DSN, pool); err != nil {
		return fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
