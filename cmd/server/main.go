package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/maryema-next/internal/app"
	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/logger"

	"github.com/gin-gonic/gin"
)

// 示例或明显的占位密钥
var weakSecretMarkers = []string{"change-me", "change-in-production", "your-secret-key"}

func main() {
	mode := flag.String("mode", app.ModeAll, "启动模式: all | api | worker")
	flag.Parse()

	if err := run(*mode); err != nil {
		fmt.Fprintln(os.Stderr, "maryema-next:", err)
		os.Exit(1)
	}
}

func run(mode string) error {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()

	release := cfg.Server.Mode == "release"
	if weakSecret(cfg.JWT.SecretKey) {
		if release {
			return errors.New("jwt.secret_key 过弱或仍为默认值，生产环境必须配置强随机密钥")
		}
		logger.Warnw("jwt_secret_weak", "hint", "set JWT_SECRET_KEY before deploying")
	}
	if release {
		gin.SetMode(gin.ReleaseMode)
		if cfg.Bootstrap.AdminPassword == "" {
			logger.Warnw("bootstrap_admin_skipped", "reason", "BOOTSTRAP_ADMIN_PASSWORD empty")
		}
	}

	if err := app.OpenDatabase(cfg.Database); err != nil {
		return err
	}
	logger.Infow("database_ready", "driver", cfg.Database.Driver, "mode", mode)

	return app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
}

func weakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	lower := strings.ToLower(secret)
	for _, marker := range weakSecretMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
