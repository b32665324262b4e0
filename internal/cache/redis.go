package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/maryema-next/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "mry"
	pingTimeout   = 3 * time.Second
)

// store 当前生效的连接与键前缀；未启用时为 nil
type store struct {
	client *redis.Client
	prefix string
}

var current atomic.Pointer[store]

func load() *store {
	return current.Load()
}

// InitRedis 连接 redis；不可达时仍保留客户端，调用方按未命中降级
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		current.Store(nil)
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	UseClient(client, cfg.Prefix)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return nil
}

// UseClient 替换当前客户端，传 nil 关闭缓存
func UseClient(client *redis.Client, prefix string) {
	if client == nil {
		current.Store(nil)
		return
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	current.Store(&store{client: client, prefix: prefix})
}

// Enabled 是否有可用客户端
func Enabled() bool {
	return load() != nil
}

// Client 原始客户端，供限流脚本使用
func Client() *redis.Client {
	if s := load(); s != nil {
		return s.client
	}
	return nil
}

// GetJSON 读取并反序列化；键不存在时 hit 为 false
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	s := load()
	if s == nil {
		return false, nil
	}
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// 结构变更后的旧值直接作废
		_ = s.client.Del(ctx, s.key(key)).Err()
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 序列化写入，ttl 不大于零时跳过
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	s := load()
	if s == nil || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	return s.client.Set(ctx, s.key(key), payload, ttl).Err()
}

// Del 批量删除
func Del(ctx context.Context, keys ...string) error {
	s := load()
	if s == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.key(key)
	}
	return s.client.Del(ctx, full...).Err()
}

func (s *store) key(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.prefix
	}
	return s.prefix + ":" + key
}
