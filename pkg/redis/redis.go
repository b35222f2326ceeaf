package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Sellamuthu2007/project-demo-backend/config"
)

// Client Redis 客户端封装
// 当前仅用于签到/交卷接口限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return NewFromClient(rdb, logger), nil
}

// NewFromClient 包装已有的 go-redis 客户端（测试容器复用）
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── 滑动窗口限流 ──

// slidingWindowScript 原子地清理过期成员、计数并在未超限时写入本次请求
// KEYS[1]=key ARGV[1]=now(ms) ARGV[2]=window(ms) ARGV[3]=limit ARGV[4]=member
var slidingWindowScript = goredis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, tonumber(ARGV[1]) - tonumber(ARGV[2]))
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// CheckRateLimit 判断 key 在 window 内的请求数是否仍低于 limit
// 返回 true 表示放行并已计入本次请求
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixNano()
	member := strconv.FormatInt(now, 10)

	res, err := slidingWindowScript.Run(ctx, c.rdb, []string{key},
		now/int64(time.Millisecond),
		window.Milliseconds(),
		limit,
		member,
	).Int()
	if err != nil {
		c.logger.Warn("限流脚本执行失败", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return res == 1, nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
