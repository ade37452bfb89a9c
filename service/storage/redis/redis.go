package redis

import (
	"context"
	"strings"
	"time"

	"PPRealtime/logger"
	"PPRealtime/tools/errs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 3 * time.Second

// Config Addr 可以是逗号分隔的多个地址，多于一个时走 cluster 客户端
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

func (c Config) addrs() []string {
	var out []string
	for _, a := range strings.Split(c.Addr, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Open 建客户端并 ping 一次，失败时关闭客户端
func Open(ctx context.Context, c Config) (redis.UniversalClient, error) {
	addrs := c.addrs()
	if len(addrs) == 0 {
		return nil, errs.ErrArgs.WrapMsg("redis addr is empty")
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errs.WrapMsg(err, "redis ping failed", "addr", c.Addr)
	}
	logger.Info("redis connected", zap.Strings("addrs", addrs), zap.Int("db", c.DB))
	return rdb, nil
}
