package storage

import (
	"context"
	"time"

	"PPRealtime/tools/errs"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// presence key: im:presence:<user>
// Value: gateway_id, TTL controls the online validity period
func presenceKey(user string) string { return "im:presence:" + user }

// 只有 value 仍是本网关时才删除，避免把已经在别的网关重连上的用户踢成离线
// KEYS[1] = presence key
// ARGV[1] = gateway id
// 返回：1=删除；0=不存在或已被其它网关接管
const luaPresenceOffline = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// 心跳续期；key 已过期时按当前网关重新写入
// KEYS[1] = presence key
// ARGV[1] = gateway id
// ARGV[2] = ttl ms
const luaPresenceTouch = `
local cur = redis.call("GET", KEYS[1])
if cur == false or cur == ARGV[1] then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return 1
end
return 0
`

var (
	presenceOfflineScript = redis.NewScript(luaPresenceOffline)
	presenceTouchScript   = redis.NewScript(luaPresenceTouch)
)

const DefaultPresenceTTL = 90 * time.Second

// RedisPresence 把网关内存里的在线状态镜像到 redis，给 REST 侧查 isOnline 用
type RedisPresence struct {
	rdb       redis.UniversalClient
	gatewayID string
	ttl       time.Duration
}

func NewRedisPresence(rdb redis.UniversalClient, gatewayID string, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &RedisPresence{rdb: rdb, gatewayID: gatewayID, ttl: ttl}
}

// Close 关闭底层客户端
func (p *RedisPresence) Close() error { return p.rdb.Close() }

// Online sets the user as online and renews the TTL
func (p *RedisPresence) Online(ctx context.Context, user, gatewayID string) error {
	if gatewayID == "" {
		gatewayID = p.gatewayID
	}
	return errs.WrapMsg(p.rdb.Set(ctx, presenceKey(user), gatewayID, p.ttl).Err(), "presence online failed", "user", user)
}

// Offline actively sets the user offline (deletes the key if this gateway still owns it)
func (p *RedisPresence) Offline(ctx context.Context, user string) error {
	err := presenceOfflineScript.Run(ctx, p.rdb, []string{presenceKey(user)}, p.gatewayID).Err()
	return errs.WrapMsg(err, "presence offline failed", "user", user)
}

func (p *RedisPresence) Touch(ctx context.Context, user, gatewayID string) error {
	if gatewayID == "" {
		gatewayID = p.gatewayID
	}
	err := presenceTouchScript.Run(ctx, p.rdb, []string{presenceKey(user)}, gatewayID, p.ttl.Milliseconds()).Err()
	return errs.WrapMsg(err, "presence touch failed", "user", user)
}

// Lookup checks whether the user is online
func (p *RedisPresence) Lookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.WrapMsg(err, "presence lookup failed", "user", user)
	}
	return val, true, nil
}
