package natsx

import (
	"context"
	"sync"
	"time"

	"PPRealtime/logger"

	"go.uber.org/zap"
)

// ----- 抽象存储 -----
type IdemStore interface {
	SeenOnce(key string, ttl time.Duration) (seen bool, err error)
}

// ----- 内存实现（单进程） -----
type MemIdem struct {
	mu  sync.Mutex
	m   map[string]int64 // key -> expireUnixNano
	ttl time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemIdem(defaultTTL time.Duration) *MemIdem {
	mi := &MemIdem{m: make(map[string]int64), ttl: defaultTTL, stop: make(chan struct{})}
	// 清理协程
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-mi.stop:
				return
			case <-t.C:
				mi.sweep(time.Now())
			}
		}
	}()
	return mi
}

func (mi *MemIdem) Close() {
	mi.stopOnce.Do(func() { close(mi.stop) })
}

func (mi *MemIdem) sweep(now time.Time) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	for k, exp := range mi.m {
		if exp <= now.UnixNano() {
			delete(mi.m, k)
		}
	}
}

func (mi *MemIdem) SeenOnce(key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = mi.ttl
	}
	now := time.Now()
	mi.mu.Lock()
	defer mi.mu.Unlock()
	if old, ok := mi.m[key]; ok && old > now.UnixNano() {
		return true, nil // 已见过
	}
	mi.m[key] = now.Add(ttl).UnixNano()
	return false, nil
}

// ----- 从消息头提取 msgID -----
func msgIDFromHeader(h map[string]string) string {
	for _, k := range []string{HeaderMsgID, "nats-msg-id", "X-Msg-Id", "x-msg-id"} {
		if v, ok := h[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// ----- 幂等中间件 -----
// 用法：NewNatsManager(cfg, NatsxIdemMiddleware(store, ttl))
// 没有 msgID 的消息直接放行
func NatsxIdemMiddleware(store IdemStore, ttl time.Duration) NatsxMiddleware {
	return func(next NatsxHandler) NatsxHandler {
		return func(ctx context.Context, msg NatsxMessage) error {
			id := msgIDFromHeader(msg.Header)
			if id == "" {
				return next(ctx, msg)
			}
			seen, err := store.SeenOnce(id, ttl)
			if err != nil {
				logger.Warn("[NATS] idem store failed", zap.Error(err))
			}
			if seen {
				logger.Debug("[NATS] duplicate skipped", zap.String("msgId", id))
				return nil
			}
			return next(ctx, msg)
		}
	}
}
