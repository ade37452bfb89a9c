package chat

import (
	"context"
	"sync"
	"time"

	"PPRealtime/logger"
	"PPRealtime/module/notify"
	"PPRealtime/tools/safe"

	"go.uber.org/zap"
)

const sinkTimeout = 3 * time.Second

const mirrorQueue = 4096

type mirrorJob struct {
	op     string
	userID string
	fn     func(context.Context, PresenceSink) error
}

// Presence 上下线广播 + 旁路镜像。
// 镜像写入由单个协程按入队顺序执行，同一用户的 online/offline 不会乱序。
type Presence struct {
	router    *Router
	gatewayID string
	sinks     []PresenceSink

	jobs     chan mirrorJob
	stopOnce sync.Once
	stopped  chan struct{}
}

func NewPresence(router *Router, gatewayID string, sinks ...PresenceSink) *Presence {
	p := &Presence{
		router:    router,
		gatewayID: gatewayID,
		sinks:     sinks,
		jobs:      make(chan mirrorJob, mirrorQueue),
		stopped:   make(chan struct{}),
	}
	if len(sinks) > 0 {
		safe.SafeGo("presence-mirror", p.loop)
	}
	return p
}

// Close 停止镜像协程，队列里剩余的写入直接丢弃
func (p *Presence) Close() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

// Online 广播 user-online 给除自己以外的所有连接
func (p *Presence) Online(c Conn) {
	uid := c.UserID()
	if err := p.router.Broadcast(notify.EventUserOnline, notify.UserPayload{UserID: uid}, c); err != nil {
		logger.Error("[Presence] broadcast online", zap.String("user", uid), zap.Error(err))
	}
	p.mirror("online", uid, func(ctx context.Context, s PresenceSink) error {
		return s.Online(ctx, uid, p.gatewayID)
	})
}

// Offline 广播 user-offline
func (p *Presence) Offline(userID string) {
	if err := p.router.Broadcast(notify.EventUserOffline, notify.UserPayload{UserID: userID}, nil); err != nil {
		logger.Error("[Presence] broadcast offline", zap.String("user", userID), zap.Error(err))
	}
	p.mirror("offline", userID, func(ctx context.Context, s PresenceSink) error {
		return s.Offline(ctx, userID)
	})
}

// Touch 心跳续期镜像里的 TTL
func (p *Presence) Touch(userID string) {
	p.mirror("touch", userID, func(ctx context.Context, s PresenceSink) error {
		return s.Touch(ctx, userID, p.gatewayID)
	})
}

// mirror 非阻塞入队，不拖慢连接协程
func (p *Presence) mirror(op, userID string, fn func(context.Context, PresenceSink) error) {
	if len(p.sinks) == 0 {
		return
	}
	select {
	case <-p.stopped:
	case p.jobs <- mirrorJob{op: op, userID: userID, fn: fn}:
	default:
		logger.Warn("[Presence] mirror queue full, drop", zap.String("op", op), zap.String("user", userID))
	}
}

func (p *Presence) loop() {
	for {
		select {
		case <-p.stopped:
			return
		case job := <-p.jobs:
			p.run(job)
		}
	}
}

func (p *Presence) run(job mirrorJob) {
	defer safe.Recover("presence-" + job.op)
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	for _, s := range p.sinks {
		if err := job.fn(ctx, s); err != nil {
			logger.Warn("[Presence] mirror failed", zap.String("op", job.op), zap.String("user", job.userID), zap.Error(err))
		}
	}
}
