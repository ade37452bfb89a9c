package mgo

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"PPRealtime/data/database/mgo/mongoutil"
	"PPRealtime/logger"
	"PPRealtime/tools/errs"
	"PPRealtime/tools/safe"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	baseBackoff = 200 * time.Millisecond
	maxBackoff  = 5 * time.Second
	healthEvery = 10 * time.Second
	failThresh  = 3 // 连续 ping 失败多少次算不健康
)

// Keeper 后台拨号直到首次成功，之后只做健康探测。
// 掉线重连交给驱动自己处理，所以拿到的 *mongo.Database 在进程内一直有效。
type Keeper struct {
	cfg mongoutil.Config

	mu    sync.RWMutex
	cli   *mongo.Client
	ready chan struct{}
	once  sync.Once

	healthy atomic.Bool
	lastErr atomic.Value // error
}

func NewKeeper(cfg mongoutil.Config) (*Keeper, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &Keeper{cfg: cfg, ready: make(chan struct{})}, nil
}

// Start 后台运行到 ctx 结束，结束时断开连接
func (k *Keeper) Start(ctx context.Context) {
	safe.SafeGo("mongo-keeper", func() { k.run(ctx) })
}

func (k *Keeper) run(ctx context.Context) {
	cli, ok := k.dial(ctx)
	if !ok {
		return
	}
	k.mu.Lock()
	k.cli = cli
	k.mu.Unlock()
	k.healthy.Store(true)
	k.once.Do(func() { close(k.ready) })

	defer func() {
		_ = cli.Disconnect(context.Background())
		k.healthy.Store(false)
	}()

	tk := time.NewTicker(healthEvery)
	defer tk.Stop()
	fail := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
		}
		if err := cli.Ping(ctx, nil); err != nil {
			fail++
			k.lastErr.Store(err)
			logger.Warn("mongo ping failed", zap.Int("fail", fail), zap.Error(err))
			if fail >= failThresh && k.healthy.Swap(false) {
				logger.Error("mongo marked unhealthy", zap.String("db", k.cfg.Database))
			}
			continue
		}
		if fail > 0 {
			logger.Info("mongo recovered", zap.Int("afterFails", fail))
		}
		fail = 0
		k.healthy.Store(true)
	}
}

// dial 指数退避 + 抖动；认证类错误直接放弃
func (k *Keeper) dial(ctx context.Context) (*mongo.Client, bool) {
	for attempt := 0; ; attempt++ {
		cli, err := mongoutil.Dial(ctx, &k.cfg)
		if err == nil {
			logger.Info("mongo connected", zap.String("db", k.cfg.Database), zap.Int("attempt", attempt))
			return cli, true
		}
		k.lastErr.Store(err)
		if !mongoutil.Retryable(ctx, err) {
			logger.Error("mongo dial aborted", zap.Error(err))
			return nil, false
		}
		logger.Warn("mongo connect failed", zap.Int("attempt", attempt), zap.Error(err))

		t := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, false
		case <-t.C:
		}
	}
}

func backoff(attempt int) time.Duration {
	if attempt > 5 {
		attempt = 5
	}
	d := baseBackoff << attempt
	if d > maxBackoff {
		d = maxBackoff
	}
	// 0~10% 抖动
	return d - time.Duration(rand.Int63n(int64(d/10)+1))
}

// Wait 阻塞到首次连上或 ctx 结束；超时时带上最近一次拨号错误
func (k *Keeper) Wait(ctx context.Context) (*mongo.Database, error) {
	select {
	case <-k.ready:
	case <-ctx.Done():
		if last := k.Err(); last != nil {
			return nil, last
		}
		return nil, errs.WrapMsg(ctx.Err(), "mongo not ready", "db", k.cfg.Database)
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cli.Database(k.cfg.Database), nil
}

func (k *Keeper) Healthy() bool { return k.healthy.Load() }

// Err 最近一次拨号/探测错误
func (k *Keeper) Err() error {
	if v := k.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}
