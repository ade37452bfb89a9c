package chat

import (
	"sync"
	"time"

	"PPRealtime/logger"
	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/notify"
	"PPRealtime/tools/safe"

	"go.uber.org/zap"
)

type CallState string

const (
	CallRinging   CallState = "ringing"
	CallConnected CallState = "connected"
	CallEnded     CallState = "ended"
)

type CallConf struct {
	RingingTTL   time.Duration    // 一直没人挂断的响铃多久后清掉（主叫崩溃等）
	ConnectedTTL time.Duration    // 通话中状态的上限
	EndedTTL     time.Duration    // Ended 墓碑保留多久，挡住重投的 invite
	SweepEvery   time.Duration    // 清理周期
	Clock        func() time.Time // nil => time.Now
}

func (c *CallConf) norm() {
	if c.RingingTTL <= 0 {
		c.RingingTTL = 2 * time.Minute
	}
	if c.ConnectedTTL <= 0 {
		c.ConnectedTTL = 12 * time.Hour
	}
	if c.EndedTTL <= 0 {
		c.EndedTTL = 10 * time.Minute
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 30 * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

type callEntry struct {
	state    CallState
	caller   string
	receiver string
	expireAt time.Time
}

// CallCoordinator 通话信令：Ringing -> {Connected, Ended}，Ended 为终态。
// 这里只记内存里的瞬时状态，通话记录本身归持久化侧所有；每个状态都有过期时间，由 sweeper 清理。
type CallCoordinator struct {
	router *Router
	conf   CallConf

	mu     sync.Mutex
	states map[string]*callEntry // callID -> entry

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewCallCoordinator(router *Router, conf CallConf) *CallCoordinator {
	conf.norm()
	cc := &CallCoordinator{
		router: router,
		conf:   conf,
		states: make(map[string]*callEntry),
		stopCh: make(chan struct{}),
	}
	safe.SafeGo("call-sweeper", cc.sweeper)
	return cc
}

// Close 停止 sweeper，可重复调用
func (cc *CallCoordinator) Close() {
	cc.stopOnce.Do(func() { close(cc.stopCh) })
}

func (cc *CallCoordinator) ttl(st CallState) time.Duration {
	switch st {
	case CallRinging:
		return cc.conf.RingingTTL
	case CallConnected:
		return cc.conf.ConnectedTTL
	}
	return cc.conf.EndedTTL
}

// setLocked 切换状态并按新状态续期
func (cc *CallCoordinator) setLocked(e *callEntry, st CallState) {
	e.state = st
	e.expireAt = cc.conf.Clock().Add(cc.ttl(st))
}

// SignalInvite 给被叫推 new-call；被叫不在线则静默丢弃。已接通或已结束的通话不再响铃
func (cc *CallCoordinator) SignalInvite(receiverID string, call *callmodel.Call) error {
	if call != nil && call.CallID != "" {
		cc.mu.Lock()
		if e, ok := cc.states[call.CallID]; ok && e.state != CallRinging {
			cc.mu.Unlock()
			logger.Warn("[Call] invite ignored", zap.String("callId", call.CallID), zap.String("state", string(e.state)))
			return nil
		}
		e := &callEntry{caller: call.CallerID, receiver: receiverID}
		cc.setLocked(e, CallRinging)
		cc.states[call.CallID] = e
		cc.mu.Unlock()
	}
	return cc.router.DeliverToUser(receiverID, notify.EventNewCall, call)
}

// SignalConnected Ringing -> Connected，其余状态忽略
func (cc *CallCoordinator) SignalConnected(callID string) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	e, ok := cc.states[callID]
	if !ok || e.state != CallRinging {
		return false
	}
	cc.setLocked(e, CallConnected)
	return true
}

// SignalEnd 给每个参与方各自推 call-ended（无负载），一方不在线不影响另一方。
// callID 为空时按参与方结束两人之间所有未结束的通话。
func (cc *CallCoordinator) SignalEnd(callID string, participantIDs ...string) error {
	cc.markEnded(callID, participantIDs)

	var firstErr error
	seen := make(map[string]struct{}, len(participantIDs))
	for _, uid := range participantIDs {
		if uid == "" {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		if err := cc.router.DeliverToUser(uid, notify.EventCallEnded, nil); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (cc *CallCoordinator) markEnded(callID string, participantIDs []string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if callID != "" {
		e, ok := cc.states[callID]
		if !ok {
			// 没见过 invite 也留墓碑，迟到的 invite 不会再响铃
			e = &callEntry{}
			cc.states[callID] = e
		}
		cc.setLocked(e, CallEnded)
		return
	}
	in := make(map[string]struct{}, len(participantIDs))
	for _, uid := range participantIDs {
		in[uid] = struct{}{}
	}
	for _, e := range cc.states {
		if e.state == CallEnded {
			continue
		}
		_, okCaller := in[e.caller]
		_, okReceiver := in[e.receiver]
		if okReceiver && (okCaller || e.caller == "") {
			cc.setLocked(e, CallEnded)
		}
	}
}

// State 未知的通话返回 (CallEnded, false)
func (cc *CallCoordinator) State(callID string) (CallState, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	e, ok := cc.states[callID]
	if !ok {
		return CallEnded, false
	}
	return e.state, true
}

func (cc *CallCoordinator) sweeper() {
	t := time.NewTicker(cc.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-cc.stopCh:
			return
		case <-t.C:
			cc.sweepOnce(cc.conf.Clock())
		}
	}
}

func (cc *CallCoordinator) sweepOnce(now time.Time) int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	n := 0
	for id, e := range cc.states {
		if now.After(e.expireAt) {
			if e.state == CallRinging {
				logger.Debug("[Call] ringing expired", zap.String("callId", id))
			}
			delete(cc.states, id)
			n++
		}
	}
	return n
}
