package chat

import (
	"PPRealtime/logger"
	"PPRealtime/service/metrics"

	"go.uber.org/zap"
)

// Router 纯路由：解析目标连接并入队，不做任何持久化 I/O。
// 帧只编码一次，然后在调用方协程里按顺序塞进每个订阅者的 FIFO 发送队列，
// 所以同一发送方对同一频道的事件在每个订阅者处保持提交顺序。
type Router struct {
	sessions *SessionRegistry
	rooms    *RoomTracker
}

func NewRouter(sessions *SessionRegistry, rooms *RoomTracker) *Router {
	return &Router{sessions: sessions, rooms: rooms}
}

// DeliverToUser 目标不在线时什么也不做并返回 nil；只有编码失败才返回错误
func (r *Router) DeliverToUser(userID, event string, payload any) error {
	c, ok := r.sessions.Lookup(userID)
	if !ok {
		metrics.Deliveries.WithLabelValues("offline").Inc()
		logger.Debug("[Router] target offline, drop", zap.String("user", userID), zap.String("event", event))
		return nil
	}
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	push(c, frame, event)
	return nil
}

// DeliverToChannel 投递给频道内所有连接（可能 0 个），不收集确认
func (r *Router) DeliverToChannel(channelID, event string, payload any) error {
	conns := r.rooms.Members(channelID)
	if len(conns) == 0 {
		metrics.Deliveries.WithLabelValues("offline").Inc()
		logger.Debug("[Router] channel empty, drop", zap.String("channel", channelID), zap.String("event", event))
		return nil
	}
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	for _, c := range conns {
		push(c, frame, event)
	}
	return nil
}

// Broadcast 投递给所有在线会话，except 可为 nil
func (r *Router) Broadcast(event string, payload any, except Conn) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	for _, c := range r.sessions.Snapshot() {
		if except != nil && c == except {
			continue
		}
		push(c, frame, event)
	}
	return nil
}

func push(c Conn, frame []byte, event string) {
	if c.Send(frame) {
		metrics.Deliveries.WithLabelValues("delivered").Inc()
		return
	}
	metrics.Deliveries.WithLabelValues("dropped").Inc()
	logger.Warn("[Router] send queue full or closed, drop",
		zap.String("conn", c.ID()), zap.String("user", c.UserID()), zap.String("event", event))
}
