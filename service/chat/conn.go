package chat

import (
	"sync"
	"time"

	"PPRealtime/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ===== 连接配置 =====

type ConnConf struct {
	SendQueue      int           // 每连接发送队列长度
	WriteWait      time.Duration // 单次写超时
	PingInterval   time.Duration // 服务端 ping 周期
	PongWait       time.Duration // 读超时，收到 pong 续期；必须大于 PingInterval
	FirstPingDelay time.Duration // 首个 ping 延后，避免刚连上即写超时
	MaxMessageSize int64
}

func (c *ConnConf) norm() {
	if c.SendQueue <= 0 {
		c.SendQueue = 256
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = c.PingInterval * 12 / 5 // 25s -> 60s
	}
	if c.FirstPingDelay <= 0 || c.FirstPingDelay > c.PingInterval {
		c.FirstPingDelay = 5 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
}

// ===== 数据结构 =====

// WsConn 一条 websocket 连接。userID 在鉴权成功后绑定一次，之后不可变。
type WsConn struct {
	snowID    string
	userID    string
	remote    string
	createdAt time.Time

	ws   *websocket.Conn
	send chan []byte // 每连接独立发送队列，单写协程消费

	closeOnce   sync.Once
	done        chan struct{}
	cleanupOnce sync.Once // 断开清理只做一次
}

func newWsConn(snowID string, ws *websocket.Conn, remote string, now time.Time, queue int) *WsConn {
	return &WsConn{
		snowID:    snowID,
		remote:    remote,
		createdAt: now,
		ws:        ws,
		send:      make(chan []byte, queue),
		done:      make(chan struct{}),
	}
}

func (w *WsConn) ID() string           { return w.snowID }
func (w *WsConn) UserID() string       { return w.userID }
func (w *WsConn) CreatedAt() time.Time { return w.createdAt }
func (w *WsConn) Remote() string       { return w.remote }

// Done 连接关闭后被 close
func (w *WsConn) Done() <-chan struct{} { return w.done }

// bindUser 只在读协程里、注册前调用一次
func (w *WsConn) bindUser(uid string) bool {
	if w.userID != "" {
		return false
	}
	w.userID = uid
	return true
}

// Send 非阻塞入队；慢客户端丢帧，不影响其他连接
func (w *WsConn) Send(frame []byte) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.send <- frame:
		return true
	case <-w.done:
		return false
	default:
		return false
	}
}

// abort 直接断开底层连接，不发 close 帧，不带任何原因
func (w *WsConn) abort() {
	w.closeOnce.Do(func() {
		close(w.done)
		_ = w.ws.Close()
	})
}

// Close 发 close 帧后断开（正常关闭/服务下线）
func (w *WsConn) Close(wait time.Duration) {
	w.closeOnce.Do(func() {
		close(w.done)
		_ = w.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wait))
		_ = w.ws.Close()
	})
}

// writePump 单写协程：优先业务帧，其次首个 ping，再常规 ping
func (w *WsConn) writePump(conf ConnConf) {
	ticker := time.NewTicker(conf.PingInterval)
	first := time.NewTimer(conf.FirstPingDelay)
	defer func() {
		ticker.Stop()
		first.Stop()
		w.Close(conf.WriteWait)
	}()

	ping := func(tag string) bool {
		if err := w.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(conf.WriteWait)); err != nil {
			logger.Debug("[WS] "+tag+" err", zap.String("snowID", w.snowID), zap.String("user", w.userID), zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case <-w.done:
			return
		case payload := <-w.send:
			_ = w.ws.SetWriteDeadline(time.Now().Add(conf.WriteWait))
			if err := w.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Info("[WS] write payload err", zap.String("snowID", w.snowID), zap.String("user", w.userID), zap.Error(err))
				return
			}
		case <-first.C:
			if !ping("first ping") {
				return
			}
		case <-ticker.C:
			if !ping("ping") {
				return
			}
		}
	}
}
