package chat

import (
	"context"
	"errors"
	"net"
	"time"

	"PPRealtime/logger"
	midsec "PPRealtime/middleware/security"
	"PPRealtime/service/metrics"
	"PPRealtime/tools/errs"
	"PPRealtime/tools/ids"
	"PPRealtime/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HandleWS ===== WebSocket 连接生命周期 =====
// 升级后连接只是临时接受；鉴权失败直接断开，不回任何原因。
func (s *Server) HandleWS(c *gin.Context) {
	token := midsec.TokenFrom(c)
	if token == "" {
		token = midsec.ExtractToken(c.Request, nil)
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 常见：非 WebSocket 请求/握手失败
		metrics.Connections.WithLabelValues("upgrade_failed").Inc()
		logger.Info("[WS] upgrade failed", zap.String("remote", c.ClientIP()), zap.Error(err))
		return
	}

	s.handlers.Add(1)
	defer s.handlers.Done()

	conn := newWsConn(ids.GenerateString(), ws, c.ClientIP(), s.conf.Clock(), s.conf.Conn.SendQueue)
	if !s.track(conn) {
		conn.abort()
		return
	}
	defer s.untrack(conn)
	defer s.disconnect(conn)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.conf.AuthTimeout)
	uid, err := s.authenticate(ctx, token)
	cancel()
	if err != nil {
		metrics.Connections.WithLabelValues("rejected").Inc()
		metrics.AuthFailures.WithLabelValues(authReason(err)).Inc()
		logger.Info("[WS] auth rejected", zap.String("snowID", conn.ID()), zap.String("remote", conn.Remote()), zap.Error(err))
		conn.abort()
		return
	}
	conn.bindUser(uid)
	metrics.Connections.WithLabelValues("accepted").Inc()

	go func() {
		defer safe.Recover("ws-writer")
		conn.writePump(s.conf.Conn)
	}()
	s.connect(conn)

	s.readLoop(conn)
	conn.Close(s.conf.Conn.WriteWait)
}

// authenticate 额外兜一层超时，防止 Authenticator 实现不尊重 ctx
func (s *Server) authenticate(ctx context.Context, token string) (string, error) {
	type result struct {
		uid string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer safe.Recover("ws-auth")
		uid, err := s.auth.Authenticate(ctx, token)
		ch <- result{uid: uid, err: err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		if r.uid == "" {
			return "", errs.ErrUnauthenticated.WrapMsg("empty identity")
		}
		return r.uid, nil
	case <-ctx.Done():
		return "", errs.ErrUnauthenticated.WrapMsg("authentication timed out")
	}
}

func authReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrForbidden):
		return "forbidden"
	case errors.Is(err, errs.ErrTokenExpired):
		return "expired"
	default:
		return "unauthenticated"
	}
}

// connect 鉴权成功后：登记会话 + 广播上线
func (s *Server) connect(c *WsConn) {
	if old := s.sessions.Register(c.UserID(), c); old != nil {
		// 旧连接不在这里关闭，它自己断开时会被 stale 判断挡住
		logger.Info("[WS] session replaced", zap.String("user", c.UserID()),
			zap.String("old", old.ID()), zap.String("new", c.ID()))
	}
	metrics.Sessions.Set(float64(s.sessions.Len()))
	logger.Info("[WS] connected", zap.String("user", c.UserID()), zap.String("snowID", c.ID()), zap.String("remote", c.Remote()))
	s.presence.Online(c)
}

// disconnect 每条连接只执行一次：注销会话(带 stale 判断) -> 退出全部频道 -> 广播下线。
// 未鉴权的连接没有会话也不会广播。
// 被更新连接顶掉的旧连接断开时不广播下线，用户仍通过新连接在线。
func (s *Server) disconnect(c *WsConn) {
	c.cleanupOnce.Do(func() {
		uid := c.UserID()
		removed := uid != "" && s.sessions.Unregister(uid, c)
		left := s.rooms.LeaveAll(c)
		metrics.Sessions.Set(float64(s.sessions.Len()))
		if uid == "" {
			return
		}
		logger.Info("[WS] disconnected", zap.String("user", uid), zap.String("snowID", c.ID()),
			zap.Bool("sessionRemoved", removed), zap.Int("channelsLeft", left))
		// 在线状态跟着注册表走：被顶掉的旧连接断开时用户仍在线，不发 user-offline
		if removed {
			s.presence.Offline(uid)
		}
	})
}

// ---- 读循环：只读不写；出错即退出（写协程收尾） ----
func (s *Server) readLoop(c *WsConn) {
	conf := s.conf.Conn
	c.ws.SetReadLimit(conf.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(conf.PongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(conf.PongWait))
		s.presence.Touch(c.UserID())
		return nil
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			var ne net.Error
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				logger.Debug("[WS] peer closed", zap.String("snowID", c.ID()), zap.Error(err))
			case errors.As(err, &ne) && ne.Timeout():
				logger.Info("[WS] read timeout", zap.String("snowID", c.ID()), zap.Error(err))
			default:
				logger.Debug("[WS] read err", zap.String("snowID", c.ID()), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		f, perr := DecodeFrame(data)
		if perr != nil {
			// 只打印简短样本
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Info("[WS] bad frame", zap.String("snowID", c.ID()), zap.ByteString("sample", sample), zap.Error(perr))
			continue
		}

		// 同一连接的上行请求按到达顺序同步处理
		ctx, cancel := context.WithTimeout(context.Background(), s.conf.LookupTimeout)
		herr := s.disp.Dispatch(&Context{Context: ctx, S: s, Conn: c}, f)
		cancel()
		if herr != nil {
			logger.Info("[WS] handle event failed", zap.String("snowID", c.ID()), zap.String("user", c.UserID()),
				zap.String("event", f.Event), zap.Error(herr))
		}
	}
}
