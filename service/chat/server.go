package chat

import (
	"context"
	"net/http"
	"sync"
	"time"

	"PPRealtime/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ===== 配置 =====

type ServerConf struct {
	GatewayID     string
	AuthTimeout   time.Duration // 握手鉴权上限（5~10s）
	LookupTimeout time.Duration // 处理上行事件时查持久化侧的上限
	Conn          ConnConf
	Clock         func() time.Time // 可注入时钟（单测用）；nil => time.Now
}

func (c *ServerConf) norm() {
	if c.GatewayID == "" {
		c.GatewayID = "gateway-1"
	}
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = DefaultAuthTimeout
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 3 * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	c.Conn.norm()
}

type Option func(*Server)

// WithGroupDirectory 配置后 join-group 只对群成员生效
func WithGroupDirectory(g GroupDirectory) Option {
	return func(s *Server) { s.groups = g }
}

func WithPresenceSinks(sinks ...PresenceSink) Option {
	return func(s *Server) { s.sinks = append(s.sinks, sinks...) }
}

// Server 网关本体：持有注册表、频道、路由、通话信令与上下线广播
type Server struct {
	conf ServerConf

	auth     Authenticator
	groups   GroupDirectory
	sinks    []PresenceSink
	sessions *SessionRegistry
	rooms    *RoomTracker
	router   *Router
	calls    *CallCoordinator
	presence *Presence
	disp     *Dispatcher
	upgrader websocket.Upgrader

	mu       sync.Mutex
	live     map[*WsConn]struct{} // 含未鉴权的连接，停机时逐个关闭
	closing  bool
	handlers sync.WaitGroup
}

func NewServer(conf ServerConf, auth Authenticator, opts ...Option) *Server {
	conf.norm()
	s := &Server{
		conf:     conf,
		auth:     auth,
		sessions: NewSessionRegistry(),
		rooms:    NewRoomTracker(),
		disp:     NewDispatcher(),
		live:     make(map[*WsConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true }, // Origin 由 middleware.Origin 校验
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.router = NewRouter(s.sessions, s.rooms)
	s.calls = NewCallCoordinator(s.router, CallConf{Clock: conf.Clock})
	s.presence = NewPresence(s.router, conf.GatewayID, s.sinks...)
	return s
}

func (s *Server) Conf() ServerConf            { return s.conf }
func (s *Server) Sessions() *SessionRegistry  { return s.sessions }
func (s *Server) Rooms() *RoomTracker         { return s.rooms }
func (s *Server) Router() *Router             { return s.router }
func (s *Server) Calls() *CallCoordinator     { return s.calls }
func (s *Server) Disp() *Dispatcher           { return s.disp }
func (s *Server) Groups() GroupDirectory      { return s.groups }
func (s *Server) PresenceNotifier() *Presence { return s.presence }

// Lookup 本网关内存里的在线状态，没配 redis 时给 REST 侧兜底
func (s *Server) Lookup(_ context.Context, userID string) (gatewayID string, online bool, err error) {
	if _, ok := s.sessions.Lookup(userID); !ok {
		return "", false, nil
	}
	return s.conf.GatewayID, true, nil
}

func (s *Server) track(c *WsConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.live[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *WsConn) {
	s.mu.Lock()
	delete(s.live, c)
	s.mu.Unlock()
}

// Shutdown 关闭所有连接，每条连接各自走一次断开清理；等待读协程退出或 ctx 到期
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	conns := make([]*WsConn, 0, len(s.live))
	for c := range s.live {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	logger.Info("[Server] shutting down", zap.Int("conns", len(conns)))
	for _, c := range conns {
		c.Close(s.conf.Conn.WriteWait)
	}

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()
	defer s.presence.Close()
	defer s.calls.Close()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
