package chat

import (
	"context"
	"time"

	usermodel "PPRealtime/module/user/model"
)

// Conn 一条已建立的实时连接。由传输层持有，网关只保留引用。
// 实现必须是可比较的指针类型：注册表按身份比较连接。
type Conn interface {
	ID() string
	UserID() string
	CreatedAt() time.Time
	// Send 非阻塞入队，队列满或连接已关闭时返回 false
	Send(frame []byte) bool
}

// Handler 处理一种上行事件
type Handler interface {
	Event() string
	Handle(ctx *Context, f *Frame) error
}

// Context 单次上行事件的处理上下文
type Context struct {
	context.Context
	S    *Server
	Conn *WsConn
}

// Authenticator 把握手凭证解析成用户身份
type Authenticator interface {
	Authenticate(ctx context.Context, rawCredential string) (userID string, err error)
}

// UserDirectory 持久化侧的用户查询；账号不存在返回 (nil, nil)
type UserDirectory interface {
	FindUser(ctx context.Context, uid string) (*usermodel.User, error)
}

// GroupDirectory 持久化侧的群成员查询
type GroupDirectory interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// PresenceSink 在线状态的旁路镜像（redis / kafka ...），失败只记日志
type PresenceSink interface {
	Online(ctx context.Context, userID, gatewayID string) error
	Offline(ctx context.Context, userID string) error
	Touch(ctx context.Context, userID, gatewayID string) error
}
