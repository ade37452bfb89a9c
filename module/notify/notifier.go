package notify

import (
	"context"

	callmodel "PPRealtime/module/call/model"
)

// 下行事件名，和客户端约定好的，不要随意改
const (
	EventUserOnline      = "user-online"
	EventUserOffline     = "user-offline"
	EventNewMessage      = "new-message"
	EventNewGroupMessage = "new-group-message"
	EventMessageSeen     = "message-seen"
	EventNewCall         = "new-call"
	EventCallEnded       = "call-ended"
)

// Notifier 实时推送能力，由网关实现，在构造时注入到持久化侧的 service 里。
// 只能在对应的写库已经提交之后调用；目标不在线不算错误。
type Notifier interface {
	NotifyDirect(ctx context.Context, userID, event string, payload any) error
	NotifyGroup(ctx context.Context, groupID, event string, payload any) error
	NotifyMessageSeen(ctx context.Context, senderID, messageID string) error
	NotifyCallInvite(ctx context.Context, receiverID string, call *callmodel.Call) error
	NotifyCallConnected(ctx context.Context, callID string) error
	NotifyCallEnded(ctx context.Context, callID string, participantIDs ...string) error
}

// UserPayload user-online / user-offline 的负载
type UserPayload struct {
	UserID string `json:"userId"`
}

// SeenPayload message-seen 的负载
type SeenPayload struct {
	MessageID string `json:"messageId"`
}

// Nop 不推送，给离线任务/脚本用
type Nop struct{}

func (Nop) NotifyDirect(context.Context, string, string, any) error         { return nil }
func (Nop) NotifyGroup(context.Context, string, string, any) error          { return nil }
func (Nop) NotifyMessageSeen(context.Context, string, string) error         { return nil }
func (Nop) NotifyCallInvite(context.Context, string, *callmodel.Call) error { return nil }
func (Nop) NotifyCallConnected(context.Context, string) error               { return nil }
func (Nop) NotifyCallEnded(context.Context, string, ...string) error        { return nil }
