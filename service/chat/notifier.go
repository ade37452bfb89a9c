package chat

import (
	"context"

	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/notify"
)

var _ notify.Notifier = (*Server)(nil)

// 以下是给持久化侧 service 调用的推送入口，写库提交之后才能调用。
// ctx 目前只用于取消前的快速返回，投递本身是内存入队。

func (s *Server) NotifyDirect(ctx context.Context, userID, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.router.DeliverToUser(userID, event, payload)
}

func (s *Server) NotifyGroup(ctx context.Context, groupID, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.router.DeliverToChannel(GroupChannel(groupID), event, payload)
}

// NotifyMessageSeen 通知原发送方：对方已读
func (s *Server) NotifyMessageSeen(ctx context.Context, senderID, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.router.DeliverToUser(senderID, notify.EventMessageSeen, notify.SeenPayload{MessageID: messageID})
}

func (s *Server) NotifyCallInvite(ctx context.Context, receiverID string, call *callmodel.Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.calls.SignalInvite(receiverID, call)
}

func (s *Server) NotifyCallEnded(ctx context.Context, callID string, participantIDs ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.calls.SignalEnd(callID, participantIDs...)
}

// NotifyCallConnected 通话接通，只改内存状态，不下发事件
func (s *Server) NotifyCallConnected(ctx context.Context, callID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.calls.SignalConnected(callID)
	return nil
}
