package handlers

import (
	"strings"

	"PPRealtime/logger"
	"PPRealtime/service/chat"
	"PPRealtime/tools/errs"

	"go.uber.org/zap"
)

const (
	EventJoinChat   = "join-chat"
	EventLeaveChat  = "leave-chat"
	EventJoinGroup  = "join-group"
	EventLeaveGroup = "leave-group"
)

type contactPayload struct {
	ContactID string `json:"contactId"`
}

type groupPayload struct {
	GroupID string `json:"groupId"`
}

// All 网关支持的全部上行事件
func All() []chat.Handler {
	return []chat.Handler{
		&JoinChatHandler{},
		&LeaveChatHandler{},
		&JoinGroupHandler{},
		&LeaveGroupHandler{},
	}
}

func bindContact(f *chat.Frame) (string, error) {
	var p contactPayload
	if err := f.Bind(&p); err != nil {
		return "", errs.ErrArgs.WrapMsg(err.Error(), "event", f.Event)
	}
	id := strings.TrimSpace(p.ContactID)
	if id == "" {
		return "", errs.ErrArgs.WrapMsg("contactId required", "event", f.Event)
	}
	return id, nil
}

func bindGroup(f *chat.Frame) (string, error) {
	var p groupPayload
	if err := f.Bind(&p); err != nil {
		return "", errs.ErrArgs.WrapMsg(err.Error(), "event", f.Event)
	}
	id := strings.TrimSpace(p.GroupID)
	if id == "" {
		return "", errs.ErrArgs.WrapMsg("groupId required", "event", f.Event)
	}
	return id, nil
}

// JoinChatHandler join-chat {contactId}
type JoinChatHandler struct{}

func (h *JoinChatHandler) Event() string { return EventJoinChat }

func (h *JoinChatHandler) Handle(ctx *chat.Context, f *chat.Frame) error {
	contact, err := bindContact(f)
	if err != nil {
		return err
	}
	ctx.S.Rooms().Join(ctx.Conn, chat.ChatChannel(ctx.Conn.UserID(), contact))
	return nil
}

// LeaveChatHandler leave-chat {contactId}
type LeaveChatHandler struct{}

func (h *LeaveChatHandler) Event() string { return EventLeaveChat }

func (h *LeaveChatHandler) Handle(ctx *chat.Context, f *chat.Frame) error {
	contact, err := bindContact(f)
	if err != nil {
		return err
	}
	ctx.S.Rooms().Leave(ctx.Conn, chat.ChatChannel(ctx.Conn.UserID(), contact))
	return nil
}

// JoinGroupHandler join-group {groupId}；配置了群目录时只放行群成员
type JoinGroupHandler struct{}

func (h *JoinGroupHandler) Event() string { return EventJoinGroup }

func (h *JoinGroupHandler) Handle(ctx *chat.Context, f *chat.Frame) error {
	group, err := bindGroup(f)
	if err != nil {
		return err
	}
	if dir := ctx.S.Groups(); dir != nil {
		ok, err := dir.IsMember(ctx, group, ctx.Conn.UserID())
		if err != nil {
			return errs.WrapMsg(err, "group membership lookup", "group", group)
		}
		if !ok {
			logger.Info("[WS] join-group refused, not a member",
				zap.String("user", ctx.Conn.UserID()), zap.String("group", group))
			return nil
		}
	}
	ctx.S.Rooms().Join(ctx.Conn, chat.GroupChannel(group))
	return nil
}

// LeaveGroupHandler leave-group {groupId}
type LeaveGroupHandler struct{}

func (h *LeaveGroupHandler) Event() string { return EventLeaveGroup }

func (h *LeaveGroupHandler) Handle(ctx *chat.Context, f *chat.Frame) error {
	group, err := bindGroup(f)
	if err != nil {
		return err
	}
	ctx.S.Rooms().Leave(ctx.Conn, chat.GroupChannel(group))
	return nil
}
