package service

import (
	"context"
	"strings"
	"time"

	"PPRealtime/logger"
	chatmodel "PPRealtime/module/chat/model"
	"PPRealtime/module/notify"
	usermodel "PPRealtime/module/user/model"
	"PPRealtime/tools/errs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageStore 消息持久化
type MessageStore interface {
	InsertMessage(ctx context.Context, m *chatmodel.Message) error
	// FindMessage 不存在时返回 errs.ErrRecordNotFound
	FindMessage(ctx context.Context, messageID string) (*chatmodel.Message, error)
	MarkMessageSeen(ctx context.Context, messageID string) error
	UpdateGroupLastMessage(ctx context.Context, groupID, lastMessage string, at time.Time) error
}

// UserFinder 账号不存在返回 (nil, nil)
type UserFinder interface {
	FindUser(ctx context.Context, uid string) (*usermodel.User, error)
}

// SendRequest 单聊填 ReceiverID，群聊填 GroupID
type SendRequest struct {
	SenderID           string
	ReceiverID         string
	GroupID            string
	Text               string
	Type               chatmodel.MessageType
	RepliedMessage     string
	RepliedTo          string
	RepliedMessageType chatmodel.MessageType
}

type MessageService struct {
	store    MessageStore
	users    UserFinder
	notifier notify.Notifier
	now      func() time.Time
}

func NewMessageService(store MessageStore, users UserFinder, notifier notify.Notifier) *MessageService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &MessageService{store: store, users: users, notifier: notifier, now: time.Now}
}

func (r *SendRequest) validate() error {
	if r.SenderID == "" {
		return errs.ErrArgs.WrapMsg("senderId is required")
	}
	if (r.ReceiverID == "") == (r.GroupID == "") {
		return errs.ErrArgs.WrapMsg("exactly one of receiverId / groupId is required",
			"receiverId", r.ReceiverID, "groupId", r.GroupID)
	}
	if r.Type == "" {
		r.Type = chatmodel.MessageText
	}
	if !r.Type.Valid() {
		return errs.ErrArgs.WrapMsg("invalid message type", "type", r.Type)
	}
	if r.RepliedMessageType == "" {
		r.RepliedMessageType = chatmodel.MessageText
	}
	if r.Type == chatmodel.MessageText && strings.TrimSpace(r.Text) == "" {
		return errs.ErrArgs.WrapMsg("text is empty")
	}
	return nil
}

// SendMessage 落库成功后才推送；推送失败只记日志，不影响返回
func (s *MessageService) SendMessage(ctx context.Context, req SendRequest) (*chatmodel.Message, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	sender, err := s.users.FindUser(ctx, req.SenderID)
	if err != nil {
		return nil, errs.WrapMsg(err, "find sender failed", "senderId", req.SenderID)
	}
	if sender == nil {
		return nil, errs.ErrRecordNotFound.WrapMsg("sender not found", "senderId", req.SenderID)
	}
	if sender.IsBlocked {
		return nil, errs.ErrForbidden.WrapMsg("account is blocked and cannot send messages", "senderId", req.SenderID)
	}

	m := &chatmodel.Message{
		MessageID:          uuid.NewString(),
		SenderID:           req.SenderID,
		ReceiverID:         req.ReceiverID,
		GroupID:            req.GroupID,
		Text:               req.Text,
		Type:               req.Type,
		IsSeen:             false,
		RepliedMessage:     req.RepliedMessage,
		RepliedTo:          req.RepliedTo,
		RepliedMessageType: req.RepliedMessageType,
		TimeSent:           s.now(),
	}
	if err := s.store.InsertMessage(ctx, m); err != nil {
		return nil, err
	}

	if m.IsGroup() {
		if err := s.store.UpdateGroupLastMessage(ctx, m.GroupID, FormatLastMessage(m), m.TimeSent); err != nil {
			logger.Warn("update group last message failed", zap.String("groupId", m.GroupID), zap.Error(err))
		}
		if err := s.notifier.NotifyGroup(ctx, m.GroupID, notify.EventNewGroupMessage, m); err != nil {
			logger.Warn("notify group message failed", zap.String("messageId", m.MessageID), zap.Error(err))
		}
		return m, nil
	}

	if err := s.notifier.NotifyDirect(ctx, m.ReceiverID, notify.EventNewMessage, m); err != nil {
		logger.Warn("notify direct message failed", zap.String("messageId", m.MessageID), zap.Error(err))
	}
	return m, nil
}

// MarkSeen 只有接收方才能标记已读，其它人调用静默忽略
func (s *MessageService) MarkSeen(ctx context.Context, messageID, userID string) error {
	m, err := s.store.FindMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if m.ReceiverID != userID {
		return nil
	}
	if err := s.store.MarkMessageSeen(ctx, messageID); err != nil {
		return err
	}
	if m.SenderID == "" {
		return nil
	}
	if err := s.notifier.NotifyMessageSeen(ctx, m.SenderID, messageID); err != nil {
		logger.Warn("notify message seen failed", zap.String("messageId", messageID), zap.Error(err))
	}
	return nil
}

// FormatLastMessage 会话列表里展示的摘要
func FormatLastMessage(m *chatmodel.Message) string {
	switch m.Type {
	case chatmodel.MessageText:
		return m.Text
	case chatmodel.MessageImage:
		return "📷 Photo"
	case chatmodel.MessageVideo:
		return "🎥 Video"
	case chatmodel.MessageAudio:
		return "🎵 Audio"
	case chatmodel.MessageGif:
		return "GIF"
	case chatmodel.MessageFile:
		return "📎 File"
	}
	if m.Text != "" {
		return m.Text
	}
	return "Message"
}
