package service

import (
	"context"
	"time"

	"PPRealtime/logger"
	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/notify"
	usermodel "PPRealtime/module/user/model"
	"PPRealtime/tools/errs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CallStore interface {
	InsertCalls(ctx context.Context, legs ...*callmodel.Call) error
	LatestByCaller(ctx context.Context, callerID string) (*callmodel.Call, error)
	// FindByCallID 任一条通话腿；不存在返回 (nil, nil)
	FindByCallID(ctx context.Context, callID string) (*callmodel.Call, error)
	DeleteByParticipants(ctx context.Context, callerID, receiverID string) error
}

type UserFinder interface {
	FindUser(ctx context.Context, uid string) (*usermodel.User, error)
}

type CreateCallRequest struct {
	CallerID   string
	ReceiverID string
	CallID     string // 为空时服务端生成
	HasDialled bool
	Type       callmodel.CallType
}

type CallService struct {
	store    CallStore
	users    UserFinder
	notifier notify.Notifier
	now      func() time.Time
}

func NewCallService(store CallStore, users UserFinder, notifier notify.Notifier) *CallService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &CallService{store: store, users: users, notifier: notifier, now: time.Now}
}

// CreateCall 落两条通话腿：主叫腿 hasDialled 取请求值，被叫腿固定 false；
// 两条都写成功后给被叫推 new-call（携带被叫腿）
func (s *CallService) CreateCall(ctx context.Context, req CreateCallRequest) (callerLeg, receiverLeg *callmodel.Call, err error) {
	if req.CallerID == "" || req.ReceiverID == "" {
		return nil, nil, errs.ErrArgs.WrapMsg("callerId and receiverId are required")
	}
	if req.Type == "" {
		req.Type = callmodel.CallAudio
	}
	if !req.Type.Valid() {
		return nil, nil, errs.ErrArgs.WrapMsg("invalid call type", "type", req.Type)
	}
	if req.CallID == "" {
		req.CallID = uuid.NewString()
	}

	caller, err := s.findUser(ctx, req.CallerID)
	if err != nil {
		return nil, nil, err
	}
	receiver, err := s.findUser(ctx, req.ReceiverID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	callerLeg = &callmodel.Call{
		CallerID:     req.CallerID,
		CallerName:   caller.Name,
		CallerPic:    caller.ProfilePic,
		ReceiverID:   req.ReceiverID,
		ReceiverName: receiver.Name,
		ReceiverPic:  receiver.ProfilePic,
		CallID:       req.CallID,
		HasDialled:   req.HasDialled,
		Type:         req.Type,
		CreatedAt:    now,
	}
	leg := *callerLeg
	leg.HasDialled = false
	receiverLeg = &leg

	if err := s.store.InsertCalls(ctx, callerLeg, receiverLeg); err != nil {
		return nil, nil, err
	}

	if err := s.notifier.NotifyCallInvite(ctx, receiverLeg.ReceiverID, receiverLeg); err != nil {
		logger.Warn("notify call invite failed", zap.String("callId", req.CallID), zap.Error(err))
	}
	return callerLeg, receiverLeg, nil
}

// AcceptCall 被叫接听；只有这通电话的被叫能接
func (s *CallService) AcceptCall(ctx context.Context, callID, userID string) error {
	if callID == "" || userID == "" {
		return errs.ErrArgs.WrapMsg("callId and userId are required")
	}
	leg, err := s.store.FindByCallID(ctx, callID)
	if err != nil {
		return err
	}
	if leg == nil {
		return errs.ErrRecordNotFound.WrapMsg("call not found", "callId", callID)
	}
	if leg.ReceiverID != userID {
		return errs.ErrForbidden.WrapMsg("only the receiver can accept", "callId", callID, "uid", userID)
	}
	if err := s.notifier.NotifyCallConnected(ctx, callID); err != nil {
		logger.Warn("notify call connected failed", zap.String("callId", callID), zap.Error(err))
	}
	return nil
}

// GetCall 主叫最近一次通话，没有返回 (nil, nil)
func (s *CallService) GetCall(ctx context.Context, userID string) (*callmodel.Call, error) {
	return s.store.LatestByCaller(ctx, userID)
}

// EndCall 删除双方通话腿，再分别给双方推 call-ended
func (s *CallService) EndCall(ctx context.Context, callerID, receiverID string) error {
	if callerID == "" || receiverID == "" {
		return errs.ErrArgs.WrapMsg("callerId and receiverId are required")
	}
	var callID string
	if c, err := s.store.LatestByCaller(ctx, callerID); err != nil {
		logger.Warn("lookup call before end failed", zap.String("callerId", callerID), zap.Error(err))
	} else if c != nil {
		callID = c.CallID
	}

	if err := s.store.DeleteByParticipants(ctx, callerID, receiverID); err != nil {
		return err
	}

	if err := s.notifier.NotifyCallEnded(ctx, callID, callerID, receiverID); err != nil {
		logger.Warn("notify call ended failed", zap.String("callId", callID), zap.Error(err))
	}
	return nil
}

func (s *CallService) findUser(ctx context.Context, uid string) (*usermodel.User, error) {
	u, err := s.users.FindUser(ctx, uid)
	if err != nil {
		return nil, errs.WrapMsg(err, "find user failed", "uid", uid)
	}
	if u == nil {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "uid", uid)
	}
	return u, nil
}
