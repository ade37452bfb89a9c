package bridge

import (
	"context"

	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/notify"
	"PPRealtime/tools/decode"
	"PPRealtime/tools/errs"
)

// 跨进程推送通知的种类，与 notify.Notifier 的方法一一对应
const (
	KindDirect        = "direct"         // target=userId
	KindGroup         = "group"          // target=groupId
	KindMessageSeen   = "message-seen"   // target=senderId, messageId
	KindCallInvite    = "call-invite"    // target=receiverId, payload=call
	KindCallConnected = "call-connected" // target=callId
	KindCallEnded     = "call-ended"     // target=callId（可空）, participants
)

// Envelope 总线上传输的通知：{kind, target, event, payload, participants, messageId}
type Envelope struct {
	Kind         string   `json:"kind"`
	Target       string   `json:"target"`
	Event        string   `json:"event,omitempty"`
	Payload      any      `json:"payload,omitempty"`
	Participants []string `json:"participants,omitempty"`
	MessageID    string   `json:"messageId,omitempty"`
}

// Decode JSON -> structpb -> Envelope
func Decode(data []byte) (*Envelope, error) {
	st, err := decode.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	if _, err := decode.ReadString(st, "kind"); err != nil {
		return nil, err
	}
	env, err := decode.DecodeStruct[Envelope](st)
	if err != nil {
		return nil, err
	}
	return env, env.validate()
}

func (e *Envelope) validate() error {
	switch e.Kind {
	case KindDirect, KindGroup:
		if e.Target == "" || e.Event == "" {
			return errs.ErrArgs.WrapMsg("target and event are required", "kind", e.Kind)
		}
	case KindMessageSeen:
		if e.Target == "" || e.MessageID == "" {
			return errs.ErrArgs.WrapMsg("target and messageId are required", "kind", e.Kind)
		}
	case KindCallInvite:
		if e.Target == "" || e.Payload == nil {
			return errs.ErrArgs.WrapMsg("target and payload are required", "kind", e.Kind)
		}
	case KindCallConnected:
		if e.Target == "" {
			return errs.ErrArgs.WrapMsg("target is required", "kind", e.Kind)
		}
	case KindCallEnded:
		if len(e.Participants) == 0 {
			return errs.ErrArgs.WrapMsg("participants are required", "kind", e.Kind)
		}
	default:
		return errs.ErrArgs.WrapMsg("unknown kind", "kind", e.Kind)
	}
	return nil
}

// Apply 把信封交给本进程的 Notifier
func Apply(ctx context.Context, n notify.Notifier, e *Envelope) error {
	switch e.Kind {
	case KindDirect:
		return n.NotifyDirect(ctx, e.Target, e.Event, e.Payload)
	case KindGroup:
		return n.NotifyGroup(ctx, e.Target, e.Event, e.Payload)
	case KindMessageSeen:
		return n.NotifyMessageSeen(ctx, e.Target, e.MessageID)
	case KindCallInvite:
		call, err := callFromPayload(e.Payload)
		if err != nil {
			return err
		}
		return n.NotifyCallInvite(ctx, e.Target, call)
	case KindCallConnected:
		return n.NotifyCallConnected(ctx, e.Target)
	case KindCallEnded:
		return n.NotifyCallEnded(ctx, e.Target, e.Participants...)
	}
	return errs.ErrArgs.WrapMsg("unknown kind", "kind", e.Kind)
}

func callFromPayload(p any) (*callmodel.Call, error) {
	switch v := p.(type) {
	case *callmodel.Call:
		return v, nil
	case map[string]any:
		return decode.DecodeMap[callmodel.Call](v)
	}
	return nil, errs.ErrArgs.WrapMsg("call payload must be an object")
}
