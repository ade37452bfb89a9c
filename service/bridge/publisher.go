package bridge

import (
	"context"

	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/notify"
	"PPRealtime/service/kafka"
	"PPRealtime/service/natsx"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink 把编码好的信封写到总线；key 用于分区，msgID 用于去重
type Sink interface {
	Send(ctx context.Context, key, msgID string, data []byte) error
}

// Publisher 给不和网关同进程的持久化服务用：实现 notify.Notifier，
// 但不直接投递，而是把通知发到总线，由各网关实例的 Subscriber 接收。
type Publisher struct {
	sink Sink
}

var _ notify.Notifier = (*Publisher)(nil)

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

func (p *Publisher) NotifyDirect(ctx context.Context, userID, event string, payload any) error {
	return p.publish(ctx, &Envelope{Kind: KindDirect, Target: userID, Event: event, Payload: payload})
}

func (p *Publisher) NotifyGroup(ctx context.Context, groupID, event string, payload any) error {
	return p.publish(ctx, &Envelope{Kind: KindGroup, Target: groupID, Event: event, Payload: payload})
}

func (p *Publisher) NotifyMessageSeen(ctx context.Context, senderID, messageID string) error {
	return p.publish(ctx, &Envelope{Kind: KindMessageSeen, Target: senderID, MessageID: messageID})
}

func (p *Publisher) NotifyCallInvite(ctx context.Context, receiverID string, call *callmodel.Call) error {
	return p.publish(ctx, &Envelope{Kind: KindCallInvite, Target: receiverID, Payload: call})
}

func (p *Publisher) NotifyCallConnected(ctx context.Context, callID string) error {
	return p.publish(ctx, &Envelope{Kind: KindCallConnected, Target: callID})
}

func (p *Publisher) NotifyCallEnded(ctx context.Context, callID string, participantIDs ...string) error {
	return p.publish(ctx, &Envelope{Kind: KindCallEnded, Target: callID, Participants: participantIDs})
}

func (p *Publisher) publish(ctx context.Context, e *Envelope) error {
	if err := e.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.sink.Send(ctx, e.Target, uuid.NewString(), data)
}

// ===== sinks =====

// NatsSink 走 natsx，带 Nats-Msg-Id，重试时订阅端按 id 去重
type NatsSink struct {
	Pub *natsx.NatsxSyncPublisher
	Biz string
}

func (s NatsSink) Send(ctx context.Context, _ string, msgID string, data []byte) error {
	return s.Pub.PublishOnce(ctx, s.Biz, data, nil, msgID)
}

// KafkaSink 按 target 分区，同一目标的通知保持顺序
type KafkaSink struct {
	P     *kafka.Producer
	Topic string
}

func (s KafkaSink) Send(_ context.Context, key, _ string, data []byte) error {
	return s.P.SendSync(s.Topic, key, data)
}
