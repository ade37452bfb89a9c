package kafka

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
	PresenceTouch   = "touch"
)

// PresenceEvent gateway-presence topic 的消息体，key = userId
type PresenceEvent struct {
	UserID    string `json:"userId"`
	GatewayID string `json:"gatewayId,omitempty"`
	State     string `json:"state"`
	At        int64  `json:"at"` // unix ms
}

// PresenceProducer 把上下线事件写到 kafka，供审计 / 其它服务订阅
type PresenceProducer struct {
	p       *Producer
	topic   string
	gateway string
	// 心跳量大，默认不发
	withTouch bool
	now       func() time.Time
}

func NewPresenceProducer(p *Producer, topic, gatewayID string, withTouch bool) *PresenceProducer {
	return &PresenceProducer{p: p, topic: topic, gateway: gatewayID, withTouch: withTouch, now: time.Now}
}

func (pp *PresenceProducer) Online(_ context.Context, userID, gatewayID string) error {
	return pp.send(userID, gatewayID, PresenceOnline)
}

func (pp *PresenceProducer) Offline(_ context.Context, userID string) error {
	return pp.send(userID, pp.gateway, PresenceOffline)
}

func (pp *PresenceProducer) Touch(_ context.Context, userID, gatewayID string) error {
	if !pp.withTouch {
		return nil
	}
	return pp.send(userID, gatewayID, PresenceTouch)
}

func (pp *PresenceProducer) send(userID, gatewayID, state string) error {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(PresenceEvent{
		UserID:    userID,
		GatewayID: gatewayID,
		State:     state,
		At:        pp.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return pp.p.SendSync(pp.topic, userID, b)
}
