package bridge

import (
	"context"
	"time"

	"PPRealtime/logger"
	"PPRealtime/module/notify"
	"PPRealtime/service/kafka"
	"PPRealtime/service/metrics"
	"PPRealtime/service/natsx"

	"go.uber.org/zap"
)

const applyTimeout = 5 * time.Second

// Subscriber 从总线收信封并交给本进程的 Notifier（通常就是网关 Server）
type Subscriber struct {
	n notify.Notifier
}

func NewSubscriber(n notify.Notifier) *Subscriber {
	return &Subscriber{n: n}
}

// Handle 坏消息只记日志并丢弃，返回错误仅用于 JetStream 的 Nak
func (s *Subscriber) Handle(ctx context.Context, source string, data []byte) error {
	env, err := Decode(data)
	if err != nil {
		metrics.BridgeMessages.WithLabelValues(source, "invalid").Inc()
		logger.Warn("[Bridge] drop invalid envelope", zap.String("source", source), zap.Error(err))
		return nil
	}
	if err := Apply(ctx, s.n, env); err != nil {
		metrics.BridgeMessages.WithLabelValues(source, "failed").Inc()
		logger.Warn("[Bridge] apply failed", zap.String("kind", env.Kind), zap.String("target", env.Target), zap.Error(err))
		return err
	}
	metrics.BridgeMessages.WithLabelValues(source, "applied").Inc()
	return nil
}

func (s *Subscriber) NatsHandler() natsx.NatsxHandler {
	return func(ctx context.Context, msg natsx.NatsxMessage) error {
		ctx, cancel := context.WithTimeout(ctx, applyTimeout)
		defer cancel()
		return s.Handle(ctx, "nats", msg.Data)
	}
}

func (s *Subscriber) KafkaHandler() kafka.MessageHandler {
	return func(_ string, _, value []byte) error {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		defer cancel()
		return s.Handle(ctx, "kafka", value)
	}
}
