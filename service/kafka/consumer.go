package kafka

import (
	"context"
	"time"

	"PPRealtime/logger"
	"PPRealtime/tools/errs"

	"github.com/Shopify/sarama"
	"github.com/golang/glog"
	"go.uber.org/zap"
)

type ConsumerGroupHandler struct{}

func (h *ConsumerGroupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	logger.Info("[Kafka] consumer group setup", zap.String("member", sess.MemberID()))
	return nil
}

func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	logger.Info("[Kafka] consumer group cleanup")
	return nil
}

func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		dispatch(msg)
		// 推送是尽力而为，处理失败也提交位点，不做重投
		session.MarkMessage(msg, "")
	}
	return nil
}

func dispatch(msg *sarama.ConsumerMessage) {
	handler, err := GetHandler(msg.Topic)
	if err != nil {
		logger.Warn("[Kafka] no handler", zap.String("topic", msg.Topic))
		return
	}
	if err := handler(msg.Topic, msg.Key, msg.Value); err != nil {
		logger.Warn("[Kafka] handler error",
			zap.String("topic", msg.Topic),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
	}
}

// StartConsumerGroup 阻塞运行到 ctx 结束；rebalance 后自动重新 Consume
func StartConsumerGroup(ctx context.Context, c *Config, topics []string) error {
	group, err := sarama.NewConsumerGroup(c.Brokers, c.GroupID, BuildBaseConfig(c))
	if err != nil {
		return errs.WrapMsg(err, "kafka consumer group failed", "group", c.GroupID)
	}
	defer group.Close()

	go func() {
		for err := range group.Errors() {
			glog.Errorf("kafka consumer group %s error: %v", c.GroupID, err)
		}
	}()

	handler := &ConsumerGroupHandler{}
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			glog.Warningf("kafka consume error: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
