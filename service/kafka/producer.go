package kafka

import (
	"strings"
	"time"

	"PPRealtime/tools/errs"

	"github.com/Shopify/sarama"
)

func BuildBaseConfig(c *Config) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = c.KafkaVersion

	// Producer
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	retries := c.ProducerRetries
	if retries <= 0 {
		retries = 1
	}
	cfg.Producer.Retry.Max = retries
	cfg.Producer.Partitioner = sarama.NewHashPartitioner // ★ 关键：Key 控制分区，同一用户的事件保持有序
	switch strings.ToLower(c.ProducerCompression) {
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		cfg.Producer.Compression = sarama.CompressionNone
	}

	// Consumer
	switch strings.ToLower(c.ConsumerInitialOffset) {
	case "oldest":
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	// Net
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

// NewClient 建一个共享 client，producer / admin 都从它派生
func NewClient(c *Config) (sarama.Client, error) {
	client, err := sarama.NewClient(c.Brokers, BuildBaseConfig(c))
	if err != nil {
		return nil, errs.WrapMsg(err, "kafka client failed", "brokers", c.Brokers)
	}
	return client, nil
}

// Producer 同步生产者的薄封装
type Producer struct {
	sp sarama.SyncProducer
}

func NewProducer(sp sarama.SyncProducer) *Producer {
	return &Producer{sp: sp}
}

// NewProducerFromClient == 同步生产者 ==
func NewProducerFromClient(client sarama.Client) (*Producer, error) {
	sp, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		return nil, errs.WrapMsg(err, "kafka sync producer failed")
	}
	return &Producer{sp: sp}, nil
}

// SendSync key 为空时走随机分区
func (p *Producer) SendSync(topic, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	if _, _, err := p.sp.SendMessage(msg); err != nil {
		return errs.WrapMsg(err, "kafka send failed", "topic", topic)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.sp.Close()
}
