package kafka

import "github.com/Shopify/sarama"

// Config 网关用到的 kafka 配置，默认值见 DefaultConfig
type Config struct {
	Brokers                 []string
	GroupID                 string
	NotifyTopic             string // 跨进程推送通知（bridge 消费）
	PresenceTopic           string // 上下线事件（网关生产），为空则不生产
	PartitionsPerTopic      int32
	ReplicationFactor       int16 // 单机=1；生产=3
	ProducerRetries         int
	ProducerCompression     string // none/snappy/lz4/zstd
	ConsumerInitialOffset   string // newest/oldest
	KafkaVersion            sarama.KafkaVersion
	AutoCreateTopicsOnStart bool
}

func DefaultConfig() Config {
	return Config{
		Brokers:                 []string{"127.0.0.1:9092"},
		GroupID:                 "pp-realtime-gateway",
		NotifyTopic:             "gateway-notify",
		PresenceTopic:           "gateway-presence",
		PartitionsPerTopic:      8,
		ReplicationFactor:       1,
		ProducerRetries:         5,
		ProducerCompression:     "snappy",
		ConsumerInitialOffset:   "newest",
		KafkaVersion:            sarama.V2_1_0_0,
		AutoCreateTopicsOnStart: true,
	}
}
