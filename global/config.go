package global

import (
	"context"
	"time"

	"PPRealtime/data/database/mgo/mongoutil"
	gcfg "PPRealtime/global/config"
	"PPRealtime/logger"
	"PPRealtime/service/bridge"
	ka "PPRealtime/service/kafka"
	mgoSrv "PPRealtime/service/mgo"
	"PPRealtime/service/natsx"
	"PPRealtime/service/storage"
	redis "PPRealtime/service/storage/redis"
	ids "PPRealtime/tools/ids"

	sarama "github.com/Shopify/sarama"
	"github.com/golang/glog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const natsNotifyBiz = "gateway.notify"

func ConfigIds(c *gcfg.AppConfig) {
	ids.SetNodeID(c.NodeID)
}

func ConfigLogger(c *gcfg.AppConfig) {
	logger.Setup(c.Log.Level, logger.FileOptions{
		Path:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	})
}

// ConfigRedis 未配置地址时返回 (nil, nil)，网关不镜像在线状态
func ConfigRedis(ctx context.Context, c *gcfg.AppConfig) (*storage.RedisPresence, error) {
	if c.Redis.Addr == "" {
		return nil, nil
	}
	rdb, err := redis.Open(ctx, redis.Config{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		PoolSize: c.Redis.PoolSize,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewRedisPresence(rdb, c.GatewayID, c.Redis.PresenceTTL), nil
}

// ConfigMgo 后台连接，驱动负责掉线重连；这里最多等 wait 拿到首个可用连接
func ConfigMgo(ctx context.Context, c *gcfg.AppConfig, wait time.Duration) (*mongo.Database, *mgoSrv.Keeper, error) {
	if c.Store.MongoURI == "" {
		return nil, nil, nil
	}
	k, err := mgoSrv.NewKeeper(mongoutil.Config{
		Uri:         c.Store.MongoURI,
		Database:    c.Store.MongoDatabase,
		MaxPoolSize: c.Store.MongoPoolSize,
		Username:    c.Store.MongoUsername,
		Password:    c.Store.MongoPassword,
	})
	if err != nil {
		return nil, nil, err
	}
	k.Start(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	db, err := k.Wait(waitCtx)
	if err != nil {
		return nil, nil, err
	}
	return db, k, nil
}

// KafkaBundle 网关用到的 kafka 资源；Close 在停机时调用
type KafkaBundle struct {
	Cfg      ka.Config
	Client   sarama.Client
	Producer *ka.Producer
}

func (b *KafkaBundle) Close() {
	if b == nil {
		return
	}
	if b.Producer != nil {
		_ = b.Producer.Close()
	}
	if b.Client != nil {
		_ = b.Client.Close()
	}
}

// ConfigKafka 建 topic 与 producer；未配置 brokers 时返回 (nil, nil)。
// 通知 topic 的消费在网关就绪后由 Consume 启动。
func ConfigKafka(c *gcfg.AppConfig) (*KafkaBundle, error) {
	if len(c.Kafka.Brokers) == 0 {
		return nil, nil
	}
	kc := ka.DefaultConfig()
	kc.Brokers = c.Kafka.Brokers
	kc.NotifyTopic = c.Kafka.NotifyTopic
	kc.PresenceTopic = c.Kafka.PresenceTopic
	kc.AutoCreateTopicsOnStart = c.Kafka.AutoCreate
	// 每个网关实例都要收到全部通知，group 按网关区分
	kc.GroupID = c.Kafka.GroupID + "-" + c.GatewayID

	topics := []string{kc.NotifyTopic}
	if kc.PresenceTopic != "" {
		topics = append(topics, kc.PresenceTopic)
	}
	glog.Infof("[Kafka] topics=%v group=%s", topics, kc.GroupID)

	if kc.AutoCreateTopicsOnStart {
		admin, err := sarama.NewClusterAdmin(kc.Brokers, ka.BuildBaseConfig(&kc))
		if err != nil {
			return nil, err
		}
		err = ka.EnsureTopics(admin, topics, &kc)
		_ = admin.Close()
		if err != nil {
			return nil, err
		}
	}

	client, err := ka.NewClient(&kc)
	if err != nil {
		return nil, err
	}
	producer, err := ka.NewProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &KafkaBundle{Cfg: kc, Client: client, Producer: producer}, nil
}

// Consume 后台消费通知 topic，直到 ctx 结束
func (b *KafkaBundle) Consume(ctx context.Context, sub *bridge.Subscriber) {
	ka.RegisterHandler(b.Cfg.NotifyTopic, sub.KafkaHandler())
	cfg := b.Cfg
	go func() {
		if err := ka.StartConsumerGroup(ctx, &cfg, []string{cfg.NotifyTopic}); err != nil {
			glog.Errorf("[Kafka] consumer group stopped: %v", err)
			return
		}
		glog.Infof("[Kafka] context done, consumer group exited")
	}()
}

// ConfigNats 订阅通知 subject；不设 Queue，每个网关实例都收一份
func ConfigNats(c *gcfg.AppConfig, sub *bridge.Subscriber) (*natsx.NatsManager, error) {
	if len(c.Nats.Servers) == 0 {
		return nil, nil
	}
	idem := natsx.NewMemIdem(2 * time.Minute)
	m, err := natsx.NewNatsManager(natsx.NatsxConfig{
		Servers:  c.Nats.Servers,
		Name:     c.GatewayID,
		User:     c.Nats.User,
		Password: c.Nats.Password,
	}, natsx.NatsxIdemMiddleware(idem, 2*time.Minute))
	if err != nil {
		idem.Close()
		return nil, err
	}

	durable := c.Nats.Durable
	if durable != "" {
		durable = durable + "_" + c.GatewayID
	}
	if err := m.RegisterRoute(natsx.NatsxRoute{
		Biz:     natsNotifyBiz,
		Subject: c.Nats.Subject,
		Mode:    natsx.ParseMode(c.Nats.Mode),
		Durable: durable,
	}); err != nil {
		_ = m.Close()
		idem.Close()
		return nil, err
	}
	if err := m.Subscribe(natsNotifyBiz, sub.NatsHandler()); err != nil {
		_ = m.Close()
		idem.Close()
		return nil, err
	}
	logger.Info("[NATS] notify subscribed", zap.String("subject", c.Nats.Subject), zap.String("mode", c.Nats.Mode))
	return m, nil
}

// NatsNotifySink 给本进程的业务服务用，把通知发到总线
func NatsNotifySink(m *natsx.NatsManager) bridge.Sink {
	return bridge.NatsSink{
		Pub: &natsx.NatsxSyncPublisher{P: m.Producer(), Retries: 2, Backoff: 200 * time.Millisecond},
		Biz: natsNotifyBiz,
	}
}
