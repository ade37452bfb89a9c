package config

import "time"

// AppConfig 网关进程的全部配置；mapstructure tag 对应 nacos 上 yaml 的 key
type AppConfig struct {
	Port           int      `mapstructure:"port"`      // http 启动端口（/ws /healthz /metrics）
	GrpcPort       int      `mapstructure:"grpc_port"` // grpc health
	GatewayID      string   `mapstructure:"gateway_id"`
	NodeID         int64    `mapstructure:"node_id"` // 雪花节点号
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	Log   LogConfig   `mapstructure:"log"`
	Auth  AuthConfig  `mapstructure:"auth"`
	Conn  ConnConfig  `mapstructure:"conn"`
	Store StoreConfig `mapstructure:"store"`
	Redis RedisConfig `mapstructure:"redis"`
	Nats  NatsConfig  `mapstructure:"nats"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	Nacos NacosConfig `mapstructure:"nacos"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type AuthConfig struct {
	JwtSecret     string        `mapstructure:"jwt_secret"`
	JwtAlg        string        `mapstructure:"jwt_alg"`
	Timeout       time.Duration `mapstructure:"timeout"`        // 握手鉴权总时长
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"` // 单次账号查询
}

type ConnConfig struct {
	SendQueue      int           `mapstructure:"send_queue"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// StoreConfig 用户目录：postgres | mongo | none
type StoreConfig struct {
	UserStore       string `mapstructure:"user_store"`
	StrictGroupJoin bool   `mapstructure:"strict_group_join"`
	PostgresDSN     string `mapstructure:"postgres_dsn"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MongoUsername   string `mapstructure:"mongo_username"`
	MongoPassword   string `mapstructure:"mongo_password"`
	MongoPoolSize   int    `mapstructure:"mongo_pool_size"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"` // 为空则不镜像在线状态
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
}

type NatsConfig struct {
	Servers  []string `mapstructure:"servers"` // 为空则不订阅
	User     string   `mapstructure:"user"`
	Password string   `mapstructure:"password"`
	Subject  string   `mapstructure:"subject"`
	Mode     string   `mapstructure:"mode"` // core | jetstream
	Durable  string   `mapstructure:"durable"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"` // 为空则不启用
	GroupID       string   `mapstructure:"group_id"`
	NotifyTopic   string   `mapstructure:"notify_topic"`
	PresenceTopic string   `mapstructure:"presence_topic"`
	AutoCreate    bool     `mapstructure:"auto_create"`
}

type NacosConfig struct {
	Addr      string `mapstructure:"addr"` // 为空则不启用
	Port      uint64 `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DataID    string `mapstructure:"data_id"`
	Group     string `mapstructure:"group"`
	Service   string `mapstructure:"service"` // 注册到 naming 的服务名，为空则不注册
}
