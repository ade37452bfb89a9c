package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PPRealtime/config"
	global "PPRealtime/global"
	gcfg "PPRealtime/global/config"
	"PPRealtime/logger"
	mid "PPRealtime/middleware"
	midsec "PPRealtime/middleware/security"
	"PPRealtime/module/call"
	callsrv "PPRealtime/module/call/service"
	callstore "PPRealtime/module/call/store"
	chatapi "PPRealtime/module/chat"
	chatsrv "PPRealtime/module/chat/service"
	chatstore "PPRealtime/module/chat/store"
	"PPRealtime/module/notify"
	"PPRealtime/module/user"
	userstore "PPRealtime/module/user/store"
	"PPRealtime/service/bridge"
	"PPRealtime/service/chat"
	"PPRealtime/service/chat/handlers"
	ka "PPRealtime/service/kafka"
	"PPRealtime/service/metrics"
	"PPRealtime/service/nacos"
	"PPRealtime/service/natsx"
	"PPRealtime/tools/errs"
	"PPRealtime/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthService = "gateway.Realtime"

// directory 持久化侧的只读视图，按 store.user_store 选择实现
type directory struct {
	users  chat.UserDirectory
	groups chat.GroupDirectory
	sinks  []chat.PresenceSink
	pool   *pgxpool.Pool
}

func (d *directory) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

func main() {
	cfg := gcfg.Load()
	global.ConfigLogger(&cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) 远端配置（可选），覆盖默认值与环境变量
	var naming *nacos.Registry
	if cfg.Nacos.Addr != "" {
		naming = configNacos(ctx, &cfg)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", zap.Error(err))
		os.Exit(1)
	}
	global.ConfigIds(&cfg)

	// 2) 存储
	db, keeper, err := global.ConfigMgo(ctx, &cfg, 15*time.Second)
	if err != nil {
		logger.Error("mongo init failed", zap.Error(err))
		os.Exit(1)
	}
	dir, err := buildDirectory(ctx, &cfg, db)
	if err != nil {
		logger.Error("user directory init failed", zap.Error(err))
		os.Exit(1)
	}
	defer dir.Close()

	rp, err := global.ConfigRedis(ctx, &cfg)
	if err != nil {
		logger.Warn("redis presence disabled", zap.Error(err))
	} else if rp != nil {
		dir.sinks = append(dir.sinks, rp)
		defer rp.Close()
	}

	// 3) 网关
	jwtOpts := security.DefaultOptions([]byte(cfg.Auth.JwtSecret))
	jwtOpts.Alg = cfg.Auth.JwtAlg
	verifier := chat.NewVerifier(jwtOpts, dir.users, cfg.Auth.LookupTimeout)

	kb, err := global.ConfigKafka(&cfg)
	if err != nil {
		logger.Warn("kafka disabled", zap.Error(err))
	}
	if kb != nil {
		defer kb.Close()
		if kb.Cfg.PresenceTopic != "" {
			dir.sinks = append(dir.sinks, ka.NewPresenceProducer(kb.Producer, kb.Cfg.PresenceTopic, cfg.GatewayID, false))
		}
	}

	opts := []chat.Option{chat.WithPresenceSinks(dir.sinks...)}
	if cfg.Store.StrictGroupJoin && dir.groups != nil {
		opts = append(opts, chat.WithGroupDirectory(dir.groups))
	}
	srv := chat.NewServer(chat.ServerConf{
		GatewayID:     cfg.GatewayID,
		AuthTimeout:   cfg.Auth.Timeout,
		LookupTimeout: cfg.Auth.LookupTimeout,
		Conn: chat.ConnConf{
			SendQueue:      cfg.Conn.SendQueue,
			WriteWait:      cfg.Conn.WriteWait,
			PingInterval:   cfg.Conn.PingInterval,
			PongWait:       cfg.Conn.PongWait,
			MaxMessageSize: cfg.Conn.MaxMessageSize,
		},
	}, verifier, opts...)
	srv.Disp().Register(handlers.All()...)

	// 总线上的通知交给本进程网关
	sub := bridge.NewSubscriber(srv)
	if kb != nil {
		kb.Consume(ctx, sub)
	}
	nm, err := global.ConfigNats(&cfg, sub)
	if err != nil {
		logger.Warn("nats disabled", zap.Error(err))
	}
	if nm != nil {
		defer nm.Close()
	}

	// 4) HTTP
	if !logger.DebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	mid.Manager().Add(mid.AccessLog())
	mid.Manager().Add(mid.Origin(cfg.AllowedOrigins))
	r.Use(mid.Manager().Use())

	mid.GET(r, "/ws", srv.HandleWS, mid.RouteOpt{IsAuth: true})
	r.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok", "gateway": cfg.GatewayID, "sessions": srv.Sessions().Len()}
		if keeper != nil {
			body["mongo"] = keeper.Healthy()
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/metrics", metrics.Handler())

	var presence user.PresenceReader = srv
	if rp != nil {
		presence = rp
	}
	registerAPI(r, jwtOpts, db, dir, presence, collaboratorNotifier(srv, nm, kb))

	hs := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	go func() {
		logger.Info("[HTTP] listening", zap.String("addr", hs.Addr), zap.String("gateway", cfg.GatewayID))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[HTTP] server failed", zap.Error(err))
			stop()
		}
	}()

	gs, hsrv := serveGrpcHealth(cfg.GrpcPort)

	if naming != nil {
		if err := naming.Register(); err != nil {
			logger.Warn("nacos register failed", zap.Error(err))
			naming = nil
		}
	}

	<-ctx.Done()
	logger.Info("shutting down", zap.String("gateway", cfg.GatewayID))

	if naming != nil {
		_ = naming.Deregister()
	}
	if hsrv != nil {
		hsrv.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		logger.Warn("[HTTP] shutdown", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("[WS] shutdown", zap.Error(err))
	}
	if gs != nil {
		gs.GracefulStop()
	}
}

// configNacos 拉取并监听远端配置；naming 服务名为空时不注册实例
func configNacos(ctx context.Context, cfg *gcfg.AppConfig) *nacos.Registry {
	opts := nacos.Options{
		Addr:      cfg.Nacos.Addr,
		Port:      cfg.Nacos.Port,
		Namespace: cfg.Nacos.Namespace,
		Username:  cfg.Nacos.Username,
		Password:  cfg.Nacos.Password,
	}
	cc, err := nacos.NewConfigClient(opts)
	if err != nil {
		logger.Warn("nacos config disabled", zap.Error(err))
	} else if err := config.StartNacosWatcher(ctx, cc, cfg.Nacos.DataID, cfg.Nacos.Group); err != nil {
		logger.Warn("nacos watcher failed", zap.Error(err))
	} else {
		*cfg = gcfg.Current()
	}

	if cfg.Nacos.Service == "" {
		return nil
	}
	nc, err := nacos.NewNamingClient(opts)
	if err != nil {
		logger.Warn("nacos naming disabled", zap.Error(err))
		return nil
	}
	return nacos.NewRegistry(nc, cfg.Nacos.Service, localIP(), uint64(cfg.Port), map[string]string{
		"gatewayId": cfg.GatewayID,
		"grpcPort":  fmt.Sprint(cfg.GrpcPort),
	})
}

func buildDirectory(ctx context.Context, cfg *gcfg.AppConfig, db *mongo.Database) (*directory, error) {
	d := &directory{}
	switch cfg.Store.UserStore {
	case "postgres":
		pool, err := userstore.OpenPostgres(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		pg := userstore.NewPostgres(pool)
		d.pool = pool
		d.users = pg
		d.groups = pg
		d.sinks = append(d.sinks, pg)
	case "mongo":
		if db == nil {
			return nil, errs.ErrArgs.WrapMsg("user_store=mongo requires store.mongo_uri")
		}
		d.users = userstore.NewMongo(db)
		d.groups = chatstore.NewMongo(db)
	}
	return d, nil
}

// collaboratorNotifier 配了总线就走总线，所有网关实例都能收到；否则直接投递到本进程
func collaboratorNotifier(srv *chat.Server, nm *natsx.NatsManager, kb *global.KafkaBundle) notify.Notifier {
	switch {
	case nm != nil:
		return bridge.NewPublisher(global.NatsNotifySink(nm))
	case kb != nil:
		return bridge.NewPublisher(bridge.KafkaSink{P: kb.Producer, Topic: kb.Cfg.NotifyTopic})
	}
	return srv
}

// registerAPI 在线查询总是挂上；消息和通话接口需要 mongo
func registerAPI(r *gin.Engine, jwtOpts security.Options, db *mongo.Database, dir *directory, presence user.PresenceReader, n notify.Notifier) {
	api := r.Group("/api", midsec.RequireUser(midsec.DefaultOptions(), func(token string) (string, error) {
		claims, err := security.Verify(jwtOpts, token)
		if err != nil {
			return "", err
		}
		return claims.Identity(), nil
	}))
	user.NewHandler(presence).Register(api)
	if db == nil {
		return
	}

	finder := dir.users
	if finder == nil {
		finder = userstore.NewMongo(db)
	}
	msgStore := chatstore.NewMongo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := msgStore.EnsureIndexes(ctx); err != nil {
		logger.Warn("ensure message indexes failed", zap.Error(err))
	}
	cancel()

	chatapi.NewHandler(chatsrv.NewMessageService(msgStore, finder, n)).Register(api)
	call.NewHandler(callsrv.NewCallService(callstore.NewMongo(db), finder, n)).Register(api)
}

func serveGrpcHealth(port int) (*grpc.Server, *health.Server) {
	if port <= 0 {
		return nil, nil
	}
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Warn("[gRPC] listen failed", zap.Int("port", port), zap.Error(err))
		return nil, nil
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	go func() {
		logger.Info("[gRPC] listening", zap.String("addr", lis.Addr().String()))
		if err := gs.Serve(lis); err != nil {
			logger.Warn("[gRPC] serve stopped", zap.Error(err))
		}
	}()
	return gs, hs
}

func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}
