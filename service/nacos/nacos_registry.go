package nacos

import (
	"PPRealtime/logger"
	"PPRealtime/tools/errs"

	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"go.uber.org/zap"
)

// Registry 把网关实例登记到 nacos naming，供接入层发现可用网关
type Registry struct {
	ServiceName string
	Port        uint64
	IP          string
	Group       string
	Metadata    map[string]string

	client naming_client.INamingClient
}

func NewRegistry(client naming_client.INamingClient, serviceName, ip string, port uint64, meta map[string]string) *Registry {
	return &Registry{
		ServiceName: serviceName,
		Port:        port,
		IP:          ip,
		Group:       "DEFAULT_GROUP",
		Metadata:    meta,
		client:      client,
	}
}

// Register 临时实例，进程退出后由 nacos 心跳超时摘除
func (r *Registry) Register() error {
	ok, err := r.client.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          r.IP,
		Port:        r.Port,
		ServiceName: r.ServiceName,
		GroupName:   r.Group,
		ClusterName: "DEFAULT",
		Weight:      1,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
		Metadata:    r.Metadata,
	})
	if err != nil {
		return errs.WrapMsg(err, "nacos register failed", "service", r.ServiceName)
	}
	if !ok {
		return errs.New("nacos register returned false", "service", r.ServiceName)
	}
	logger.Info("[Nacos] registered", zap.String("service", r.ServiceName), zap.String("ip", r.IP), zap.Uint64("port", r.Port))
	return nil
}

// Deregister 优雅下线时主动摘除
func (r *Registry) Deregister() error {
	_, err := r.client.DeregisterInstance(vo.DeregisterInstanceParam{
		Ip:          r.IP,
		Port:        r.Port,
		ServiceName: r.ServiceName,
		GroupName:   r.Group,
		Cluster:     "DEFAULT",
		Ephemeral:   true,
	})
	return errs.WrapMsg(err, "nacos deregister failed", "service", r.ServiceName)
}
