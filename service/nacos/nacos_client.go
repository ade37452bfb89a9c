package nacos

import (
	"PPRealtime/tools/errs"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

type Options struct {
	Addr      string
	Port      uint64
	Namespace string
	Username  string
	Password  string
}

func NewConfigClient(o Options) (config_client.IConfigClient, error) {
	client, err := clients.NewConfigClient(vo.NacosClientParam{
		ClientConfig:  getClientConfig(o),
		ServerConfigs: getServerConfig(o),
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "create nacos config client failed", "addr", o.Addr)
	}
	return client, nil
}

func NewNamingClient(o Options) (naming_client.INamingClient, error) {
	client, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  getClientConfig(o),
		ServerConfigs: getServerConfig(o),
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "create nacos naming client failed", "addr", o.Addr)
	}
	return client, nil
}

func getServerConfig(o Options) []constant.ServerConfig {
	return []constant.ServerConfig{
		*constant.NewServerConfig(o.Addr, o.Port),
	}
}

func getClientConfig(o Options) *constant.ClientConfig {
	return constant.NewClientConfig(
		constant.WithNamespaceId(o.Namespace),
		constant.WithTimeoutMs(5000),
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogLevel("warn"),
		constant.WithCacheDir("nacos/cache"),
		constant.WithLogDir("nacos/log"),
		constant.WithUsername(o.Username),
		constant.WithPassword(o.Password),
	)
}
