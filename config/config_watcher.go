package config

import (
	"context"

	gcfg "PPRealtime/global/config"
	"PPRealtime/logger"
	"PPRealtime/tools/errs"

	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"go.uber.org/zap"
)

// StartNacosWatcher 读取一次远端 yaml 并持续监听，直到 ctx 结束。
// 变更合并到 gcfg.Current()，目前只有日志级别会在运行中生效，其余项下次启动生效。
func StartNacosWatcher(ctx context.Context, client config_client.IConfigClient, dataID, group string) error {
	content, err := client.GetConfig(vo.ConfigParam{DataId: dataID, Group: group})
	if err != nil {
		return errs.WrapMsg(err, "get nacos config failed", "dataId", dataID)
	}
	if err := apply(content); err != nil {
		return err
	}

	param := vo.ConfigParam{
		DataId: dataID,
		Group:  group,
		OnChange: func(namespace, group, dataId, data string) {
			logger.Info("[Nacos] config changed", zap.String("dataId", dataId))
			if err := apply(data); err != nil {
				logger.Warn("[Nacos] ignore bad config", zap.String("dataId", dataId), zap.Error(err))
			}
		},
	}
	if err := client.ListenConfig(param); err != nil {
		return errs.WrapMsg(err, "listen nacos config failed", "dataId", dataID)
	}

	go func() {
		<-ctx.Done()
		_ = client.CancelListenConfig(param)
	}()
	return nil
}

func apply(content string) error {
	c := gcfg.Current()
	if err := gcfg.ApplyYAML(&c, content); err != nil {
		return err
	}
	gcfg.Set(c)
	logger.SetLevel(c.Log.Level)
	return nil
}
