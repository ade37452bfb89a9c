package mongoutil

import (
	"context"
	"errors"

	"PPRealtime/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongo 服务端错误码：认证失败重试没有意义
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

func clientOptions(c *Config) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.Uri).
		SetMaxPoolSize(uint64(c.MaxPoolSize)).
		SetServerSelectionTimeout(c.DialTimeout).
		SetAppName(defaultAppName)
	// 单独给了账号时覆盖 URI 里的认证
	if c.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   c.Username,
			Password:   c.Password,
			AuthSource: c.AuthSource,
		})
	}
	return opts
}

// Dial 建一次连接并 ping，失败会释放客户端。c 需先 Normalize
func Dial(ctx context.Context, c *Config) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, clientOptions(c))
	if err != nil {
		return nil, errs.WrapMsg(err, "mongo connect failed", "database", c.Database)
	}
	pingCtx, cancel := context.WithTimeout(ctx, c.DialTimeout)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, errs.WrapMsg(err, "mongo ping failed", "database", c.Database)
	}
	return cli, nil
}

// Retryable 调用方已取消或认证失败时不再重连
func Retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code != codeUnauthorized && cmdErr.Code != codeAuthenticationFailed
	}
	return true
}
