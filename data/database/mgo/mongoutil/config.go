package mongoutil

import (
	"fmt"
	"strings"
	"time"

	"PPRealtime/tools/errs"
)

const (
	defaultMaxPoolSize   = 100
	defaultDialTimeout   = 5 * time.Second
	defaultAppName       = "PPRealtime"
	defaultAuthSourceKey = "authSource"
)

// Config MongoDB 连接参数；Uri 优先，否则由 Address + 账号拼接
type Config struct {
	Uri         string
	Address     []string
	Database    string
	Username    string
	Password    string
	AuthSource  string
	MaxPoolSize int
	DialTimeout time.Duration
}

// Normalize 校验并补默认值，Uri 为空时会被填上
func (c *Config) Normalize() error {
	if c.Uri == "" && len(c.Address) == 0 {
		return errs.ErrArgs.WrapMsg("mongo uri or address is required")
	}
	if c.Database == "" {
		return errs.ErrArgs.WrapMsg("mongo database is required")
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = defaultMaxPoolSize
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.Uri == "" {
		c.Uri = c.addressURI()
	}
	return nil
}

// authSource 未指定时用业务库
func (c *Config) addressURI() string {
	src := c.AuthSource
	if src == "" {
		src = c.Database
	}
	cred := ""
	if c.Username != "" && c.Password != "" {
		cred = c.Username + ":" + c.Password + "@"
	}
	return fmt.Sprintf("mongodb://%s%s/%s?%s=%s&maxPoolSize=%d",
		cred, strings.Join(c.Address, ","), c.Database, defaultAuthSourceKey, src, c.MaxPoolSize)
}
