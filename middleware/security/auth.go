package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// —— context key ——
const PPCtxAuthKey = "authorization" // string

type Options struct {
	HeaderToken               string // 默认 "token"
	QueryToken                string // 默认 "token"，浏览器 WebSocket 设不了 header
	EnableAuthorizationBearer bool   // 默认 true
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "token",
		QueryToken:                "token",
		EnableAuthorizationBearer: true,
	}
}

// ExtractToken 从握手元数据里取凭证：Authorization: Bearer > token header > ?token=
func ExtractToken(r *http.Request, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.EnableAuthorizationBearer {
		if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
			if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
				return strings.TrimSpace(authz[len("bearer "):])
			}
		}
	}
	if opts.HeaderToken != "" {
		if t := strings.TrimSpace(r.Header.Get(opts.HeaderToken)); t != "" {
			return t
		}
	}
	if opts.QueryToken != "" {
		return strings.TrimSpace(r.URL.Query().Get(opts.QueryToken))
	}
	return ""
}

// Middleware 只负责把凭证放进 context，不做拒绝；
// 校验在连接升级之后进行，失败时直接断开，不回传原因
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		if token := ExtractToken(c.Request, opts); token != "" {
			c.Set(PPCtxAuthKey, token)
		}
		c.Next()
	}
}

// TokenFrom 读取 Middleware 放进去的凭证
func TokenFrom(c *gin.Context) string {
	return c.GetString(PPCtxAuthKey)
}
