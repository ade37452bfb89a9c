package security

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const PPCtxUserKey = "uid"

// VerifyFunc 把令牌解析成用户 id
type VerifyFunc func(token string) (string, error)

// RequireUser HTTP 接口用：凭证无效直接 401，与 /ws 的静默断开不同
func RequireUser(opts *Options, verify VerifyFunc) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := ExtractToken(c.Request, opts)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "token is required"})
			return
		}
		uid, err := verify(token)
		if err != nil || uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "invalid token"})
			return
		}
		c.Set(PPCtxAuthKey, token)
		c.Set(PPCtxUserKey, uid)
		c.Next()
	}
}

func UserFrom(c *gin.Context) string {
	return c.GetString(PPCtxUserKey)
}
