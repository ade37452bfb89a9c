package middleware

import (
	"net/http"

	"PPRealtime/logger"
	"PPRealtime/tools/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===== 统一响应 =====

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "ok", "data": data})
}

// Fail 按 CodeError 的 code 选 http 状态；非 CodeError 一律 500，不外泄细节
func Fail(c *gin.Context, err error) {
	code := errs.Code(err)
	status := httpStatus(code)
	if status == http.StatusInternalServerError {
		logger.Error("[HTTP] internal error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(status, gin.H{"code": errs.ServerInternalError, "msg": "internal error"})
		return
	}
	c.JSON(status, gin.H{"code": code, "msg": err.Error()})
}

func httpStatus(code int) int {
	switch code {
	case errs.ArgsError:
		return http.StatusBadRequest
	case errs.RecordNotFound:
		return http.StatusNotFound
	case errs.ForbiddenCode:
		return http.StatusForbidden
	case errs.UnauthenticatedCode, errs.TokenExpired, errs.TokenMalformed, errs.TokenNotPresent:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
