package middleware

import (
	"strings"

	"english_tutor_backend/internal/config"
	"english_tutor_backend/internal/util"
	"english_tutor_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验 Bearer 令牌，并将 claims 写入上下文
func AuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.Secret, cfg.Audience)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

// StudentKey 从已认证请求取出学生 ID，供按学生限流使用
func StudentKey(c *gin.Context) string {
	v, ok := c.Get(util.ContextUserKey)
	if !ok {
		return ""
	}
	claims, ok := v.(*util.Claims)
	if !ok {
		return ""
	}
	return claims.StudentID()
}
