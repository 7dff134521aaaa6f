package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cosphere-app/turnguard/database/accounts"
	"github.com/cosphere-app/turnguard/database/models"
)

const ContextUserKey = "admin_user"

// SessionToken 从请求中取会话 token（Authorization: Bearer 或 cookie）
func SessionToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if token, err := c.Cookie("session_token"); err == nil {
		return token
	}
	return ""
}

// AdminAuthRequired 管理端鉴权中间件，把解析出的用户放进上下文
func AdminAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			RespondError(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		user, err := accounts.GetUserBySession(token)
		if err != nil {
			RespondError(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentAdminID 取当前管理员 ID，未登录返回空串
func CurrentAdminID(c *gin.Context) string {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return ""
	}
	if user, ok := v.(*models.User); ok {
		return user.ID
	}
	return ""
}
