package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cosphere-app/turnguard/database/accounts"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 后台登录，返回会话 token
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		RespondError(c, http.StatusBadRequest, "Invalid request body: Username and password are required")
		return
	}
	user, err := accounts.CheckPassword(req.Username, req.Password)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := accounts.CreateSession(user.ID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	RespondSuccess(c, gin.H{
		"token":    token,
		"username": user.Username,
	})
}

// Logout 注销当前会话
func Logout(c *gin.Context) {
	token := SessionToken(c)
	if token != "" {
		_ = accounts.DeleteSession(token)
	}
	RespondSuccess(c, gin.H{"logout": true})
}
