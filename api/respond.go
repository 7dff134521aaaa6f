package api

import "github.com/gin-gonic/gin"

// RespondSuccess 统一成功返回体
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(200, gin.H{
		"status": "success",
		"data":   data,
	})
}

// RespondError 统一错误返回体
func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"status":  "error",
		"message": message,
	})
}
