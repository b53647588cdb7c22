package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 捕获 panic，记录日志并渲染 500 页面
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.HTML(http.StatusInternalServerError, "error.html", gin.H{
					"Status": http.StatusInternalServerError,
					"Error":  "服务器内部错误",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
