package handlers

import (
	"net/http"
	"net/url"
	"socialnet/internal/middleware"
	"socialnet/internal/services"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	// 取出一次性提示消息
	session := sessions.Default(c)
	if flashes := session.Flashes(); len(flashes) > 0 {
		messages := make([]string, 0, len(flashes))
		for _, f := range flashes {
			if s, ok := f.(string); ok {
				messages = append(messages, s)
			}
		}
		obj["Messages"] = messages
		session.Save()
	}

	c.HTML(code, name, obj)
}

// RenderError 渲染错误页
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Status": code, "Error": message})
}

// handleError 把服务层错误映射为错误页，未预期的错误记日志
func handleError(c *gin.Context, err error, notFound string) {
	code := statusFor(err)
	switch code {
	case http.StatusNotFound:
		RenderError(c, code, notFound)
	case http.StatusInternalServerError:
		zap.L().Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.Error(err)
		RenderError(c, code, "服务器内部错误")
	default:
		RenderError(c, code, err.Error())
	}
}

func statusFor(err error) int {
	switch services.GetErrorCode(err) {
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodeInvalidInput:
		return http.StatusBadRequest
	case services.CodeUnauthorized:
		return http.StatusUnauthorized
	case services.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func addFlash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	session.Save()
}

// safeRedirect 只接受站内地址，其余一律回到首页
func safeRedirect(target, host string) string {
	if target == "" || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil {
		return "/"
	}
	switch {
	case u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, "/"):
		return u.RequestURI()
	case (u.Scheme == "http" || u.Scheme == "https") && u.Host == host:
		return u.RequestURI()
	}
	return "/"
}
