package middleware

import (
	"net/http"
	"net/url"
	"socialnet/internal/logging"
	"socialnet/internal/models"
	"socialnet/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CheckUserKey  = "user"
	SessionUserID = "user_id"
	LoginPath     = "/accounts/login/"
)

// CurrentUser 返回当前登录用户，未登录为 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserID).(uint)
		if !ok {
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		switch {
		case err == nil:
			c.Set(CheckUserKey, user)
			c.Set(logging.UserIDKey, user.ID)
		case services.GetErrorCode(err) == services.CodeNotFound:
			// 用户已被删除，清掉失效的会话
			session.Delete(SessionUserID)
			session.Save()
		default:
			zap.L().Error("load session user", zap.Uint("user_id", userID), zap.Error(err))
		}
		c.Next()
	}
}
