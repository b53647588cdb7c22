package handlers

import (
	"net/http"
	"socialnet/internal/middleware"
	"socialnet/internal/services"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const captchaSessionKey = "captcha_answer"

type AuthHandler struct {
	users          *services.UserService
	captchaService *services.CaptchaService
}

func NewAuthHandler(users *services.UserService, captcha *services.CaptchaService) *AuthHandler {
	return &AuthHandler{users: users, captchaService: captcha}
}

type signupForm struct {
	Username string `form:"username" binding:"notblank,max=30"`
	Password string `form:"password" binding:"required"`
	Captcha  string `form:"captcha"`
}

type loginForm struct {
	Username string `form:"username" binding:"notblank"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

// renderRegister 每次渲染注册页都换一道新题
func (h *AuthHandler) renderRegister(c *gin.Context, code int, obj gin.H) {
	captcha := h.captchaService.Generate()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, captcha.Answer)
	session.Save()

	if obj == nil {
		obj = gin.H{}
	}
	obj["Title"] = "注册"
	obj["Captcha"] = captcha.Question
	Render(c, code, "auth/register.html", obj)
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	h.renderRegister(c, http.StatusOK, nil)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderRegister(c, http.StatusBadRequest, gin.H{"Error": "请填写用户名和密码", "Username": form.Username})
		return
	}

	// Validate Captcha
	session := sessions.Default(c)
	expected, ok := session.Get(captchaSessionKey).(int)
	session.Delete(captchaSessionKey)
	session.Save()
	if !ok || !(services.Captcha{Answer: expected}).Verify(form.Captcha) {
		h.renderRegister(c, http.StatusBadRequest, gin.H{"Error": "验证码错误", "Username": form.Username})
		return
	}

	user, err := h.users.Register(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		switch services.GetErrorCode(err) {
		case services.CodeConflict:
			h.renderRegister(c, http.StatusConflict, gin.H{"Error": "用户名已被占用", "Username": form.Username})
		case services.CodeInvalidInput:
			h.renderRegister(c, http.StatusBadRequest, gin.H{
				"Error":    "用户名需为 3-30 位字母、数字或 . _ -，密码至少 6 位",
				"Username": form.Username,
			})
		default:
			handleError(c, err, "")
		}
		return
	}

	session.Set(middleware.SessionUserID, user.ID)
	session.AddFlash("注册成功，欢迎 " + user.Username)
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Title": "登录", "Next": c.Query("next")})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		Render(c, http.StatusBadRequest, "auth/login.html", gin.H{
			"Title": "登录", "Error": "请填写用户名和密码", "Next": form.Next, "Username": form.Username,
		})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if services.GetErrorCode(err) != services.CodeUnauthorized {
			handleError(c, err, "")
			return
		}
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{
			"Title": "登录", "Error": "用户名或密码错误", "Next": form.Next, "Username": form.Username,
		})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserID, user.ID)
	session.Save()

	c.Redirect(http.StatusFound, nextPath(form.Next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

// nextPath 登录后跳转地址，只允许站内相对路径
func nextPath(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
