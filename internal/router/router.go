package router

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"socialnet/internal/config"
	"socialnet/internal/handlers"
	"socialnet/internal/logging"
	"socialnet/internal/metrics"
	"socialnet/internal/middleware"
	"socialnet/internal/services"
	"socialnet/internal/storage"
	"socialnet/internal/utils"
	"socialnet/web"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 构建路由所需的外部依赖
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Storage storage.Storage
	Logger  *zap.Logger
}

// New 组装中间件、模板和全部路由
func New(d Deps) (*gin.Engine, error) {
	cfg := d.Config

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("notblank", utils.ValidateNotBlank); err != nil {
			return nil, fmt.Errorf("register validator: %w", err)
		}
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes()
	r.Use(
		middleware.Recovery(d.Logger),
		logging.RequestLogger(d.Logger),
		metrics.Middleware(),
	)

	templates, staticFS, err := assets(cfg)
	if err != nil {
		return nil, err
	}
	renderer, err := loadTemplates(templates)
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer

	// 不需要会话的路由
	r.GET("/metrics", metrics.Handler())
	r.StaticFS("/static", staticFS)
	if cfg.MediaBackend == "local" {
		r.Static(cfg.MediaURLPrefix, cfg.MediaLocalPath)
	}

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// Services
	userService := services.NewUserService(d.DB)
	postService := services.NewPostService(d.DB, d.Storage, cfg.MaxUploadBytes(), d.Logger)
	feedService := services.NewFeedService(d.DB)
	likeService := services.NewLikeService(d.DB)
	followService := services.NewFollowService(d.DB)
	commentService := services.NewCommentService(d.DB)

	r.Use(
		gzip.Gzip(gzip.DefaultCompression),
		sessions.Sessions(cfg.SessionName, store),
		middleware.LoadUser(userService),
	)

	RegisterRoutes(r, Handlers{
		Auth: handlers.NewAuthHandler(userService, services.NewCaptchaService()),
		Feed: handlers.NewFeedHandler(feedService),
		Post: handlers.NewPostHandler(postService, commentService, likeService),
		User: handlers.NewUserHandler(userService, postService, followService),
	})

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "页面不存在")
	})

	return r, nil
}

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth *handlers.AuthHandler
	Feed *handlers.FeedHandler
	Post *handlers.PostHandler
	User *handlers.UserHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	getPost := []string{http.MethodGet, http.MethodPost}

	// 公共路由 (Public Routes)
	r.GET("/", h.Feed.Home)                   // 首页
	r.GET("/post/:id/", h.Post.Detail)        // 帖子详情
	r.GET("/user/:username/", h.User.Profile) // 用户主页

	accounts := r.Group("/accounts")
	{
		accounts.GET("/signup/", h.Auth.ShowRegister)      // 注册页面
		accounts.POST("/signup/", h.Auth.Register)         // 提交注册
		accounts.GET("/login/", h.Auth.ShowLogin)          // 登录页面
		accounts.POST("/login/", h.Auth.Login)             // 提交登录
		accounts.Match(getPost, "/logout/", h.Auth.Logout) // 退出登录
	}

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/post/create/", h.Post.Create)                     // 发布帖子
		authorized.POST("/post/:id/", h.Post.CreateComment)                 // 发表评论
		authorized.GET("/post/:id/edit/", h.Post.ShowEdit)                  // 编辑页面
		authorized.POST("/post/:id/edit/", h.Post.Update)                   // 提交编辑
		authorized.GET("/post/:id/delete/", h.Post.ShowDelete)              // 删除确认页
		authorized.POST("/post/:id/delete/", h.Post.Delete)                 // 确认删除
		authorized.Match(getPost, "/post/:id/like/", h.Post.Like)           // 点赞/取消点赞
		authorized.Match(getPost, "/user/:username/follow/", h.User.Follow) // 关注/取消关注
	}
}

// assets 返回模板和静态文件的来源：配置了目录就读磁盘，否则用内嵌文件
func assets(cfg *config.Config) (fs.FS, http.FileSystem, error) {
	var templates fs.FS
	if cfg.TemplatesDir != "" {
		templates = os.DirFS(cfg.TemplatesDir)
	} else {
		sub, err := fs.Sub(web.FS, "templates")
		if err != nil {
			return nil, nil, err
		}
		templates = sub
	}

	if cfg.StaticDir != "" {
		return templates, gin.Dir(cfg.StaticDir, false), nil
	}
	sub, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, nil, err
	}
	return templates, http.FS(sub), nil
}
