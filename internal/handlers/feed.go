package handlers

import (
	"net/http"
	"socialnet/internal/middleware"
	"socialnet/internal/services"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feed *services.FeedService
}

func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// Home 首页：登录后只看自己和关注的人，未登录看全部
func (h *FeedHandler) Home(c *gin.Context) {
	page, err := h.feed.Build(c.Request.Context(), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		handleError(c, err, "页面不存在")
		return
	}

	Render(c, http.StatusOK, "feed/home.html", gin.H{
		"Title": "首页",
		"Page":  page,
	})
}
