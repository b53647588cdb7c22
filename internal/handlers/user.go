package handlers

import (
	"net/http"
	"net/url"
	"socialnet/internal/middleware"
	"socialnet/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users   *services.UserService
	posts   *services.PostService
	follows *services.FollowService
}

func NewUserHandler(users *services.UserService, posts *services.PostService, follows *services.FollowService) *UserHandler {
	return &UserHandler{users: users, posts: posts, follows: follows}
}

func profilePath(username string) string {
	return "/user/" + url.PathEscape(username) + "/"
}

// Profile - 用户主页 /user/:username/
func (h *UserHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.CurrentUser(c)

	user, err := h.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		handleError(c, err, "用户不存在")
		return
	}

	posts, err := h.posts.ListByAuthor(ctx, user.ID, viewer)
	if err != nil {
		handleError(c, err, "用户不存在")
		return
	}

	followers, following, err := h.follows.Counts(ctx, user.ID)
	if err != nil {
		handleError(c, err, "用户不存在")
		return
	}

	isFollowing := false
	if viewer != nil && viewer.ID != user.ID {
		if isFollowing, err = h.follows.IsFollowing(ctx, viewer.ID, user.ID); err != nil {
			handleError(c, err, "用户不存在")
			return
		}
	}

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":          user.Username + " 的主页",
		"ProfileUser":    user,
		"Posts":          posts,
		"IsSelf":         viewer != nil && viewer.ID == user.ID,
		"IsFollowing":    isFollowing,
		"FollowersCount": followers,
		"FollowingCount": following,
	})
}

// Follow 关注/取消关注 /user/:username/follow/，完成后回到对方主页
func (h *UserHandler) Follow(c *gin.Context) {
	target, _, err := h.follows.Toggle(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"))
	if err != nil {
		handleError(c, err, "用户不存在")
		return
	}
	c.Redirect(http.StatusFound, profilePath(target.Username))
}
