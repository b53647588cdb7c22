package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"socialnet/internal/middleware"
	"socialnet/internal/services"
	"socialnet/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	likes    *services.LikeService
}

func NewPostHandler(posts *services.PostService, comments *services.CommentService, likes *services.LikeService) *PostHandler {
	return &PostHandler{posts: posts, comments: comments, likes: likes}
}

type commentForm struct {
	Content string `form:"content" binding:"notblank,max=1000"`
}

func postPath(id uint) string {
	return fmt.Sprintf("/post/%d/", id)
}

// postID 解析路由中的帖子 ID，非法时直接 404
func postID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "帖子不存在")
	}
	return id, ok
}

// postInput 读取发帖/编辑表单
func postInput(c *gin.Context) (services.PostInput, error) {
	in := services.PostInput{
		Content:     c.PostForm("content"),
		RemoveImage: c.PostForm("remove_image") != "",
	}
	file, err := c.FormFile("image")
	switch {
	case err == nil:
		in.Image = file
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return in, services.WrapError(services.CodeInvalidInput, "read upload", err)
	}
	return in, nil
}

// Create 发布帖子 POST /post/create/
func (h *PostHandler) Create(c *gin.Context) {
	in, err := postInput(c)
	if err == nil {
		_, err = h.posts.Create(c.Request.Context(), middleware.CurrentUser(c), in)
	}
	if err != nil {
		if services.GetErrorCode(err) != services.CodeInvalidInput {
			handleError(c, err, "帖子不存在")
			return
		}
		addFlash(c, "发布失败：内容和图片至少填写一项，图片仅支持 jpg/png/gif/webp")
		c.Redirect(http.StatusFound, "/")
		return
	}

	addFlash(c, "帖子已发布")
	c.Redirect(http.StatusFound, "/")
}

// Detail 帖子详情和评论 GET /post/:id/
func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	viewer := middleware.CurrentUser(c)
	post, err := h.posts.Get(c.Request.Context(), id, viewer)
	if err != nil {
		handleError(c, err, "帖子不存在")
		return
	}

	comments, err := h.comments.ListForPost(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, "帖子不存在")
		return
	}

	Render(c, http.StatusOK, "post/detail.html", gin.H{
		"Title":    post.User.Username + " 的帖子",
		"Post":     post,
		"Comments": comments,
		"IsOwner":  viewer != nil && viewer.ID == post.UserID,
	})
}

// CreateComment 发表评论 POST /post/:id/
func (h *PostHandler) CreateComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		addFlash(c, "评论不能为空")
		c.Redirect(http.StatusFound, postPath(id))
		return
	}

	_, err := h.comments.Create(c.Request.Context(), middleware.CurrentUser(c), id, form.Content)
	if err != nil {
		if services.GetErrorCode(err) == services.CodeInvalidInput {
			addFlash(c, "评论不能为空")
			c.Redirect(http.StatusFound, postPath(id))
			return
		}
		handleError(c, err, "帖子不存在")
		return
	}

	c.Redirect(http.StatusFound, postPath(id))
}

// ShowEdit 编辑页 GET /post/:id/edit/
func (h *PostHandler) ShowEdit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	post, err := h.posts.GetOwned(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleError(c, err, "帖子不存在")
		return
	}

	Render(c, http.StatusOK, "post/edit.html", gin.H{
		"Title": "编辑帖子",
		"Post":  post,
	})
}

// Update 保存编辑 POST /post/:id/edit/
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	in, err := postInput(c)
	if err == nil {
		_, err = h.posts.Update(c.Request.Context(), middleware.CurrentUser(c), id, in)
	}
	if err != nil {
		if services.GetErrorCode(err) != services.CodeInvalidInput {
			handleError(c, err, "帖子不存在")
			return
		}
		addFlash(c, "保存失败：内容和图片至少保留一项，图片仅支持 jpg/png/gif/webp")
		c.Redirect(http.StatusFound, postPath(id)+"edit/")
		return
	}

	addFlash(c, "帖子已更新")
	c.Redirect(http.StatusFound, postPath(id))
}

// ShowDelete 删除确认页 GET /post/:id/delete/
func (h *PostHandler) ShowDelete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	post, err := h.posts.GetOwned(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleError(c, err, "帖子不存在")
		return
	}

	Render(c, http.StatusOK, "post/delete.html", gin.H{
		"Title": "删除帖子",
		"Post":  post,
	})
}

// Delete 删除帖子 POST /post/:id/delete/
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		handleError(c, err, "帖子不存在")
		return
	}

	addFlash(c, "帖子已删除")
	c.Redirect(http.StatusFound, "/")
}

// Like 点赞/取消点赞 /post/:id/like/，完成后回到来源页
func (h *PostHandler) Like(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	if _, _, err := h.likes.Toggle(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		handleError(c, err, "帖子不存在")
		return
	}

	c.Redirect(http.StatusFound, safeRedirect(c.Request.Referer(), c.Request.Host))
}

