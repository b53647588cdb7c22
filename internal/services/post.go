package services

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"socialnet/internal/metrics"
	"socialnet/internal/models"
	"socialnet/internal/storage"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MaxPostLength = 5000

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// PostInput 发帖/编辑表单内容
type PostInput struct {
	Content     string
	Image       *multipart.FileHeader // 可为空
	RemoveImage bool                  // 编辑时清除已有图片
}

type PostService struct {
	db             *gorm.DB
	storage        storage.Storage
	maxUploadBytes int64
	logger         *zap.Logger
	now            func() time.Time
}

func NewPostService(db *gorm.DB, store storage.Storage, maxUploadBytes int64, logger *zap.Logger) *PostService {
	return &PostService{
		db:             db,
		storage:        store,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		now:            time.Now,
	}
}

// Create 发布帖子，内容和图片至少有一项
func (s *PostService) Create(ctx context.Context, actor *models.User, in PostInput) (*models.Post, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	content := strings.TrimSpace(in.Content)
	if err := s.validate(content, in.Image, in.Image != nil); err != nil {
		return nil, err
	}

	post := &models.Post{UserID: actor.ID, Content: content}
	if in.Image != nil {
		if err := s.upload(ctx, post, in.Image); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		s.removeMedia(ctx, post.ImageKey)
		return nil, WrapError(CodeDatabase, "create post", err)
	}
	post.User = *actor

	metrics.SocialPosts.WithLabelValues("create").Inc()
	return post, nil
}

// Get 按 ID 获取帖子及统计信息，viewer 可为空
func (s *PostService) Get(ctx context.Context, id uint, viewer *models.User) (*models.Post, error) {
	tx := s.db.WithContext(ctx)

	var post models.Post
	if err := tx.Preload("User").First(&post, id).Error; err != nil {
		return nil, dbError("post", err)
	}

	posts := []models.Post{post}
	if err := fillPostStats(tx, posts, viewer); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// GetOwned 获取 actor 自己的帖子；别人的帖子同样视为不存在
func (s *PostService) GetOwned(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	if actor == nil {
		return nil, ErrNotFound
	}

	var post models.Post
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, actor.ID).First(&post).Error; err != nil {
		return nil, dbError("post", err)
	}
	post.User = *actor
	return &post, nil
}

// ListByAuthor 用户主页的帖子列表，按时间倒序
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, viewer *models.User) ([]models.Post, error) {
	tx := s.db.WithContext(ctx)

	var posts []models.Post
	err := tx.Preload("User").
		Where("user_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, dbError("posts", err)
	}

	if err := fillPostStats(tx, posts, viewer); err != nil {
		return nil, err
	}
	return posts, nil
}

// Update 编辑自己的帖子
func (s *PostService) Update(ctx context.Context, actor *models.User, id uint, in PostInput) (*models.Post, error) {
	post, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	hasImage := in.Image != nil || (post.ImageKey != "" && !in.RemoveImage)
	if err := s.validate(content, in.Image, hasImage); err != nil {
		return nil, err
	}

	oldKey := post.ImageKey
	post.Content = content
	if in.RemoveImage {
		post.Image, post.ImageKey = "", ""
	}
	if in.Image != nil {
		if err := s.upload(ctx, post, in.Image); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Model(post).Select("content", "image", "image_key", "updated_at").Updates(post).Error
	if err != nil {
		if post.ImageKey != oldKey {
			s.removeMedia(ctx, post.ImageKey)
		}
		return nil, WrapError(CodeDatabase, "update post", err)
	}

	if oldKey != "" && oldKey != post.ImageKey {
		s.removeMedia(ctx, oldKey)
	}

	metrics.SocialPosts.WithLabelValues("update").Inc()
	return post, nil
}

// Delete 删除自己的帖子，连同其点赞和评论
func (s *PostService) Delete(ctx context.Context, actor *models.User, id uint) error {
	post, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		return WrapError(CodeDatabase, "delete post", err)
	}

	s.removeMedia(ctx, post.ImageKey)
	metrics.SocialPosts.WithLabelValues("delete").Inc()
	return nil
}

func (s *PostService) validate(content string, image *multipart.FileHeader, hasImage bool) error {
	if content == "" && !hasImage {
		return NewError(CodeInvalidInput, "post needs text or an image")
	}
	if len([]rune(content)) > MaxPostLength {
		return NewError(CodeInvalidInput, "post is too long")
	}
	if image == nil {
		return nil
	}
	if _, ok := allowedImageTypes[strings.ToLower(filepath.Ext(image.Filename))]; !ok {
		return NewError(CodeInvalidInput, "unsupported image type")
	}
	if s.maxUploadBytes > 0 && image.Size > s.maxUploadBytes {
		return NewError(CodeInvalidInput, "image is too large")
	}
	return nil
}

func (s *PostService) upload(ctx context.Context, post *models.Post, image *multipart.FileHeader) error {
	key := storage.NewKey(image.Filename, s.now())
	url, err := s.storage.UploadFile(ctx, image, key)
	if err != nil {
		return WrapError(CodeStorage, "store image", err)
	}
	post.Image, post.ImageKey = url, key
	return nil
}

// removeMedia 尽力删除存储中的图片，失败只记录日志
func (s *PostService) removeMedia(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("remove media failed", zap.String("key", key), zap.Error(err))
	}
}
