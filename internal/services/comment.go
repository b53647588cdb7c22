package services

import (
	"context"
	"socialnet/internal/metrics"
	"socialnet/internal/models"
	"strings"

	"gorm.io/gorm"
)

const MaxCommentLength = 1000

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Create 在帖子下发表评论
func (s *CommentService) Create(ctx context.Context, actor *models.User, postID uint, content string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewError(CodeInvalidInput, "comment is empty")
	}
	if len([]rune(content)) > MaxCommentLength {
		return nil, NewError(CodeInvalidInput, "comment is too long")
	}

	comment := &models.Comment{PostID: postID, UserID: actor.ID, Content: content}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return dbError("post", err)
		}
		if err := tx.Create(comment).Error; err != nil {
			return WrapError(CodeDatabase, "create comment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	comment.User = *actor

	metrics.SocialPosts.WithLabelValues("comment").Inc()
	return comment, nil
}

// ListForPost 帖子的全部评论，按时间正序
func (s *CommentService) ListForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, dbError("comments", err)
	}
	return comments, nil
}
