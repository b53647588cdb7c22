package services

import (
	"context"
	"errors"
	"socialnet/internal/metrics"
	"socialnet/internal/models"

	"gorm.io/gorm"
)

type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// Toggle 切换点赞状态：已点赞则取消，否则点赞。每次调用都会翻转状态。
// 返回切换后的状态和帖子当前点赞数。
func (s *LikeService) Toggle(ctx context.Context, actor *models.User, postID uint) (bool, int64, error) {
	var liked bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return dbError("post", err)
		}

		var existing models.Like
		err := tx.Where("user_id = ? AND post_id = ?", actor.ID, postID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return WrapError(CodeDatabase, "delete like", err)
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Like{UserID: actor.ID, PostID: postID}).Error; err != nil {
				return err
			}
			liked = true
		default:
			return dbError("like", err)
		}
		return nil
	})

	// 并发点赞撞上唯一索引：记录已存在，视为已点赞
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		liked, err = true, nil
	}
	if err != nil {
		if GetErrorCode(err) == CodeInternal {
			err = WrapError(CodeDatabase, "create like", err)
		}
		return false, 0, err
	}

	if liked {
		metrics.SocialToggles.WithLabelValues("like", "created").Inc()
	} else {
		metrics.SocialToggles.WithLabelValues("like", "deleted").Inc()
	}

	count, err := s.Count(ctx, postID)
	return liked, count, err
}

// Count 帖子点赞数
func (s *LikeService) Count(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, dbError("like count", err)
	}
	return count, nil
}

// IsLiked 检查用户是否已点赞某帖子
func (s *LikeService) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, dbError("like", err)
	}
	return count > 0, nil
}
