package services

import (
	"context"
	"errors"
	"socialnet/internal/metrics"
	"socialnet/internal/models"

	"gorm.io/gorm"
)

type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Toggle 切换 actor 对 username 的关注状态。
// 目标是自己时不做任何修改，返回 following=false。
func (s *FollowService) Toggle(ctx context.Context, actor *models.User, username string) (*models.User, bool, error) {
	var (
		target    models.User
		following bool
		noop      bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&target).Error; err != nil {
			return dbError("user", err)
		}
		if target.ID == actor.ID {
			noop = true
			return nil
		}

		var existing models.Follow
		err := tx.Where("follower_id = ? AND following_id = ?", actor.ID, target.ID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return WrapError(CodeDatabase, "delete follow", err)
			}
			following = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Follow{FollowerID: actor.ID, FollowingID: target.ID}).Error; err != nil {
				return err
			}
			following = true
		default:
			return dbError("follow", err)
		}
		return nil
	})

	// 并发关注撞上唯一索引：关系已存在
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		following, err = true, nil
	}
	if err != nil {
		if GetErrorCode(err) == CodeInternal {
			err = WrapError(CodeDatabase, "create follow", err)
		}
		return nil, false, err
	}

	switch {
	case noop:
		metrics.SocialToggles.WithLabelValues("follow", "noop").Inc()
	case following:
		metrics.SocialToggles.WithLabelValues("follow", "created").Inc()
	default:
		metrics.SocialToggles.WithLabelValues("follow", "deleted").Inc()
	}
	return &target, following, nil
}

// IsFollowing 检查 followerID 是否关注了 followingID
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, dbError("follow", err)
	}
	return count > 0, nil
}

// Counts 返回粉丝数和关注数
func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	tx := s.db.WithContext(ctx)
	if err = tx.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, dbError("followers", err)
	}
	if err = tx.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, dbError("following", err)
	}
	return followers, following, nil
}
