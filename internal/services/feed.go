package services

import (
	"context"
	"socialnet/internal/models"

	"gorm.io/gorm"
)

// FeedPageSize 首页每页帖子数
const FeedPageSize = 10

type FeedService struct {
	db *gorm.DB
}

func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

// Build 计算 viewer 可见的帖子：
// 已登录时为自己和已关注用户的帖子，未登录时为全部帖子。
// 按创建时间倒序，每页 FeedPageSize 条，越界页码收敛到最近的有效页。
func (s *FeedService) Build(ctx context.Context, viewer *models.User, pageParam string) (*Page, error) {
	tx := s.db.WithContext(ctx)

	scope := func(db *gorm.DB) *gorm.DB { return db }
	if viewer != nil {
		authorIDs, err := s.visibleAuthorIDs(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
		scope = func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id IN ?", authorIDs)
		}
	}

	var total int64
	if err := tx.Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, dbError("feed", err)
	}

	number, numPages := paginate(pageParam, total, FeedPageSize)

	var posts []models.Post
	err := tx.Scopes(scope).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(FeedPageSize).
		Offset((number - 1) * FeedPageSize).
		Find(&posts).Error
	if err != nil {
		return nil, dbError("feed", err)
	}

	if err := fillPostStats(tx, posts, viewer); err != nil {
		return nil, err
	}

	return &Page{
		Posts:    posts,
		Number:   number,
		NumPages: numPages,
		Total:    total,
	}, nil
}

// visibleAuthorIDs 返回 viewer 自己加上其关注的所有用户 ID
func (s *FeedService) visibleAuthorIDs(ctx context.Context, viewerID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", viewerID).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, dbError("follows", err)
	}
	return append(ids, viewerID), nil
}

// fillPostStats 批量填充点赞数、评论数以及 viewer 是否已点赞
func fillPostStats(tx *gorm.DB, posts []models.Post, viewer *models.User) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type CountResult struct {
		PostID uint
		Count  int
	}

	var likeCounts []CountResult
	err := tx.Model(&models.Like{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likeCounts).Error
	if err != nil {
		return dbError("like counts", err)
	}

	var commentCounts []CountResult
	err = tx.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&commentCounts).Error
	if err != nil {
		return dbError("comment counts", err)
	}

	likes := make(map[uint]int, len(likeCounts))
	for _, r := range likeCounts {
		likes[r.PostID] = r.Count
	}
	comments := make(map[uint]int, len(commentCounts))
	for _, r := range commentCounts {
		comments[r.PostID] = r.Count
	}

	liked := make(map[uint]bool)
	if viewer != nil {
		var likedIDs []uint
		err = tx.Model(&models.Like{}).
			Where("user_id = ? AND post_id IN ?", viewer.ID, postIDs).
			Pluck("post_id", &likedIDs).Error
		if err != nil {
			return dbError("liked posts", err)
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	for i := range posts {
		posts[i].LikeCount = likes[posts[i].ID]
		posts[i].CommentCount = comments[posts[i].ID]
		posts[i].Liked = liked[posts[i].ID]
	}
	return nil
}
