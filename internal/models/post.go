package models

import (
	"time"
)

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Content   string    `gorm:"type:text" json:"content"`
	Image     string    `gorm:"size:500" json:"image"` // 媒体地址，可为空
	ImageKey  string    `gorm:"size:300" json:"-"`     // 存储后端中的对象 key
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	LikeCount    int  `gorm:"-" json:"like_count"`
	CommentCount int  `gorm:"-" json:"comment_count"`
	Liked        bool `gorm:"-" json:"liked"`
}
