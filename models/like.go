package models

import "time"

// Like records that a user liked a post. The (post, user) pair is unique at the storage layer.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user" json:"postId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

