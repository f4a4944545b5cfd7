package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/linkup-social/linkup/models"
)

// EngagementService records likes. A post's likesCount is recomputed from the like rows in the
// same transaction that changes them, so the counter never drifts from the set of likers.
type EngagementService struct {
	db *gorm.DB
}

func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

// Like adds the caller's like to a post and returns the new like count.
func (s *EngagementService) Like(ctx context.Context, caller Caller, postID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Post{}, postID).Error; err != nil {
			return notFoundOr(err, "post not found")
		}

		var existing int64
		if err := tx.Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, caller.UserID).Count(&existing).Error; err != nil {
			return Internal(err)
		}
		if existing > 0 {
			return Conflict("you have already liked this post")
		}
		if err := tx.Create(&models.Like{PostID: postID, UserID: caller.UserID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return Conflict("you have already liked this post")
			}
			return Internal(err)
		}

		var err error
		count, err = recountLikes(tx, postID)
		return err
	})
	if err != nil {
		return 0, asServiceError(err)
	}
	return count, nil
}

// Unlike removes the caller's like from a post and returns the new like count.
func (s *EngagementService) Unlike(ctx context.Context, caller Caller, postID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Post{}, postID).Error; err != nil {
			return notFoundOr(err, "post not found")
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, caller.UserID).Delete(&models.Like{})
		if res.Error != nil {
			return Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return InvalidOperation("you have not liked this post")
		}

		var err error
		count, err = recountLikes(tx, postID)
		return err
	})
	if err != nil {
		return 0, asServiceError(err)
	}
	return count, nil
}

// HasLiked reports whether userID has liked postID.
func (s *EngagementService) HasLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&n).Error; err != nil {
		return false, Internal(err)
	}
	return n > 0, nil
}

// LikesCount returns the stored like count of a post.
func (s *EngagementService) LikesCount(ctx context.Context, postID uint) (int64, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "likes_count").First(&post, postID).Error; err != nil {
		return 0, notFoundOr(err, "post not found")
	}
	return post.LikesCount, nil
}

func recountLikes(tx *gorm.DB, postID uint) (int64, error) {
	var n int64
	if err := tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, Internal(err)
	}
	if err := tx.Model(&models.Post{ID: postID}).UpdateColumn("likes_count", n).Error; err != nil {
		return 0, Internal(err)
	}
	return n, nil
}
