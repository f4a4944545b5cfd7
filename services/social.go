package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/utils"
)

const (
	maxSearchResults    = 20
	maxSuggestedResults = 10
	minSearchLength     = 2
)

// FollowCounts is returned after a follow or unfollow: how many users the caller now follows
// and how many followers the target now has.
type FollowCounts struct {
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
}

// Profile is a user's public fields plus graph sizes.
type Profile struct {
	models.User
	FollowingCount int64 `json:"followingCount"`
	FollowersCount int64 `json:"followersCount"`
}

// SocialService owns the follow graph. The follows table is the only source of truth;
// following and followers are two indexed lookups over it.
type SocialService struct {
	db *gorm.DB
}

func NewSocialService(db *gorm.DB) *SocialService {
	return &SocialService{db: db}
}

// Follow makes caller follow targetID.
func (s *SocialService) Follow(ctx context.Context, caller Caller, targetID uint) (*FollowCounts, error) {
	if caller.UserID == targetID {
		return nil, InvalidOperation("you cannot follow yourself")
	}
	var counts *FollowCounts
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userExists(tx, targetID); err != nil {
			return err
		}
		following, err := isFollowing(tx, caller.UserID, targetID)
		if err != nil {
			return err
		}
		if following {
			return Conflict("you are already following this user")
		}
		if err := tx.Create(&models.Follow{FollowerID: caller.UserID, FolloweeID: targetID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return Conflict("you are already following this user")
			}
			return Internal(err)
		}
		counts, err = followCounts(tx, caller.UserID, targetID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return counts, nil
}

// Unfollow removes the caller's follow edge to targetID.
func (s *SocialService) Unfollow(ctx context.Context, caller Caller, targetID uint) (*FollowCounts, error) {
	if caller.UserID == targetID {
		return nil, InvalidOperation("you cannot unfollow yourself")
	}
	var counts *FollowCounts
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userExists(tx, targetID); err != nil {
			return err
		}
		res := tx.Where("follower_id = ? AND followee_id = ?", caller.UserID, targetID).Delete(&models.Follow{})
		if res.Error != nil {
			return Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return InvalidOperation("you are not following this user")
		}
		var err error
		counts, err = followCounts(tx, caller.UserID, targetID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return counts, nil
}

// Followers lists users following userID in the order the edges were created.
func (s *SocialService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.neighbours(ctx, userID, "follows.follower_id", "follows.followee_id")
}

// Following lists users that userID follows in the order the edges were created.
func (s *SocialService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.neighbours(ctx, userID, "follows.followee_id", "follows.follower_id")
}

func (s *SocialService) neighbours(ctx context.Context, userID uint, joinCol, matchCol string) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	if err := userExists(db, userID); err != nil {
		return nil, err
	}
	users := []models.User{}
	err := db.Model(&models.User{}).
		Select("users.id", "users.name", "users.email").
		Joins("JOIN follows ON "+joinCol+" = users.id").
		Where(matchCol+" = ?", userID).
		Order("follows.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, Internal(err)
	}
	return users, nil
}

// Profile returns a user's public fields with following and follower counts.
func (s *SocialService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	db := s.db.WithContext(ctx)
	var u models.User
	if err := db.Select("id", "name", "email").First(&u, userID).Error; err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	p := &Profile{User: u}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&p.FollowingCount).Error; err != nil {
		return nil, Internal(err)
	}
	if err := db.Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&p.FollowersCount).Error; err != nil {
		return nil, Internal(err)
	}
	return p, nil
}

// IsFollowing reports whether followerID follows followeeID.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return isFollowing(s.db.WithContext(ctx), followerID, followeeID)
}

// Search matches users by name or email substring, case-insensitively.
func (s *SocialService) Search(ctx context.Context, query string, caller *Caller) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return nil, ValidationFailed("search query must be at least 2 characters", utils.FieldError{Field: "q", Rule: "min"})
	}
	pattern := containsPattern(query)
	tx := s.db.WithContext(ctx).
		Select("id", "name", "email").
		Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!')", pattern, pattern)
	if caller != nil {
		tx = tx.Where("id <> ?", caller.UserID)
	}
	users := []models.User{}
	if err := tx.Order("id").Limit(maxSearchResults).Find(&users).Error; err != nil {
		return nil, Internal(err)
	}
	return users, nil
}

// Suggested returns users the caller does not follow yet, excluding the caller.
func (s *SocialService) Suggested(ctx context.Context, caller Caller) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	followees := db.Model(&models.Follow{}).Select("followee_id").Where("follower_id = ?", caller.UserID)
	users := []models.User{}
	err := db.Select("id", "name", "email").
		Where("id <> ?", caller.UserID).
		Where("id NOT IN (?)", followees).
		Order("id").
		Limit(maxSuggestedResults).
		Find(&users).Error
	if err != nil {
		return nil, Internal(err)
	}
	return users, nil
}

func userExists(tx *gorm.DB, userID uint) error {
	if err := tx.Select("id").First(&models.User{}, userID).Error; err != nil {
		return notFoundOr(err, "user not found")
	}
	return nil
}

func isFollowing(tx *gorm.DB, followerID, followeeID uint) (bool, error) {
	var n int64
	if err := tx.Model(&models.Follow{}).Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Count(&n).Error; err != nil {
		return false, Internal(err)
	}
	return n > 0, nil
}

func followCounts(tx *gorm.DB, followerID, followeeID uint) (*FollowCounts, error) {
	c := &FollowCounts{}
	if err := tx.Model(&models.Follow{}).Where("follower_id = ?", followerID).Count(&c.Following).Error; err != nil {
		return nil, Internal(err)
	}
	if err := tx.Model(&models.Follow{}).Where("followee_id = ?", followeeID).Count(&c.Followers).Error; err != nil {
		return nil, Internal(err)
	}
	return c, nil
}
