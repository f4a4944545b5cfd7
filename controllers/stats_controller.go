package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/utils"
)

// StatsController provides site statistics such as total users, posts and engagement.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate counts for the site.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	var userCount, postCount, commentCount, likeCount, followCount int64

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &userCount},
		{&models.Post{}, &postCount},
		{&models.Comment{}, &commentCount},
		{&models.Like{}, &likeCount},
		{&models.Follow{}, &followCount},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			respondError(ctx, services.Internal(err))
			return
		}
	}

	utils.Success(ctx, gin.H{
		"userCount":    userCount,
		"postCount":    postCount,
		"commentCount": commentCount,
		"likeCount":    likeCount,
		"followCount":  followCount,
	})
}

// GetPostStats returns like and comment counts for one post.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	db := s.db.WithContext(ctx.Request.Context())

	var post models.Post
	if err := db.Select("id", "likes_count").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(ctx, services.NotFound("post not found"))
			return
		}
		respondError(ctx, services.Internal(err))
		return
	}

	var commentsCount int64
	if err := db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&commentsCount).Error; err != nil {
		respondError(ctx, services.Internal(err))
		return
	}

	utils.Success(ctx, gin.H{
		"likesCount":    post.LikesCount,
		"commentsCount": commentsCount,
	})
}
