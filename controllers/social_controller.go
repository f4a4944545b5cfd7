package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/linkup-social/linkup/middleware"
	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/utils"
)

// SocialController exposes the follow graph and user discovery.
type SocialController struct {
	social *services.SocialService
}

func NewSocialController(social *services.SocialService) *SocialController {
	return &SocialController{social: social}
}

// Follow makes the caller follow :userId.
func (s *SocialController) Follow(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	counts, err := s.social.Follow(ctx.Request.Context(), caller, targetID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	middleware.Engagement.WithLabelValues("follow").Inc()
	utils.Success(ctx, gin.H{"message": "user followed", "following": counts.Following, "followers": counts.Followers})
}

// Unfollow removes the caller's follow of :userId.
func (s *SocialController) Unfollow(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	counts, err := s.social.Unfollow(ctx.Request.Context(), caller, targetID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	middleware.Engagement.WithLabelValues("unfollow").Inc()
	utils.Success(ctx, gin.H{"message": "user unfollowed", "following": counts.Following, "followers": counts.Followers})
}

// Followers lists the users following :userId.
func (s *SocialController) Followers(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	users, err := s.social.Followers(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"count": len(users), "followers": users})
}

// Following lists the users :userId follows.
func (s *SocialController) Following(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	users, err := s.social.Following(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"count": len(users), "following": users})
}

// GetUser returns a public profile. Authenticated callers also see whether they follow the user.
func (s *SocialController) GetUser(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	profile, err := s.social.Profile(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	payload := gin.H{"user": profile}
	if caller := middleware.CallerFrom(ctx); caller != nil && caller.UserID != userID {
		following, err := s.social.IsFollowing(ctx.Request.Context(), caller.UserID, userID)
		if err != nil {
			respondError(ctx, err)
			return
		}
		payload["isFollowing"] = following
	}
	utils.Success(ctx, payload)
}

// SearchUsers matches users by name or email.
func (s *SocialController) SearchUsers(ctx *gin.Context) {
	users, err := s.social.Search(ctx.Request.Context(), ctx.Query("q"), middleware.CallerFrom(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"count": len(users), "users": users})
}

// SuggestedUsers lists users the caller does not follow yet.
func (s *SocialController) SuggestedUsers(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	users, err := s.social.Suggested(ctx.Request.Context(), caller)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"count": len(users), "users": users})
}
