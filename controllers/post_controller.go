package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkup-social/linkup/middleware"
	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/utils"
)

const (
	postDetailTTL = 10 * time.Minute
	trendingTTL   = 5 * time.Minute
)

// PostController serves the feed, post CRUD, comments, likes and trending tags.
type PostController struct {
	posts      *services.PostService
	feed       *services.FeedService
	engagement *services.EngagementService
	trending   *services.TrendingService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, feed *services.FeedService, engagement *services.EngagementService, trending *services.TrendingService) *PostController {
	return &PostController{posts: posts, feed: feed, engagement: engagement, trending: trending}
}

type mediaRequest struct {
	Type       string `json:"type" binding:"required,oneof=image video"`
	URL        string `json:"url" binding:"required,url"`
	StorageKey string `json:"storageKey" binding:"required"`
}

type createPostRequest struct {
	Title   string         `json:"title" binding:"max=255"`
	Content string         `json:"content" binding:"required,max=10000"`
	Tags    []string       `json:"tags" binding:"max=30,dive,max=64"`
	Media   []mediaRequest `json:"media" binding:"max=10,dive"`
}

// Omitted fields keep their stored value; an explicit empty list clears tags or media.
type updatePostRequest struct {
	Title   *string         `json:"title" binding:"omitempty,max=255"`
	Content *string         `json:"content" binding:"omitempty,max=10000"`
	Tags    *[]string       `json:"tags"`
	Media   *[]mediaRequest `json:"media"`
}

type commentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// ListPosts returns a filtered, sorted page of posts.
func (p *PostController) ListPosts(ctx *gin.Context) {
	q, err := services.ParseFeedParams(services.FeedParams{
		Author:    ctx.Query("author"),
		Tags:      ctx.QueryArray("tags"),
		Search:    ctx.Query("search"),
		Limit:     ctx.Query("limit"),
		Skip:      ctx.Query("skip"),
		SortBy:    ctx.Query("sortBy"),
		SortOrder: ctx.Query("sortOrder"),
		FeedType:  ctx.Query("feedType"),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	page, err := p.feed.List(ctx.Request.Context(), q, middleware.CallerFrom(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"count":   page.Count,
		"total":   page.Total,
		"hasMore": page.HasMore,
		"pagination": gin.H{
			"limit": page.Limit,
			"skip":  page.Skip,
			"page":  page.Page,
		},
		"posts": page.Posts,
	})
}

// GetPost returns a single post. Authenticated callers also learn whether they liked it.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	// cached bodies may predate a like; likesCount is always read from the post row
	cacheKey := postDetailKey(postID)
	var post *models.Post
	var cached models.Post
	if body, hit := utils.CacheGetBytes(cacheKey); hit && json.Unmarshal(body, &cached) == nil {
		count, err := p.engagement.LikesCount(ctx.Request.Context(), postID)
		if err != nil {
			respondError(ctx, err)
			return
		}
		cached.LikesCount = count
		post = &cached
	} else {
		var err error
		if post, err = p.posts.Get(ctx.Request.Context(), postID); err != nil {
			respondError(ctx, err)
			return
		}
		utils.CacheSetJSON(cacheKey, post, postDetailTTL)
	}

	payload := gin.H{"post": post}
	if caller := middleware.CallerFrom(ctx); caller != nil {
		liked, err := p.engagement.HasLiked(ctx.Request.Context(), caller.UserID, postID)
		if err != nil {
			respondError(ctx, err)
			return
		}
		payload["likedByMe"] = liked
	}
	utils.Success(ctx, payload)
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	var req createPostRequest
	if !bindJSON(ctx, &req) {
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), caller.UserID, services.PostInput{
		Title:    &req.Title,
		Content:  &req.Content,
		Tags:     req.Tags,
		Media:    toMediaInput(req.Media),
		SetTags:  true,
		SetMedia: true,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	middleware.PostsCreated.Inc()
	utils.InvalidateByPrefix(utils.CacheTrendingPrefix)
	utils.Created(ctx, gin.H{"post": post})
}

// UpdatePost applies a partial update; only the author may change a post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req updatePostRequest
	if !bindJSON(ctx, &req) {
		return
	}

	in := services.PostInput{Title: req.Title, Content: req.Content}
	if req.Tags != nil {
		in.Tags, in.SetTags = *req.Tags, true
	}
	if req.Media != nil {
		in.Media, in.SetMedia = toMediaInput(*req.Media), true
	}

	post, err := p.posts.Update(ctx.Request.Context(), caller, postID, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidatePost(postID)
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post with its comments, likes and media.
func (p *PostController) DeletePost(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := p.posts.Delete(ctx.Request.Context(), caller, postID); err != nil {
		respondError(ctx, err)
		return
	}
	invalidatePost(postID)
	utils.Success(ctx, gin.H{"message": "post deleted", "id": postID})
}

// CreateComment adds a comment to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(ctx, &req) {
		return
	}

	comment, err := p.posts.AddComment(ctx.Request.Context(), caller.UserID, postID, req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}
	middleware.Engagement.WithLabelValues("comment").Inc()
	utils.Created(ctx, gin.H{"comment": comment})
}

// ListComments returns a post's comments, newest first.
func (p *PostController) ListComments(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	comments, err := p.posts.ListComments(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"count": len(comments), "comments": comments})
}

// DeleteComment removes a comment; allowed for its author and the post author.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(ctx, "commentId")
	if !ok {
		return
	}
	comment, err := p.posts.DeleteComment(ctx.Request.Context(), caller, commentID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted", "id": comment.ID, "postId": comment.PostID})
}

// LikePost records the caller's like.
func (p *PostController) LikePost(ctx *gin.Context) {
	p.toggleLike(ctx, true)
}

// UnlikePost removes the caller's like.
func (p *PostController) UnlikePost(ctx *gin.Context) {
	p.toggleLike(ctx, false)
}

func (p *PostController) toggleLike(ctx *gin.Context, like bool) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var (
		count  int64
		err    error
		action = "like"
		msg    = "post liked"
	)
	if like {
		count, err = p.engagement.Like(ctx.Request.Context(), caller, postID)
	} else {
		action, msg = "unlike", "post unliked"
		count, err = p.engagement.Unlike(ctx.Request.Context(), caller, postID)
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	middleware.Engagement.WithLabelValues(action).Inc()
	utils.CacheDelete(postDetailKey(postID))
	utils.Success(ctx, gin.H{"message": msg, "likesCount": count})
}

// TrendingHashtags returns the most used tags across all posts.
func (p *PostController) TrendingHashtags(ctx *gin.Context) {
	limit := services.ParseTrendingLimit(ctx.Query("limit"))
	cacheKey := utils.CacheTrendingPrefix + strconv.Itoa(limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	trending, err := p.trending.Top(ctx.Request.Context(), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	payload := gin.H{"trending": trending}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, trendingTTL)
	utils.Success(ctx, payload)
}

func toMediaInput(in []mediaRequest) []services.MediaInput {
	out := make([]services.MediaInput, 0, len(in))
	for _, m := range in {
		out = append(out, services.MediaInput{Type: m.Type, URL: m.URL, StorageKey: m.StorageKey})
	}
	return out
}

func postDetailKey(postID uint) string {
	return utils.CachePostDetailPrefix + strconv.FormatUint(uint64(postID), 10)
}

// invalidatePost drops cached views that include the post's tags or fields.
func invalidatePost(postID uint) {
	utils.CacheDelete(postDetailKey(postID))
	utils.InvalidateByPrefix(utils.CacheTrendingPrefix)
}
