package services

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/utils"
)

const (
	DefaultFeedLimit  = 20
	MaxFeedLimit      = 100
	FeedTypeFollowing = "following"
)

// sortColumns maps accepted sortBy values to post columns.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"created_at":  "created_at",
	"updatedAt":   "updated_at",
	"updated_at":  "updated_at",
	"likesCount":  "likes_count",
	"likes_count": "likes_count",
	"title":       "title",
}

// FeedParams holds raw, untrusted feed query inputs as they arrive over HTTP.
type FeedParams struct {
	Author    string
	Tags      []string
	Search    string
	Limit     string
	Skip      string
	SortBy    string
	SortOrder string
	FeedType  string
}

// FeedQuery is a normalised post filter.
type FeedQuery struct {
	AuthorID      uint
	Tags          []string
	Search        string
	Limit         int
	Skip          int
	SortColumn    string
	Descending    bool
	FollowingOnly bool
}

// FeedPage is one page of a feed.
type FeedPage struct {
	Posts   []models.Post
	Count   int
	Total   int64
	HasMore bool
	Limit   int
	Skip    int
	Page    int
}

// ParseFeedParams coerces raw inputs into a FeedQuery.
// Non-numeric limit/skip fall back to defaults, negatives are clamped, unknown sort fields
// sort by creation time and any sort order other than "asc" is descending.
func ParseFeedParams(p FeedParams) (FeedQuery, error) {
	q := FeedQuery{
		Limit:      DefaultFeedLimit,
		SortColumn: "created_at",
		Descending: true,
	}

	if a := strings.TrimSpace(p.Author); a != "" {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil || id == 0 {
			return q, ValidationFailed("invalid author id", utils.FieldError{Field: "author", Rule: "id"})
		}
		q.AuthorID = uint(id)
	}

	for _, raw := range p.Tags {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Tags = append(q.Tags, t)
			}
		}
	}
	q.Search = strings.TrimSpace(p.Search)

	if n, err := strconv.Atoi(strings.TrimSpace(p.Limit)); err == nil && n > 0 {
		q.Limit = n
	}
	if q.Limit > MaxFeedLimit {
		q.Limit = MaxFeedLimit
	}
	if n, err := strconv.Atoi(strings.TrimSpace(p.Skip)); err == nil && n > 0 {
		q.Skip = n
	}

	if col, ok := sortColumns[strings.TrimSpace(p.SortBy)]; ok {
		q.SortColumn = col
	}
	q.Descending = !strings.EqualFold(strings.TrimSpace(p.SortOrder), "asc")
	q.FollowingOnly = strings.TrimSpace(p.FeedType) == FeedTypeFollowing
	return q, nil
}

// FeedService answers filtered, sorted and paginated post queries.
type FeedService struct {
	db *gorm.DB
}

// NewFeedService creates a FeedService.
func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

// List returns the page of posts matching q. A following feed requires a caller and
// restricts authors to the caller's followees plus the caller; it takes precedence over q.AuthorID.
// Rows tied on the sort column are ordered by id in the same direction so pages never overlap.
func (s *FeedService) List(ctx context.Context, q FeedQuery, caller *Caller) (*FeedPage, error) {
	db := s.db.WithContext(ctx)
	tx := db.Model(&models.Post{})

	switch {
	case q.FollowingOnly:
		if caller == nil {
			return nil, Unauthorized("authentication required for following feed")
		}
		var me models.User
		if err := db.Select("id").First(&me, caller.UserID).Error; err != nil {
			return nil, notFoundOr(err, "user not found")
		}
		followees := db.Model(&models.Follow{}).Select("followee_id").Where("follower_id = ?", me.ID)
		tx = tx.Where("(author_id IN (?) OR author_id = ?)", followees, me.ID)
	case q.AuthorID != 0:
		tx = tx.Where("author_id = ?", q.AuthorID)
	}

	if len(q.Tags) > 0 {
		conds := make([]string, len(q.Tags))
		args := make([]interface{}, len(q.Tags))
		for i, t := range q.Tags {
			conds[i] = "LOWER(post_tags.name) LIKE ? ESCAPE '!'"
			args[i] = containsPattern(t)
		}
		tx = tx.Where("EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND ("+strings.Join(conds, " OR ")+"))", args...)
	}

	if q.Search != "" {
		pattern := containsPattern(q.Search)
		tx = tx.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(content) LIKE ? ESCAPE '!')", pattern, pattern)
	}

	base := tx.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, Internal(err)
	}

	var posts []models.Post
	err := withPostAssociations(base).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.SortColumn}, Desc: q.Descending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: q.Descending}).
		Offset(q.Skip).
		Limit(q.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, Internal(err)
	}

	return &FeedPage{
		Posts:   posts,
		Count:   len(posts),
		Total:   total,
		HasMore: int64(q.Skip+q.Limit) < total,
		Limit:   q.Limit,
		Skip:    q.Skip,
		Page:    q.Skip/q.Limit + 1,
	}, nil
}

// withPostAssociations preloads the author's public fields, ordered tags and media.
func withPostAssociations(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Author", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("TagRows", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

// containsPattern builds a case-insensitive LIKE pattern for a literal substring, using '!' as escape.
func containsPattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
