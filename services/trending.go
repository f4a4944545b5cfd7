package services

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/linkup-social/linkup/models"
)

const (
	DefaultTrendingLimit = 10
	MaxTrendingLimit     = 100
)

// HashtagCount is one row of the trending list.
type HashtagCount struct {
	Hashtag string `json:"hashtag"`
	Count   int64  `json:"count" gorm:"column:uses"`
}

// ParseTrendingLimit coerces a raw limit, falling back to the default for missing or
// non-positive values.
func ParseTrendingLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultTrendingLimit
	}
	if n > MaxTrendingLimit {
		return MaxTrendingLimit
	}
	return n
}

// TrendingService ranks tags by all-time use across posts.
type TrendingService struct {
	db *gorm.DB
}

func NewTrendingService(db *gorm.DB) *TrendingService {
	return &TrendingService{db: db}
}

// Top returns the limit most used tags. Tags are grouped case-insensitively and reported in
// lower case on every driver, so "Go" and "go" count as one tag. Equal counts are ordered by
// tag name.
func (s *TrendingService) Top(ctx context.Context, limit int) ([]HashtagCount, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	out := []HashtagCount{}
	err := s.db.WithContext(ctx).
		Model(&models.PostTag{}).
		Select("LOWER(name) AS hashtag, COUNT(*) AS uses").
		Group("LOWER(name)").
		Order("uses DESC").
		Order("hashtag ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, Internal(err)
	}
	return out, nil
}
