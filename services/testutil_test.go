package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linkup-social/linkup/config"
	"github.com/linkup-social/linkup/models"
)

var dbSeq int64

// newTestDB opens a private in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&dbSeq, 1))

	db, err := config.Open(sqlite.Open(dsn), logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db, models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: strings.ToLower(name) + "@example.com", PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func createPost(t *testing.T, svc *PostService, authorID uint, content string, tags ...string) *models.Post {
	t.Helper()
	p, err := svc.Create(context.Background(), authorID, PostInput{Content: &content, Tags: tags, SetTags: true})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func strPtr(s string) *string { return &s }

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if se.Kind != want {
		t.Fatalf("expected kind %s, got %s (%v)", want, se.Kind, err)
	}
}

func likeRows(t *testing.T, db *gorm.DB, postID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		t.Fatalf("count likes: %v", err)
	}
	return n
}

func storedLikesCount(t *testing.T, db *gorm.DB, postID uint) int64 {
	t.Helper()
	var p models.Post
	if err := db.Select("id", "likes_count").First(&p, postID).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	return p.LikesCount
}
