package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linkup-social/linkup/config"
	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/utils"
)

var dbSeq int64

func newStatsRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:stats_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := config.Open(sqlite.Open(dsn), logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := config.Migrate(db, models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stats := NewStatsController(db)
	r := gin.New()
	r.GET("/stats", stats.GetStats)
	r.GET("/posts/:id/stats", stats.GetPostStats)
	return r, db
}

func getJSON(t *testing.T, r http.Handler, path string) (int, map[string]interface{}) {
	t.Helper()
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return rr.Code, body
}

func TestStats(t *testing.T) {
	r, db := newStatsRouter(t)
	u := models.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}
	db.Create(&u)
	p := models.Post{AuthorID: u.ID, Content: "hi", LikesCount: 1}
	db.Create(&p)
	db.Create(&models.Like{PostID: p.ID, UserID: u.ID})
	db.Create(&models.Comment{PostID: p.ID, UserID: u.ID, Content: "c"})

	status, body := getJSON(t, r, "/stats")
	data, _ := body["data"].(map[string]interface{})
	if status != http.StatusOK || data["userCount"] != float64(1) || data["likeCount"] != float64(1) || data["followCount"] != float64(0) {
		t.Fatalf("stats: %d %v", status, body)
	}

	status, body = getJSON(t, r, fmt.Sprintf("/posts/%d/stats", p.ID))
	data, _ = body["data"].(map[string]interface{})
	if status != http.StatusOK || data["likesCount"] != float64(1) || data["commentsCount"] != float64(1) {
		t.Fatalf("post stats: %d %v", status, body)
	}

	status, body = getJSON(t, r, "/posts/999/stats")
	if status != http.StatusNotFound || body["code"] != float64(CodeNotFound) {
		t.Fatalf("missing post: %d %v", status, body)
	}
}

func TestStatsReportsStoreFailures(t *testing.T) {
	r, db := newStatsRouter(t)
	u := models.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}
	db.Create(&u)
	p := models.Post{AuthorID: u.ID, Content: "hi"}
	db.Create(&p)

	core, logs := observer.New(zapcore.ErrorLevel)
	prev := utils.Logger
	utils.Logger = zap.New(core)
	t.Cleanup(func() { utils.Logger = prev })

	if err := db.Migrator().DropTable(&models.Comment{}); err != nil {
		t.Fatalf("drop comments: %v", err)
	}

	for _, path := range []string{"/stats", fmt.Sprintf("/posts/%d/stats", p.ID)} {
		status, body := getJSON(t, r, path)
		if status != http.StatusInternalServerError || body["code"] != float64(CodeInternal) {
			t.Fatalf("%s: %d %v", path, status, body)
		}
	}
	if logs.Len() != 2 {
		t.Fatalf("expected each failure to be logged, got %d entries", logs.Len())
	}
}
