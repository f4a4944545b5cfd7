package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkup-social/linkup/config"
	"github.com/linkup-social/linkup/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func whoAmI(ctx *gin.Context) {
	if caller := CallerFrom(ctx); caller != nil {
		ctx.String(http.StatusOK, "user:%d", caller.UserID)
		return
	}
	ctx.String(http.StatusOK, "anonymous")
}

func TestAuthRequired(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "mw-secret"})
	r := gin.New()
	r.GET("/private", AuthRequired(), whoAmI)

	if rr := performRequest(r, http.MethodGet, "/private", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: got %d", rr.Code)
	}
	if rr := performRequest(r, http.MethodGet, "/private", "garbage"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", rr.Code)
	}

	token, _ := utils.GenerateToken(5, "five@example.com", time.Hour)
	rr := performRequest(r, http.MethodGet, "/private", token)
	if rr.Code != http.StatusOK || rr.Body.String() != "user:5" {
		t.Fatalf("valid token: %d %s", rr.Code, rr.Body.String())
	}

	utils.BlacklistToken(token, time.Now().Add(time.Hour))
	if rr := performRequest(r, http.MethodGet, "/private", token); rr.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token: got %d", rr.Code)
	}
}

func TestAuthOptional(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "mw-secret"})
	r := gin.New()
	r.GET("/feed", AuthOptional(), whoAmI)

	rr := performRequest(r, http.MethodGet, "/feed", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "anonymous" {
		t.Fatalf("anonymous: %d %s", rr.Code, rr.Body.String())
	}

	token, _ := utils.GenerateToken(9, "nine@example.com", time.Hour)
	rr = performRequest(r, http.MethodGet, "/feed", token)
	if rr.Code != http.StatusOK || rr.Body.String() != "user:9" {
		t.Fatalf("authenticated: %d %s", rr.Code, rr.Body.String())
	}

	if rr := performRequest(r, http.MethodGet, "/feed", "not-a-jwt"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("invalid credential must not fall back to anonymous: got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/limited", RateLimit("test-scope", 4), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	r.GET("/other", RateLimit("other-scope", 4), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	// burst is half the per-minute budget
	for i := 0; i < 2; i++ {
		if rr := performRequest(r, http.MethodGet, "/limited", ""); rr.Code != http.StatusNoContent {
			t.Fatalf("request %d: got %d", i, rr.Code)
		}
	}
	if rr := performRequest(r, http.MethodGet, "/limited", ""); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr := performRequest(r, http.MethodGet, "/other", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("scopes must not share buckets: got %d", rr.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(ctx *gin.Context) { ctx.String(http.StatusOK, ctx.GetString(ContextRequestIDKey)) })

	rr := performRequest(r, http.MethodGet, "/", "")
	id := rr.Header().Get(RequestIDHeader)
	if len(id) != 36 || rr.Body.String() != id {
		t.Fatalf("generated id %q, body %q", id, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("incoming id not propagated: %q", rr.Header().Get(RequestIDHeader))
	}
}
