package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the caller's email inside Gin context.
	ContextEmailKey = "email"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}
		if !authenticate(ctx, authHeader) {
			return
		}
		ctx.Next()
	}
}

// AuthOptional authenticates the request when an Authorization header is present and lets
// anonymous requests through. A header that is present but invalid is still rejected.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Next()
			return
		}
		if !authenticate(ctx, authHeader) {
			return
		}
		ctx.Next()
	}
}

// authenticate verifies the bearer token and stores the caller identity. On failure it writes
// the response, aborts and returns false.
func authenticate(ctx *gin.Context, authHeader string) bool {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
		ctx.Abort()
		return false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
		ctx.Abort()
		return false
	}

	if utils.IsTokenBlacklisted(tokenString) {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
		ctx.Abort()
		return false
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		ctx.Abort()
		return false
	}

	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextEmailKey, claims.Email)
	ctx.Set(ContextTokenKey, tokenString)
	return true
}

// CallerFrom returns the authenticated caller, or nil for anonymous requests.
func CallerFrom(ctx *gin.Context) *services.Caller {
	return services.NewCaller(ctx.GetUint(ContextUserIDKey))
}
