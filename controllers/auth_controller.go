package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkup-social/linkup/config"
	"github.com/linkup-social/linkup/middleware"
	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/utils"
)

// AuthController handles account creation, sign-in and token revocation.
type AuthController struct {
	users  *services.UserService
	social *services.SocialService
}

// NewAuthController creates an AuthController.
func NewAuthController(users *services.UserService, social *services.SocialService) *AuthController {
	return &AuthController{users: users, social: social}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=128"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type signinRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup creates an account and returns a token for it.
func (a *AuthController) Signup(ctx *gin.Context) {
	var req signupRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := a.users.Signup(ctx.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	middleware.SignupSuccess.Inc()

	token, err := issueToken(user)
	if err != nil {
		respondError(ctx, services.Internal(err))
		return
	}
	utils.Created(ctx, gin.H{"token": token, "user": user})
}

// Signin verifies credentials and issues a JWT.
func (a *AuthController) Signin(ctx *gin.Context) {
	var req signinRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := a.users.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.SigninFailure.WithLabelValues(services.KindOf(err).String()).Inc()
		respondError(ctx, err)
		return
	}

	token, err := issueToken(user)
	if err != nil {
		respondError(ctx, services.Internal(err))
		return
	}
	middleware.SigninSuccess.Inc()
	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenTTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current user with following and follower counts.
func (a *AuthController) Me(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	profile, err := a.social.Profile(ctx.Request.Context(), caller.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, profile)
}

func issueToken(user *models.User) (string, error) {
	return utils.GenerateToken(user.ID, user.Email, tokenTTL())
}

func tokenTTL() time.Duration {
	return time.Duration(config.Get().TokenTTLHours) * time.Hour
}
