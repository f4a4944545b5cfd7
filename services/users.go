package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/utils"
)

// UserService handles account creation and credential checks.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Signup creates an account. Emails are stored trimmed and lower-cased.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, Internal(err)
	}
	if n > 0 {
		return nil, Conflict("email already exists")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, Internal(err)
	}
	user := models.User{Name: name, Email: email, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict("email already exists")
		}
		return nil, Internal(err)
	}
	return &user, nil
}

// Authenticate returns the user for email when password matches.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, Unauthorized("incorrect password")
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
