package services

import (
	"context"
	"errors"
	"socialnet/internal/models"
	"socialnet/internal/utils"
	"strings"

	"gorm.io/gorm"
)

const MinPasswordLength = 6

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register 创建新用户，头像为随机 emoji
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if !utils.ValidUsername(username) {
		return nil, NewError(CodeInvalidInput, "username must be 3-30 letters, digits or . _ -")
	}
	if len(password) < MinPasswordLength {
		return nil, NewError(CodeInvalidInput, "password is too short")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, WrapError(CodeInternal, "hash password", err)
	}

	user := &models.User{
		Username: username,
		Password: hash,
		Avatar:   utils.GetRandomEmoji(),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, WrapError(CodeConflict, "username taken", err)
		}
		return nil, WrapError(CodeDatabase, "create user", err)
	}
	return user, nil
}

// Authenticate 校验用户名和密码，任何一项不对都返回 ErrUnauthorized
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, dbError("user", err)
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, dbError("user", err)
	}
	return &user, nil
}
