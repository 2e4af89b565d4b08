package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/apperror"
	"inkwell/internal/logger"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID uint) (*model.User, error)
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150,alphanum"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        *model.User `json:"user"`
}

type authService struct {
	userRepo  repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates an account. The first account ever created becomes staff.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, apperror.Validation("Username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Storage("find user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Validation("Password cannot be used")
	}

	existing, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, apperror.Storage("count users", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		IsStaff:      existing == 0,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.Storage("create user", err)
	}

	logger.Info().Uint("user_id", user.ID).Bool("staff", user.IsStaff).Msg("user registered")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Unauthorized("Invalid username or password")
	}
	if err != nil {
		return nil, apperror.Storage("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("Invalid username or password")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record last login")
	}
	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, apperror.Storage("find user", err)
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*AuthResponse, error) {
	token, err := util.GenerateToken(user.ID, user.Username, user.IsStaff, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, apperror.Storage("sign token", err)
	}
	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        user,
	}, nil
}
