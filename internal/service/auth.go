package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/security"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var errInvalidCredentials = apperr.Unauthorized("invalid email or password")

type authService struct {
	userRepo repository.UserRepository
	tokens   security.TokenManager
	denylist security.Denylist
}

func NewAuthService(userRepo repository.UserRepository, tokens security.TokenManager, denylist security.Denylist) AuthService {
	if denylist == nil {
		denylist = security.NewNoopDenylist()
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		denylist: denylist,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	logger.EnterMethod("authService.Register", "email", in.Email)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" || in.Email == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         domain.UserRoleCustomer,
		Address:      in.Address,
		Phone:        in.Phone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Validation("email already registered")
		}
		logger.ExitMethodWithError("authService.Register", err)
		return nil, err
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("authService.Register", "userID", user.ID)
	return result, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return s.issue(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.ValidateTokenOfType(refreshToken, security.TokenTypeRefresh)
	if err != nil {
		return nil, apperr.Unauthorized(err.Error())
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Unauthorized("invalid token")
		}
		return nil, err
	}
	// Rotation: only the most recently issued refresh token is accepted
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, apperr.Unauthorized("refresh token has been revoked")
	}
	return s.issue(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID int32, accessJTI string, ttl time.Duration) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return err
	}
	if err := s.denylist.Revoke(ctx, accessJTI, ttl); err != nil {
		logger.WarnContext(ctx, "Failed to revoke access token", "userID", userID, "error", err)
	}
	return nil
}

func (s *authService) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperr.Internal("failed to issue access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("failed to issue refresh token", err)
	}
	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	user.RefreshToken = refresh
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
