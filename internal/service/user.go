package service

import (
	"context"
	"database/sql"
	"errors"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Me(ctx context.Context, userID int32) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int32, in ProfileUpdate) (*domain.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		user.Name = *in.Name
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if in.PushToken != nil {
		user.PushToken = *in.PushToken
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int32, currentPassword, newPassword string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperr.Validation("current password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

func (s *userService) ListUsers(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error) {
	return s.userRepo.List(ctx, page, pageSize)
}

func (s *userService) SetRole(ctx context.Context, adminID, userID int32, role domain.UserRole) error {
	if !role.Valid() {
		return apperr.Validation("invalid role")
	}
	if adminID == userID && role != domain.UserRoleAdmin {
		return apperr.Validation("admins cannot remove their own admin role")
	}
	err := s.userRepo.UpdateRole(ctx, userID, role)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("user")
	}
	return err
}
