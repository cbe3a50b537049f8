package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		svc := NewAuthService(userRepo, security.NewTokenManager(testSecret, 0, 0), nil)

		userRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@test.com" && u.Role == domain.UserRoleCustomer &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
		})).Run(func(args mock.Arguments) { args.Get(1).(*domain.User).ID = 7 }).Return(nil)
		userRepo.On("UpdateRefreshToken", ctx, int32(7), mock.AnythingOfType("string")).Return(nil)

		res, err := svc.Register(ctx, RegisterInput{Name: "New", Email: " New@Test.com ", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)
		assert.Equal(t, res.RefreshToken, res.User.RefreshToken)
	})

	t.Run("Short password", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepo), security.NewTokenManager(testSecret, 0, 0), nil)
		_, err := svc.Register(ctx, RegisterInput{Name: "New", Email: "new@test.com", Password: "short"})
		assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	})

	t.Run("Duplicate email", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		svc := NewAuthService(userRepo, security.NewTokenManager(testSecret, 0, 0), nil)
		userRepo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate)

		_, err := svc.Register(ctx, RegisterInput{Name: "New", Email: "new@test.com", Password: "password123"})
		assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
		assert.Contains(t, err.Error(), "already registered")
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: 7, Email: "c@test.com", PasswordHash: string(hash), Role: domain.UserRoleCustomer}

	userRepo := new(MockUserRepo)
	svc := NewAuthService(userRepo, security.NewTokenManager(testSecret, 0, 0), nil)
	userRepo.On("GetByEmail", ctx, "c@test.com").Return(user, nil)
	userRepo.On("GetByEmail", ctx, "nobody@test.com").Return(nil, sql.ErrNoRows)
	userRepo.On("UpdateRefreshToken", ctx, int32(7), mock.AnythingOfType("string")).Return(nil)

	res, err := svc.Login(ctx, "c@test.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, int32(7), res.User.ID)

	_, err = svc.Login(ctx, "c@test.com", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))

	_, err = svc.Login(ctx, "nobody@test.com", "password123")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	tokens := security.NewTokenManager(testSecret, 0, 0)
	stored, err := tokens.GenerateRefreshToken(7, "c@test.com")
	require.NoError(t, err)
	access, err := tokens.GenerateAccessToken(7, "c@test.com", "customer")
	require.NoError(t, err)

	t.Run("Rotates the stored token", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		svc := NewAuthService(userRepo, tokens, nil)
		userRepo.On("GetByID", ctx, int32(7)).Return(&domain.User{ID: 7, Email: "c@test.com", Role: domain.UserRoleCustomer, RefreshToken: stored}, nil)
		userRepo.On("UpdateRefreshToken", ctx, int32(7), mock.AnythingOfType("string")).Return(nil)

		res, err := svc.Refresh(ctx, stored)
		require.NoError(t, err)
		assert.NotEqual(t, stored, res.RefreshToken)
	})

	t.Run("Superseded token", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		svc := NewAuthService(userRepo, tokens, nil)
		userRepo.On("GetByID", ctx, int32(7)).Return(&domain.User{ID: 7, RefreshToken: "something-newer"}, nil)

		_, err := svc.Refresh(ctx, stored)
		assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	})

	t.Run("Access token is not a refresh token", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepo), tokens, nil)
		_, err := svc.Refresh(ctx, access)
		assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	})
}

type recordingDenylist struct {
	jti string
	ttl time.Duration
}

func (d *recordingDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	d.jti, d.ttl = jti, ttl
	return nil
}

func (d *recordingDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return d.jti == jti, nil
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepo)
	denylist := &recordingDenylist{}
	svc := NewAuthService(userRepo, security.NewTokenManager(testSecret, 0, 0), denylist)
	userRepo.On("UpdateRefreshToken", ctx, int32(7), "").Return(nil)

	require.NoError(t, svc.Logout(ctx, 7, "jti-1", 10*time.Minute))
	assert.Equal(t, "jti-1", denylist.jti)
	assert.Equal(t, 10*time.Minute, denylist.ttl)
	userRepo.AssertExpectations(t)
}
