package services

import (
	"fmt"
	"room-lab/auth"
	"room-lab/errors"
	"room-lab/mocks"
	"room-lab/repositories"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSecret = "a-test-secret-long-enough-for-hs256"

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	issuer := auth.NewTokenIssuer(testSecret, 24*time.Hour)
	svc := NewAuthService(mockRepo, issuer)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		email := "test@example.com"
		password := "ComplexPass123!"

		// CreateUser receives a hash, never the plain password
		mockRepo.EXPECT().
			CreateUser(email, "Alice", gomock.Not(password)).
			Return("user-uuid", nil).
			Times(1)

		token, err := svc.Register(email, "Alice", password)

		req.NoError(err)
		identity, err := issuer.Verify(string(token))
		req.NoError(err)
		req.Equal("user-uuid", identity.UserID)
		req.Equal("Alice", identity.DisplayName)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register("test@example.com", "Alice", "simple")

		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)
		email := "duplicate@example.com"

		mockRepo.EXPECT().
			CreateUser(email, "Alice", gomock.Any()).
			Return("", errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(email, "Alice", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})

	t.Run("should report store failures as unavailable", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", fmt.Errorf("disk full")).
			Times(1)

		_, err := svc.Register("other@example.com", "Bob", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrStoreUnavailable)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	issuer := auth.NewTokenIssuer(testSecret, 24*time.Hour)
	svc := NewAuthService(mockRepo, issuer)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"
		password := "Secret123456!"

		hashedPassword, err := auth.HashPassword(password)
		req.NoError(err)
		storedUser := repositories.User{
			ID:           "uuid-123",
			Email:        email,
			Name:         "Alice",
			PasswordHash: hashedPassword,
			Roles:        []string{"user"},
		}

		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(storedUser, nil).
			Times(1)

		token, err := svc.Login(email, password)

		req.NoError(err)
		claims, err := issuer.ValidateToken(string(token))
		req.NoError(err)
		req.Equal(storedUser.ID, claims.UserID)
		req.Equal("Alice", claims.Name)
	})

	t.Run("should return invalid credentials when password matches nothing", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"

		hashedPassword, err := auth.HashPassword("CorrectPassword123!")
		req.NoError(err)
		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(repositories.User{Email: email, PasswordHash: hashedPassword}, nil).
			Times(1)

		_, err = svc.Login(email, "WrongPassword123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("unknown@example.com").
			Return(repositories.User{}, badger.ErrKeyNotFound).
			Times(1)

		_, err := svc.Login("unknown@example.com", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}

func TestAuthService_Me(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, auth.NewTokenIssuer(testSecret, time.Hour))

	mockRepo.EXPECT().GetUserByID("uuid-123").
		Return(repositories.User{ID: "uuid-123", Name: "Alice", PasswordHash: "secret"}, nil)
	mockRepo.EXPECT().GetUserByID("ghost").
		Return(repositories.User{}, badger.ErrKeyNotFound)

	user, err := svc.Me("uuid-123")
	req.NoError(err)
	req.Equal("Alice", user.Name)
	req.Empty(user.PasswordHash)

	_, err = svc.Me("ghost")
	req.ErrorIs(err, errors.ErrNotFound)
}
