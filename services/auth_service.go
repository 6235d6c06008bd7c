package services

import (
	"fmt"
	"room-lab/auth"
	"room-lab/errors"
	"room-lab/repositories"

	"github.com/dgraph-io/badger/v4"
)

type IAuthService interface {
	Register(email, name, password string) (Token, error)
	Login(email, password string) (Token, error)
	Me(userID string) (repositories.User, error)
}

// TokenGenerator signs the session token handed back on register and login.
type TokenGenerator interface {
	GenerateToken(userID, name string, roles []string) (string, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         TokenGenerator
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokens TokenGenerator) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(email, name, password string) (Token, error) {
	// Business rules are checked before any expensive cryptographic operation.
	if err := auth.ValidateRegister(auth.RegisterRequest{Email: email, Name: name, Password: password}); err != nil {
		return "", err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, name, hashedPassword)
	if err != nil {
		if errors.Is(err, errors.ErrUserAlreadyExists) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	token, err := s.tokens.GenerateToken(userID, name, []string{"user"})
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Same error whatever happened, accounts can't be enumerated
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Name, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Me(userID string) (repositories.User, error) {
	user, err := s.userRepository.GetUserByID(userID)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return repositories.User{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, userID)
	case err != nil:
		return repositories.User{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	user.PasswordHash = ""
	return user, nil
}
