package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmarjanovic/tasklist-api/internal/auth"
	"github.com/dmarjanovic/tasklist-api/internal/model"
	"github.com/dmarjanovic/tasklist-api/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
	// одно сообщение для неизвестного email и неверного пароля
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const bcryptCost = 10

type AuthService struct {
	users  repo.UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repo.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register хэширует пароль, сохраняет пользователя и сразу выдает токен.
// Дубликат email приходит из репозитория как repo.ErrorConflict.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (string, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return "", ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	user, err := s.users.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(user.ID, user.Email)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID, user.Email)
}
