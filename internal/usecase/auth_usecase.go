package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/plastinin/stepconverter/internal/domain"
	"go.uber.org/zap"
)

// AuthUseCase регистрация и проверка учётных данных. Сессий нет.
type AuthUseCase struct {
	users  UserRepository
	hasher PasswordHasher
	logger *zap.Logger
}

// NewAuthUseCase создаёт новый экземпляр AuthUseCase
func NewAuthUseCase(users UserRepository, hasher PasswordHasher, logger *zap.Logger) *AuthUseCase {
	return &AuthUseCase{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Register создаёт пользователя
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, domain.ErrMissingFields
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	// Быстрая проверка; гонку закрывает уникальный индекс в БД
	_, err := uc.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserAlreadyExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("failed to check user: %w", err)
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.NewUser(name, email, hash)
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	uc.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
	)

	return user, nil
}

// Login проверяет email и пароль
func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, domain.ErrMissingFields
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := uc.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		uc.logger.Debug("Password mismatch", zap.String("user_id", user.ID.String()))
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}
