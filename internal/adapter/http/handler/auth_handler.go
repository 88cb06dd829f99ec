package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/plastinin/stepconverter/internal/adapter/http/dto"
	"github.com/plastinin/stepconverter/internal/domain"
	"github.com/plastinin/stepconverter/internal/usecase"
	"go.uber.org/zap"
)

const maxAuthBodyBytes = 16 << 10 // 16 KB

// AuthService то, что AuthHandler ждёт от слоя use case
type AuthService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input usecase.LoginInput) (*domain.User, error)
}

// AuthHandler регистрация и вход
type AuthHandler struct {
	auth   AuthService
	logger *zap.Logger
}

// NewAuthHandler создаёт новый AuthHandler
func NewAuthHandler(auth AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

// Register создаёт пользователя
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes), &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, err := h.auth.Register(r.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			respondError(w, h.logger, http.StatusConflict, "user_exists", "User with this email already exists")
		case errors.Is(err, domain.ErrMissingFields),
			errors.Is(err, domain.ErrInvalidEmail),
			errors.Is(err, domain.ErrWeakPassword):
			respondError(w, h.logger, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			h.logger.Error("Failed to register user", zap.Error(err))
			respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to register user")
		}
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, dto.UserFromDomain(user))
}

// Login проверяет учётные данные
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes), &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	_, err := h.auth.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			respondError(w, h.logger, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, domain.ErrInvalidCredentials):
			respondError(w, h.logger, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		default:
			h.logger.Error("Failed to log in", zap.Error(err))
			respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to log in")
		}
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.StatusResponse{Status: "ok"})
}
