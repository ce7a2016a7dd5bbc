package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/grocery-shop/internal/domain/models"
	security "github.com/linemk/grocery-shop/internal/jwt-new"
	"github.com/linemk/grocery-shop/internal/lib/validate"
	"github.com/linemk/grocery-shop/internal/storage"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, in LoginInput) (string, error)
}

type authService struct {
	log      *slog.Logger
	validate *validator.Validate
	userRepo storage.UserStorage
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		log:      log,
		validate: validate.New(),
		userRepo: userRepo,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Register создаёт покупателя с ролью USER и сразу выдаёт ему токен.
// Пароль хэшируется bcrypt (соль добавляется автоматически).
func (a *authService) Register(ctx context.Context, in RegisterInput) (string, error) {
	const op = "service.AuthService.Register"
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	logger := a.log.With(slog.String("op", op), slog.String("email", in.Email))

	if err := a.validate.Struct(in); err != nil {
		return "", fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, err, "Invalid registration data: %s", validate.Message(err)))
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, internalError(err))
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Name:     in.Name,
		Email:    in.Email,
		PassHash: passHash,
		Role:     models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			logger.Warn("email already registered")
			return "", fmt.Errorf("%s: %w", op, newError(ErrConflict, err, "User with this email already exists"))
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, internalError(err))
	}

	token, err := security.NewToken(user, a.secret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("user registered", slog.String("userID", user.ID))
	return token, nil
}

// Login проверяет email и пароль. Неизвестный email и неверный пароль неразличимы для клиента.
func (a *authService) Login(ctx context.Context, in LoginInput) (string, error) {
	const op = "service.AuthService.Login"
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	logger := a.log.With(slog.String("op", op), slog.String("email", in.Email))

	if err := a.validate.Struct(in); err != nil {
		return "", fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, err, "Invalid credentials: %s", validate.Message(err)))
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, newError(ErrUnauthenticated, err, "Invalid email or password"))
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, internalError(err))
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(in.Password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, newError(ErrUnauthenticated, err, "Invalid email or password"))
	}

	token, err := security.NewToken(user, a.secret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("user logged in successfully", slog.String("userID", user.ID))
	return token, nil
}
