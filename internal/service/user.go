package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/lib/validate"
	"github.com/linemk/grocery-shop/internal/storage"
)

type CreateUserInput struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// UserWithOrders - карточка пользователя в админке
type UserWithOrders struct {
	*models.User
	Orders []*models.Order `json:"orders"`
}

type UserService interface {
	List(ctx context.Context) ([]*models.UserSummary, error)
	Get(ctx context.Context, id string) (*UserWithOrders, error)
	Create(ctx context.Context, in CreateUserInput) (*models.User, error)
	UpdateRole(ctx context.Context, actorID, id string, role models.Role) (*models.User, error)
	ToggleRole(ctx context.Context, actorID, id string) (*models.User, error)
	Delete(ctx context.Context, actorID, id string) error
}

type userService struct {
	log       *slog.Logger
	validate  *validator.Validate
	userRepo  storage.UserStorage
	orderRepo storage.OrderStorage
}

func NewUserService(log *slog.Logger, userRepo storage.UserStorage, orderRepo storage.OrderStorage) UserService {
	return &userService{
		log:       log,
		validate:  validate.New(),
		userRepo:  userRepo,
		orderRepo: orderRepo,
	}
}

func (s *userService) List(ctx context.Context) ([]*models.UserSummary, error) {
	const op = "service.UserService.List"

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		s.log.Error("failed to list users", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}
	if users == nil {
		users = []*models.UserSummary{}
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id string) (*UserWithOrders, error) {
	const op = "service.UserService.Get"
	logger := s.log.With(slog.String("op", op), slog.String("userID", id))

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrUserNotFound, err, "User not found"))
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	orders, err := s.orderRepo.ListOrdersByUserID(ctx, id)
	if err != nil {
		logger.Error("failed to list user orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return &UserWithOrders{User: user, Orders: orders}, nil
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	const op = "service.UserService.Create"
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	logger := s.log.With(slog.String("op", op), slog.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, err, "Invalid user data: %s", validate.Message(err)))
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	user, err := s.userRepo.CreateUser(ctx, &models.User{
		Name:     in.Name,
		Email:    in.Email,
		PassHash: passHash,
		Role:     in.Role,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrConflict, err, "User with this email already exists"))
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("user created", slog.String("userID", user.ID), slog.String("role", string(user.Role)))
	return user, nil
}

// UpdateRole назначает роль. Админ не может снять права с самого себя.
func (s *userService) UpdateRole(ctx context.Context, actorID, id string, role models.Role) (*models.User, error) {
	const op = "service.UserService.UpdateRole"
	logger := s.log.With(slog.String("op", op), slog.String("userID", id), slog.String("role", string(role)))

	if !role.IsValid() {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, nil, "Invalid role"))
	}
	if actorID == id && role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, nil, "Cannot remove your own admin role"))
	}

	user, err := s.userRepo.UpdateUserRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrUserNotFound, err, "User not found"))
		}
		logger.Error("failed to update role", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("user role updated")
	return user, nil
}

// ToggleRole переключает USER <-> ADMIN
func (s *userService) ToggleRole(ctx context.Context, actorID, id string) (*models.User, error) {
	const op = "service.UserService.ToggleRole"

	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, nil, "User ID is required"))
	}
	if actorID == id {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, nil, "Cannot change your own role"))
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrUserNotFound, err, "User not found"))
		}
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	next := models.RoleAdmin
	if user.Role == models.RoleAdmin {
		next = models.RoleUser
	}
	return s.UpdateRole(ctx, actorID, id, next)
}

// Delete удаляет пользователя без заказов. Удалить себя нельзя.
func (s *userService) Delete(ctx context.Context, actorID, id string) error {
	const op = "service.UserService.Delete"
	logger := s.log.With(slog.String("op", op), slog.String("userID", id))

	if actorID == id {
		return fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, nil, "Cannot delete your own account"))
	}

	count, err := s.orderRepo.CountOrdersByUserID(ctx, id)
	if err != nil {
		logger.Error("failed to count orders", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, internalError(err))
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, nil, "Cannot delete user with existing orders"))
	}

	if err := s.userRepo.DeleteUser(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return fmt.Errorf("%s: %w", op, newError(ErrUserNotFound, err, "User not found"))
		case errors.Is(err, storage.ErrUserHasOrders):
			// заказ мог появиться между проверкой и удалением
			return fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, err, "Cannot delete user with existing orders"))
		}
		logger.Error("failed to delete user", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("user deleted")
	return nil
}
