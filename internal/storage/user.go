package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.UserSummary, error)
	UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

const userColumns = "id, name, email, pass_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PassHash, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}
	return user, nil
}

// получение уже существующего пользователя
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateUser сохраняет пользователя, id генерируется на нашей стороне
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (id, name, email, pass_hash, role) VALUES ($1, $2, $3, $4, $5) RETURNING created_at",
		user.ID, user.Name, user.Email, user.PassHash, user.Role,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// ListUsers возвращает пользователей вместе с количеством заказов, новые сверху
func (r *userRepository) ListUsers(ctx context.Context) ([]*models.UserSummary, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.created_at, COUNT(o.id)
		FROM users u
		LEFT JOIN orders o ON o.user_id = u.id
		GROUP BY u.id
		ORDER BY u.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.UserSummary
	for rows.Next() {
		u := &models.UserSummary{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		"UPDATE users SET role = $1 WHERE id = $2 RETURNING "+userColumns, role, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	return user, nil
}

func (r *userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserHasOrders
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
