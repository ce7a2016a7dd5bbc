package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ и все его позиции в рамках транзакции.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	// ListOrdersByUserID возвращает заказы пользователя, новые сверху.
	ListOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
	CountOrdersByUserID(ctx context.Context, userID string) (int, error)
}

// orderRepository - конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, status, payment_method, payment_status, total,
	full_name, email, phone, address, city, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentStatus, &o.Total,
		&o.FullName, &o.Email, &o.Phone, &o.Address, &o.City, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOrderTx вставляет заказ, а затем одной командой все позиции.
func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (id, user_id, status, payment_method, payment_status, total, full_name, email, phone, address, city)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING created_at, updated_at`
	err := tx.QueryRowContext(ctx, query,
		order.ID, order.UserID, order.Status, order.PaymentMethod, order.PaymentStatus, order.Total,
		order.FullName, order.Email, order.Phone, order.Address, order.City,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}

	values := make([]string, 0, len(order.Items))
	args := make([]any, 0, len(order.Items)*6)
	for i, item := range order.Items {
		n := i * 6
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6))
		args = append(args, item.ID, order.ID, item.ProductID, item.Quantity, item.Price, item.Name)
	}
	itemsQuery := "INSERT INTO order_items (id, order_id, product_id, quantity, price, name) VALUES " +
		strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, itemsQuery, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to create order items: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.attachItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	return r.listOrders(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return r.listOrders(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems подгружает позиции сразу для всех заказов одним запросом
func (r *orderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	byID := make(map[string]*models.Order, len(orders))
	for _, o := range orders {
		o.Items = []models.OrderItem{}
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, quantity, price, name FROM order_items WHERE order_id = ANY($1) ORDER BY name",
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.Name); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) CountOrdersByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE user_id = $1", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}
