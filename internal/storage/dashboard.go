package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

// DashboardStorage - агрегаты для админской панели
type DashboardStorage interface {
	GetTotals(ctx context.Context) (*models.DashboardTotals, error)
	RecentOrders(ctx context.Context, limit int) ([]models.RecentOrder, error)
	LowStockProducts(ctx context.Context, threshold, limit int) ([]*models.Product, error)
	OrdersByStatus(ctx context.Context) ([]models.StatusCount, error)
	RevenueByDate(ctx context.Context, since time.Time) ([]models.DailyRevenue, error)
	TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error)
}

type dashboardRepository struct {
	db *sql.DB
}

func NewDashboardRepository(db *sql.DB) DashboardStorage {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) GetTotals(ctx context.Context) (*models.DashboardTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total), 0) FROM orders),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products)`
	t := &models.DashboardTotals{}
	if err := r.db.QueryRowContext(ctx, query).Scan(&t.TotalOrders, &t.TotalRevenue, &t.TotalUsers, &t.TotalProducts); err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	return t, nil
}

func (r *dashboardRepository) RecentOrders(ctx context.Context, limit int) ([]models.RecentOrder, error) {
	query := `
		SELECT o.id, o.total, o.status, o.created_at, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent orders: %w", err)
	}
	defer rows.Close()

	var orders []models.RecentOrder
	for rows.Next() {
		var o models.RecentOrder
		if err := rows.Scan(&o.ID, &o.Total, &o.Status, &o.CreatedAt, &o.UserName, &o.UserEmail); err != nil {
			return nil, fmt.Errorf("failed to scan recent order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *dashboardRepository) LowStockProducts(ctx context.Context, threshold, limit int) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE stock <= $1 ORDER BY stock ASC LIMIT $2",
		threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	return scanProducts(rows)
}

func (r *dashboardRepository) OrdersByStatus(ctx context.Context) ([]models.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to query orders by status: %w", err)
	}
	defer rows.Close()

	var counts []models.StatusCount
	for rows.Next() {
		var c models.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// RevenueByDate - выручка по дням, отменённые заказы не учитываются
func (r *dashboardRepository) RevenueByDate(ctx context.Context, since time.Time) ([]models.DailyRevenue, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day, SUM(total)
		FROM orders
		WHERE created_at >= $1 AND status <> $2
		GROUP BY day
		ORDER BY day`
	rows, err := r.db.QueryContext(ctx, query, since, models.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue: %w", err)
	}
	defer rows.Close()

	var revenue []models.DailyRevenue
	for rows.Next() {
		var d models.DailyRevenue
		if err := rows.Scan(&d.Date, &d.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan revenue: %w", err)
		}
		revenue = append(revenue, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return revenue, nil
}

func (r *dashboardRepository) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	query := `
		SELECT p.id, p.name, p.price, SUM(oi.quantity) AS sold
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		GROUP BY p.id
		ORDER BY sold DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	var top []models.TopProduct
	for rows.Next() {
		var p models.TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Price, &p.TotalSold); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		top = append(top, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return top, nil
}
