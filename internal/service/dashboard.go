package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/storage"
)

const (
	dashboardRecentOrders = 5
	dashboardLowStock     = 5
	dashboardTopProducts  = 5
	dashboardRevenueDays  = 7
)

type DashboardCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type DashboardOrder struct {
	ID        string             `json:"id"`
	Total     decimal.Decimal    `json:"total"`
	Status    models.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	User      DashboardCustomer  `json:"user"`
}

type DashboardLowStock struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	Unit  string `json:"unit"`
}

type DashboardStatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int                `json:"count"`
}

type DashboardRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardTopProduct struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	TotalSold int             `json:"totalSold"`
}

type DashboardStats struct {
	TotalOrders      int                    `json:"totalOrders"`
	TotalRevenue     decimal.Decimal        `json:"totalRevenue"`
	TotalUsers       int                    `json:"totalUsers"`
	TotalProducts    int                    `json:"totalProducts"`
	RecentOrders     []DashboardOrder       `json:"recentOrders"`
	LowStockProducts []DashboardLowStock    `json:"lowStockProducts"`
	OrdersByStatus   []DashboardStatusCount `json:"ordersByStatus"`
	RevenueByDate    []DashboardRevenue     `json:"revenueByDate"`
	TopProducts      []DashboardTopProduct  `json:"topProducts"`
}

type DashboardService interface {
	GetStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	log               *slog.Logger
	repo              storage.DashboardStorage
	lowStockThreshold int
	now               func() time.Time
}

func NewDashboardService(log *slog.Logger, repo storage.DashboardStorage, lowStockThreshold int) DashboardService {
	return &dashboardService{
		log:               log,
		repo:              repo,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// GetStats собирает сводку для админской панели. Выручка по дням считается за последние
// 7 дней без отменённых заказов.
func (s *dashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	const op = "service.DashboardService.GetStats"
	logger := s.log.With(slog.String("op", op))

	fail := func(what string, err error) (*DashboardStats, error) {
		logger.Error("failed to load "+what, slog.Any("error", err))
		return nil, fmt.Errorf("%s: %s: %w", op, what, internalError(err))
	}

	totals, err := s.repo.GetTotals(ctx)
	if err != nil {
		return fail("totals", err)
	}
	recent, err := s.repo.RecentOrders(ctx, dashboardRecentOrders)
	if err != nil {
		return fail("recent orders", err)
	}
	lowStock, err := s.repo.LowStockProducts(ctx, s.lowStockThreshold, dashboardLowStock)
	if err != nil {
		return fail("low stock products", err)
	}
	byStatus, err := s.repo.OrdersByStatus(ctx)
	if err != nil {
		return fail("orders by status", err)
	}
	since := s.now().AddDate(0, 0, -dashboardRevenueDays)
	revenue, err := s.repo.RevenueByDate(ctx, since)
	if err != nil {
		return fail("revenue by date", err)
	}
	top, err := s.repo.TopProducts(ctx, dashboardTopProducts)
	if err != nil {
		return fail("top products", err)
	}

	stats := &DashboardStats{
		TotalOrders:      totals.TotalOrders,
		TotalRevenue:     totals.TotalRevenue,
		TotalUsers:       totals.TotalUsers,
		TotalProducts:    totals.TotalProducts,
		RecentOrders:     make([]DashboardOrder, 0, len(recent)),
		LowStockProducts: make([]DashboardLowStock, 0, len(lowStock)),
		OrdersByStatus:   make([]DashboardStatusCount, 0, len(byStatus)),
		RevenueByDate:    make([]DashboardRevenue, 0, len(revenue)),
		TopProducts:      make([]DashboardTopProduct, 0, len(top)),
	}
	for _, o := range recent {
		stats.RecentOrders = append(stats.RecentOrders, DashboardOrder{
			ID:        o.ID,
			Total:     o.Total,
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
			User:      DashboardCustomer{Name: o.UserName, Email: o.UserEmail},
		})
	}
	for _, p := range lowStock {
		stats.LowStockProducts = append(stats.LowStockProducts, DashboardLowStock{
			ID: p.ID, Name: p.Name, Stock: p.Stock, Unit: p.Unit,
		})
	}
	for _, c := range byStatus {
		stats.OrdersByStatus = append(stats.OrdersByStatus, DashboardStatusCount{Status: c.Status, Count: c.Count})
	}
	for _, r := range revenue {
		stats.RevenueByDate = append(stats.RevenueByDate, DashboardRevenue{
			Date:    r.Date.Format(time.DateOnly),
			Revenue: r.Revenue,
		})
	}
	for _, p := range top {
		stats.TopProducts = append(stats.TopProducts, DashboardTopProduct{
			ID: p.ProductID, Name: p.Name, Price: p.Price, TotalSold: p.TotalSold,
		})
	}

	logger.Debug("dashboard stats loaded", slog.Int("totalOrders", stats.TotalOrders))
	return stats, nil
}
