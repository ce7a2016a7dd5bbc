package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/service"
	"github.com/linemk/grocery-shop/internal/storage"
)

type fakeDashboardRepo struct {
	since     time.Time
	threshold int
	err       error
}

var _ storage.DashboardStorage = (*fakeDashboardRepo)(nil)

func (f *fakeDashboardRepo) GetTotals(ctx context.Context) (*models.DashboardTotals, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.DashboardTotals{TotalOrders: 3, TotalRevenue: decimal.RequireFromString("42.50"), TotalUsers: 2, TotalProducts: 4}, nil
}

func (f *fakeDashboardRepo) RecentOrders(ctx context.Context, limit int) ([]models.RecentOrder, error) {
	return []models.RecentOrder{{ID: "o-1", Total: decimal.RequireFromString("9.98"), Status: models.OrderStatusPending, UserName: "Alice", UserEmail: "alice@example.com"}}, nil
}

func (f *fakeDashboardRepo) LowStockProducts(ctx context.Context, threshold, limit int) ([]*models.Product, error) {
	f.threshold = threshold
	return []*models.Product{{ID: "p1", Name: "Bread", Stock: 3, Unit: "loaf"}}, nil
}

func (f *fakeDashboardRepo) OrdersByStatus(ctx context.Context) ([]models.StatusCount, error) {
	return []models.StatusCount{{Status: models.OrderStatusPending, Count: 2}, {Status: models.OrderStatusCancelled, Count: 1}}, nil
}

func (f *fakeDashboardRepo) RevenueByDate(ctx context.Context, since time.Time) ([]models.DailyRevenue, error) {
	f.since = since
	return []models.DailyRevenue{{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Revenue: decimal.RequireFromString("9.98")}}, nil
}

func (f *fakeDashboardRepo) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	return []models.TopProduct{{ProductID: "p2", Name: "Apples", Price: decimal.RequireFromString("4.99"), TotalSold: 7}}, nil
}

func TestDashboardStats(t *testing.T) {
	repo := &fakeDashboardRepo{}
	svc := service.NewDashboardService(testLogger(), repo, 10)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, "42.5", stats.TotalRevenue.String())
	assert.Equal(t, 10, repo.threshold)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), repo.since, time.Minute)

	require.Len(t, stats.RecentOrders, 1)
	assert.Equal(t, "Alice", stats.RecentOrders[0].User.Name)
	require.Len(t, stats.RevenueByDate, 1)
	assert.Equal(t, "2025-03-01", stats.RevenueByDate[0].Date)
	require.Len(t, stats.TopProducts, 1)
	assert.Equal(t, 7, stats.TopProducts[0].TotalSold)
	assert.Len(t, stats.OrdersByStatus, 2)
	assert.Len(t, stats.LowStockProducts, 1)
}

func TestDashboardStats_Error(t *testing.T) {
	svc := service.NewDashboardService(testLogger(), &fakeDashboardRepo{err: errors.New("db down")}, 10)

	_, err := svc.GetStats(context.Background())
	assert.ErrorIs(t, err, service.ErrInternal)
}
