package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardTotals - общие счётчики для админской панели
type DashboardTotals struct {
	TotalOrders   int
	TotalRevenue  decimal.Decimal
	TotalUsers    int
	TotalProducts int
}

// RecentOrder - заказ с данными покупателя
type RecentOrder struct {
	ID        string
	Total     decimal.Decimal
	Status    OrderStatus
	CreatedAt time.Time
	UserName  string
	UserEmail string
}

type StatusCount struct {
	Status OrderStatus
	Count  int
}

type DailyRevenue struct {
	Date    time.Time
	Revenue decimal.Decimal
}

// TopProduct - товар с суммарным количеством проданных единиц
type TopProduct struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	TotalSold int
}
