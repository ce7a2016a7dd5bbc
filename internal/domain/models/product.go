package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// цены отдаём числами, а не строками
	decimal.MarshalJSONWithoutQuotes = true
}

// Product представляет товар каталога
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Unit        string          `json:"unit"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CategoryCount - количество товаров в категории
type CategoryCount struct {
	Category     string
	ProductCount int
}
