package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

// ProductFilter параметры выборки каталога
type ProductFilter struct {
	Category string
	Search   string
	Sort     string
	Limit    int
}

// ProductStorage описывает методы для работы с таблицей товаров.
type ProductStorage interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]models.CategoryCount, error)
	// LockProductTx читает товар и блокирует строку до конца транзакции.
	LockProductTx(ctx context.Context, tx *sql.Tx, id string) (*models.Product, error)
	// DecrementStockTx списывает остаток, не опуская его ниже нуля.
	DecrementStockTx(ctx context.Context, tx *sql.Tx, id string, quantity int) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, name, description, price, image, category, stock, unit, created_at, updated_at"

// допустимые варианты сортировки, всё остальное - по дате создания
var productSort = map[string]string{
	"price_asc":  "price ASC",
	"price_desc": "price DESC",
	"name_asc":   "name ASC",
	"name_desc":  "name DESC",
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.Stock, &p.Unit, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProducts(rows *sql.Rows) ([]*models.Product, error) {
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	orderBy, ok := productSort[filter.Sort]
	if !ok {
		orderBy = "created_at DESC"
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY %s LIMIT $%d", orderBy, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return scanProducts(rows)
}

// SearchProducts ищет по названию, описанию и категории
func (r *productRepository) SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+` FROM products
		WHERE name ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY name ASC LIMIT $2`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return scanProducts(rows)
}

func (r *productRepository) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `INSERT INTO products (id, name, description, price, image, category, stock, unit)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Image, p.Category, p.Stock, p.Unit,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `UPDATE products
	          SET name = $1, description = $2, price = $3, image = $4, category = $5, stock = $6, unit = $7, updated_at = NOW()
	          WHERE id = $8
	          RETURNING ` + productColumns
	row := r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Price, p.Image, p.Category, p.Stock, p.Unit, p.ID)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// DeleteProduct удаляет товар; если на него ссылаются заказы, БД вернёт нарушение FK
func (r *productRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT category, COUNT(id) FROM products GROUP BY category ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.CategoryCount
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// LockProductTx берёт строку товара под FOR UPDATE: параллельная транзакция,
// оформляющая заказ на тот же товар, дождётся нашего commit/rollback и прочитает
// уже актуальный остаток.
func (r *productRepository) LockProductTx(ctx context.Context, tx *sql.Tx, id string) (*models.Product, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) DecrementStockTx(ctx context.Context, tx *sql.Tx, id string, quantity int) error {
	// неположительное списание увеличило бы остаток
	if quantity <= 0 {
		return fmt.Errorf("failed to decrement stock: invalid quantity %d", quantity)
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
		quantity, id)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOutOfStock
	}
	return nil
}
