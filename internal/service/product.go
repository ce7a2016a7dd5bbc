package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/lib/validate"
	"github.com/linemk/grocery-shop/internal/storage"
)

const (
	DefaultProductLimit = 50
	MaxProductLimit     = 100
	searchLimit         = 10
)

const defaultCategoryImage = "https://images.unsplash.com/photo-1542838132-92c53300491e"

var categoryImages = map[string]string{
	"Fruits":     "https://images.unsplash.com/photo-1619546813926-a78fa6372cd2",
	"Vegetables": "https://images.unsplash.com/photo-1598170845058-32b9d6a5da37",
	"Dairy":      "https://images.unsplash.com/photo-1550583724-b2692b85b150",
	"Bakery":     "https://images.unsplash.com/photo-1549931319-a545dcf3bc73",
	"Meat":       "https://images.unsplash.com/photo-1607623814075-e51df1bdc82f",
	"Beverages":  "https://images.unsplash.com/photo-1544145945-f90425340c7e",
	"Snacks":     "https://images.unsplash.com/photo-1621939514649-280e2ee25f60",
	"Household":  "https://images.unsplash.com/photo-1583947215259-38e31be8751f",
}

// CategoryImage возвращает картинку категории с параметрами кропа
func CategoryImage(category string) string {
	img, ok := categoryImages[category]
	if !ok {
		img = defaultCategoryImage
	}
	return img + "?auto=format&fit=crop&w=800&q=80"
}

type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
	Image        string `json:"image"`
}

// ProductInput - редактируемые поля товара
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Image       string          `json:"image" validate:"required,url"`
	Category    string          `json:"category" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Unit        string          `json:"unit" validate:"required"`
}

type ProductService interface {
	List(ctx context.Context, filter storage.ProductFilter) ([]*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Search(ctx context.Context, query string) ([]*models.Product, error)
	Categories(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, in ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, in ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	log         *slog.Logger
	validate    *validator.Validate
	productRepo storage.ProductStorage
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage) ProductService {
	return &productService{
		log:         log,
		validate:    validate.New(),
		productRepo: productRepo,
	}
}

// List отдаёт каталог. Лимит по умолчанию 50, больше 100 не отдаём.
func (s *productService) List(ctx context.Context, filter storage.ProductFilter) ([]*models.Product, error) {
	const op = "service.ProductService.List"

	if filter.Limit <= 0 {
		filter.Limit = DefaultProductLimit
	}
	if filter.Limit > MaxProductLimit {
		filter.Limit = MaxProductLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)

	products, err := s.productRepo.ListProducts(ctx, filter)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInternal, err, "Failed to fetch products. Please try again later."))
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id string) (*models.Product, error) {
	const op = "service.ProductService.Get"

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrProductNotFound, err, "Product not found"))
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.String("productID", id), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}
	return product, nil
}

// Search - быстрый поиск для строки поиска на витрине
func (s *productService) Search(ctx context.Context, query string) ([]*models.Product, error) {
	const op = "service.ProductService.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Product{}, nil
	}

	products, err := s.productRepo.SearchProducts(ctx, query, searchLimit)
	if err != nil {
		s.log.Error("failed to search products", slog.String("op", op), slog.String("query", query), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

func (s *productService) Categories(ctx context.Context) ([]Category, error) {
	const op = "service.ProductService.Categories"

	counts, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	categories := make([]Category, 0, len(counts))
	for _, c := range counts {
		categories = append(categories, Category{
			Name:         c.Category,
			ProductCount: c.ProductCount,
			Image:        CategoryImage(c.Category),
		})
	}
	return categories, nil
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	const op = "service.ProductService.Create"
	logger := s.log.With(slog.String("op", op), slog.String("name", in.Name))

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, err, "Invalid product data: %s", validate.Message(err)))
	}

	product, err := s.productRepo.CreateProduct(ctx, in.toModel(""))
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrConflict, err, "Product already exists"))
		}
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("product created", slog.String("productID", product.ID))
	return product, nil
}

func (s *productService) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	const op = "service.ProductService.Update"
	logger := s.log.With(slog.String("op", op), slog.String("productID", id))

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, err, "Invalid product data: %s", validate.Message(err)))
	}

	product, err := s.productRepo.UpdateProduct(ctx, in.toModel(id))
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrProductNotFound, err, "Product not found"))
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("product updated")
	return product, nil
}

// Delete не даёт удалить товар, который уже есть в заказах
func (s *productService) Delete(ctx context.Context, id string) error {
	const op = "service.ProductService.Delete"
	logger := s.log.With(slog.String("op", op), slog.String("productID", id))

	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrProductNotFound):
			return fmt.Errorf("%s: %w", op, newError(ErrProductNotFound, err, "Product not found"))
		case errors.Is(err, storage.ErrProductInUse):
			logger.Warn("product is referenced by orders")
			return fmt.Errorf("%s: %w", op, newError(ErrConflict, err, "Cannot delete product that is part of existing orders"))
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("product deleted")
	return nil
}

func (in ProductInput) toModel(id string) *models.Product {
	return &models.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		Category:    in.Category,
		Stock:       in.Stock,
		Unit:        in.Unit,
	}
}
