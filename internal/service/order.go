package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/lib/metrics"
	"github.com/linemk/grocery-shop/internal/lib/validate"
	"github.com/linemk/grocery-shop/internal/storage"
)

// MaxItemQuantity - предел количества в одной строке корзины
const MaxItemQuantity = 10000

// PlaceOrderItem - строка корзины в том виде, в каком её присылает витрина
type PlaceOrderItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=10000"`
	Price     decimal.Decimal `json:"price" validate:"gt=0"`
	Name      string          `json:"name" validate:"required"`
}

type PlaceOrderInput struct {
	Items         []PlaceOrderItem `json:"items" validate:"required,min=1,dive"`
	Total         decimal.Decimal  `json:"total" validate:"gt=0"`
	FullName      string           `json:"fullName" validate:"required"`
	Email         string           `json:"email" validate:"required,email"`
	Phone         string           `json:"phone" validate:"required"`
	Address       string           `json:"address" validate:"required"`
	City          string           `json:"city" validate:"required"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]*models.Order, error)
	GetUserOrder(ctx context.Context, userID, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	validate    *validator.Validate
	userRepo    storage.UserStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, userRepo storage.UserStorage, productRepo storage.ProductStorage, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		validate:    validate.New(),
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// PlaceOrder оформляет заказ: проверка остатков, запись заказа с позициями и списание
// остатков идут в одной транзакции. Любая ошибка откатывает всё целиком.
func (s *orderService) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*models.Order, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID))

	order, err := s.placeOrder(ctx, logger, userID, in)
	metrics.RecordOrderPlaced(orderResult(err))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *orderService) placeOrder(ctx context.Context, logger *slog.Logger, userID string, in PlaceOrderInput) (*models.Order, error) {
	if userID == "" {
		return nil, newError(ErrUnauthenticated, nil, "Unauthorized")
	}

	// витрина кладёт id товара в поле id, productId может отсутствовать
	for i := range in.Items {
		if in.Items[i].ProductID == "" {
			in.Items[i].ProductID = in.Items[i].ID
		}
	}
	if err := s.validate.Struct(in); err != nil {
		logger.Warn("invalid order request", slog.Any("error", err))
		return nil, newError(ErrInvalidInput, err, "Invalid order data: %s", validate.Message(err))
	}

	computed := decimal.Zero
	for _, item := range in.Items {
		computed = computed.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !computed.Round(2).Equal(in.Total.Round(2)) {
		logger.Warn("order total mismatch",
			slog.String("submitted", in.Total.String()),
			slog.String("computed", computed.String()))
		return nil, newError(ErrInvalidInput, nil,
			"Order total %s does not match items total %s", in.Total.StringFixed(2), computed.StringFixed(2))
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return nil, newError(ErrUserNotFound, err, "User not found")
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, internalError(err)
	}

	// одинаковые товары в разных строках проверяем по суммарному количеству;
	// блокируем строки в порядке id, чтобы параллельные заказы не ловили deadlock
	requested := make(map[string]int, len(in.Items))
	for _, item := range in.Items {
		requested[item.ProductID] += item.Quantity
		if requested[item.ProductID] > MaxItemQuantity {
			logger.Warn("requested quantity too large",
				slog.String("productID", item.ProductID),
				slog.Int("requested", requested[item.ProductID]))
			return nil, newError(ErrInvalidInput, nil,
				"Invalid order data: quantity of %s must be at most %d", item.Name, MaxItemQuantity)
		}
	}
	productIDs := make([]string, 0, len(requested))
	for id := range requested {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	logger.Info("starting order transaction", slog.Int("products", len(productIDs)))

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, internalError(err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
	}

	products := make(map[string]*models.Product, len(productIDs))
	for _, id := range productIDs {
		product, err := s.productRepo.LockProductTx(ctx, tx, id)
		if err != nil {
			rollback()
			if errors.Is(err, storage.ErrProductNotFound) {
				logger.Warn("product not found", slog.String("productID", id))
				return nil, newError(ErrProductNotFound, err, "Product not found: %s", id)
			}
			logger.Error("failed to lock product", slog.String("productID", id), slog.Any("error", err))
			return nil, internalError(err)
		}
		if product.Stock < requested[id] {
			rollback()
			logger.Warn("insufficient stock",
				slog.String("productID", id),
				slog.Int("requested", requested[id]),
				slog.Int("available", product.Stock))
			return nil, newError(ErrInsufficientStock, nil,
				"Insufficient stock for %s (requested %d, available %d)", product.Name, requested[id], product.Stock)
		}
		products[id] = product
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Status:        models.OrderStatusPending,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
		FullName:      in.FullName,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		City:          in.City,
		Items:         make([]models.OrderItem, 0, len(in.Items)),
	}
	total := decimal.Zero
	for _, item := range in.Items {
		product := products[item.ProductID]
		// цена в корзине должна точно совпадать с каталогом, без округления
		if !item.Price.Equal(product.Price) {
			rollback()
			logger.Warn("price mismatch",
				slog.String("productID", product.ID),
				slog.String("submitted", item.Price.String()),
				slog.String("current", product.Price.String()))
			return nil, newError(ErrInvalidInput, nil,
				"Price of %s has changed to %s, please review your cart", product.Name, product.Price.StringFixed(2))
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     product.Price,
			Name:      product.Name,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	// сумма заказа считается только по ценам каталога
	order.Total = total.Round(2)

	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		rollback()
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			logger.Warn("duplicate order", slog.Any("error", err))
			return nil, newError(ErrConflict, err, "Order already exists")
		case errors.Is(err, storage.ErrProductNotFound):
			logger.Warn("order item references missing product", slog.Any("error", err))
			return nil, newError(ErrProductNotFound, err, "Product not found")
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, internalError(err)
	}

	for _, id := range productIDs {
		if err := s.productRepo.DecrementStockTx(ctx, tx, id, requested[id]); err != nil {
			rollback()
			if errors.Is(err, storage.ErrOutOfStock) {
				logger.Warn("stock changed during order", slog.String("productID", id))
				return nil, newError(ErrInsufficientStock, err, "Insufficient stock for %s", products[id].Name)
			}
			logger.Error("failed to decrement stock", slog.String("productID", id), slog.Any("error", err))
			return nil, internalError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, internalError(err)
	}

	logger.Info("order placed", slog.String("orderID", order.ID), slog.String("total", order.Total.String()))
	return order, nil
}

// orderResult - метка для метрики orders_placed_total
func orderResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProductNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "error"
}

func (s *orderService) ListUserOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	const op = "service.OrderService.ListUserOrders"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID))

	orders, err := s.orderRepo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to list orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

// GetUserOrder отдаёт заказ только его владельцу, чужой заказ выглядит как несуществующий
func (s *orderService) GetUserOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	const op = "service.OrderService.GetUserOrder"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID), slog.String("orderID", orderID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrOrderNotFound, err, "Order not found"))
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}
	if order.UserID != userID {
		logger.Warn("order belongs to another user")
		return nil, fmt.Errorf("%s: %w", op, newError(ErrOrderNotFound, nil, "Order not found"))
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"

	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

// UpdateStatus меняет статус заказа. Остатки при отмене не возвращаются.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.String("orderID", orderID), slog.String("status", string(status)))

	if !status.IsValid() {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidInput, nil, "Invalid status: %q", status))
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrOrderNotFound, err, "Order not found"))
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		logger.Error("failed to reload order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, internalError(err))
	}

	logger.Info("order status updated")
	return order, nil
}
