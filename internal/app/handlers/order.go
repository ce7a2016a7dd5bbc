package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/grocery-shop/internal/service"
)

// OrderSummary - заказ в ответе на оформление
type OrderSummary struct {
	ID     string             `json:"id"`
	Total  decimal.Decimal    `json:"total"`
	Status models.OrderStatus `json:"status"`
	Items  []models.OrderItem `json:"items"`
}

// PlaceOrderResponse - ответ при успешном оформлении заказа
type PlaceOrderResponse struct {
	Success bool         `json:"success"`
	OrderID string       `json:"orderId"`
	Message string       `json:"message"`
	Order   OrderSummary `json:"order"`
}

// PlaceOrderHandler обрабатывает POST /api/orders
func PlaceOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		// userID кладёт JWT middleware
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Warn("userID not found in context")
			writeMessage(w, logger, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req service.PlaceOrderInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		order, err := orderService.PlaceOrder(r.Context(), userID, req)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, PlaceOrderResponse{
			Success: true,
			OrderID: order.ID,
			Message: "Order placed successfully",
			Order: OrderSummary{
				ID:     order.ID,
				Total:  order.Total,
				Status: order.Status,
				Items:  order.Items,
			},
		})
	}
}

// ListMyOrdersHandler обрабатывает GET /api/orders
func ListMyOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListMyOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			writeMessage(w, logger, http.StatusUnauthorized, "Unauthorized")
			return
		}

		orders, err := orderService.ListUserOrders(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// GetMyOrderHandler обрабатывает GET /api/orders/{id}
func GetMyOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetMyOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			writeMessage(w, logger, http.StatusUnauthorized, "Unauthorized")
			return
		}

		order, err := orderService.GetUserOrder(r.Context(), userID, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}
