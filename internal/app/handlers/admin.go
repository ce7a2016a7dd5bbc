package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/grocery-shop/internal/service"
)

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type UpdateRoleRequest struct {
	Role models.Role `json:"role"`
}

type PromoteRequest struct {
	UserID string `json:"userId"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Товары

func CreateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CreateProductHandler"))

		var req service.ProductInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		product, err := productService.Create(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, product)
	}
}

func UpdateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateProductHandler"))

		var req service.ProductInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		product, err := productService.Update(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

func DeleteProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DeleteProductHandler"))

		if err := productService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
	}
}

// Заказы

func AdminListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminListOrdersHandler"))

		orders, err := orderService.ListOrders(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// UpdateOrderStatusHandler обрабатывает PATCH /api/admin/orders/{id}
func UpdateOrderStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateOrderStatusHandler"))

		var req UpdateStatusRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		order, err := orderService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// Пользователи

func AdminListUsersHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminListUsersHandler"))

		users, err := userService.List(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, users)
	}
}

func AdminGetUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminGetUserHandler"))

		user, err := userService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

func AdminCreateUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminCreateUserHandler"))

		var req service.CreateUserInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		user, err := userService.Create(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, user)
	}
}

// AdminUpdateRoleHandler обрабатывает PATCH /api/admin/users/{id}
func AdminUpdateRoleHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminUpdateRoleHandler"))

		actorID, _ := jwtmiddleware.FromContext(r.Context())
		var req UpdateRoleRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		user, err := userService.UpdateRole(r.Context(), actorID, chi.URLParam(r, "id"), req.Role)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// AdminPromoteHandler обрабатывает POST /api/admin/users/promote
func AdminPromoteHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminPromoteHandler"))

		actorID, _ := jwtmiddleware.FromContext(r.Context())
		var req PromoteRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		user, err := userService.ToggleRole(r.Context(), actorID, req.UserID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

func AdminDeleteUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminDeleteUserHandler"))

		actorID, _ := jwtmiddleware.FromContext(r.Context())
		if err := userService.Delete(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
	}
}

// DashboardHandler обрабатывает GET /api/admin/dashboard
func DashboardHandler(log *slog.Logger, dashboardService service.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DashboardHandler"))

		stats, err := dashboardService.GetStats(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}
