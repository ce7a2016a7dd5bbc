package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/linemk/grocery-shop/internal/app"
	"github.com/linemk/grocery-shop/internal/app/handlers"
	"github.com/linemk/grocery-shop/internal/config"
	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/grocery-shop/internal/lib/logger"
	"github.com/linemk/grocery-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/grocery-shop/internal/lib/metrics"
	"github.com/linemk/grocery-shop/internal/lib/ratelimit"
	"github.com/linemk/grocery-shop/internal/service"
	"github.com/linemk/grocery-shop/internal/storage"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// объект приложения: конфиг, БД, Redis
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	if cfg.HTTPServer.TrustProxy {
		router.Use(middleware.RealIP)
	}
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(metrics.Middleware)

	// слои по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	dashboardRepo := storage.NewDashboardRepository(application.DB)

	tokenTTL := time.Duration(cfg.JWT.TokenTTL) * time.Minute
	authService := service.NewAuthService(log, userRepo, cfg.JWT.Secret, tokenTTL)
	productService := service.NewProductService(log, productRepo)
	orderService := service.NewOrderService(log, application.DB, userRepo, productRepo, orderRepo)
	userService := service.NewUserService(log, userRepo, orderRepo)
	dashboardService := service.NewDashboardService(log, dashboardRepo, cfg.Shop.LowStockThreshold)

	router.Handle("/metrics", metrics.Handler())

	router.Post("/api/auth/register", handlers.RegisterHandler(log, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(log, authService))

	// публичный каталог
	router.Group(func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			limiter := ratelimit.New(application.Redis, cfg.RateLimit.Requests, cfg.RateLimit.Window)
			r.Use(ratelimit.Middleware(log, limiter))
		}
		r.Get("/api/products", handlers.ListProductsHandler(log, productService))
		r.Get("/api/products/search", handlers.SearchProductsHandler(log, productService))
		r.Get("/api/products/{id}", handlers.GetProductHandler(log, productService))
		r.Get("/api/categories", handlers.CategoriesHandler(log, productService))
	})

	jwtMW := jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret)
	// роль для админки читаем из БД: понижение действует сразу, а не после истечения токена
	currentRole := func(ctx context.Context, userID string) (string, error) {
		user, err := userRepo.GetUserByID(ctx, userID)
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", nil
		}
		if err != nil {
			log.Error("failed to resolve user role", slog.String("userID", userID), slog.Any("error", err))
			return "", err
		}
		return string(user.Role), nil
	}

	// заказы покупателя
	router.Group(func(r chi.Router) {
		r.Use(jwtMW)
		r.Post("/api/orders", handlers.PlaceOrderHandler(log, orderService))
		r.Post("/api/orders/create", handlers.PlaceOrderHandler(log, orderService))
		r.Get("/api/orders", handlers.ListMyOrdersHandler(log, orderService))
		r.Get("/api/orders/{id}", handlers.GetMyOrderHandler(log, orderService))
	})

	// админка
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(jwtMW)
		r.Use(jwtmiddleware.RequireRole(string(models.RoleAdmin), currentRole))

		r.Get("/dashboard", handlers.DashboardHandler(log, dashboardService))

		r.Get("/products", handlers.ListProductsHandler(log, productService))
		r.Post("/products", handlers.CreateProductHandler(log, productService))
		r.Get("/products/{id}", handlers.GetProductHandler(log, productService))
		r.Put("/products/{id}", handlers.UpdateProductHandler(log, productService))
		r.Delete("/products/{id}", handlers.DeleteProductHandler(log, productService))

		r.Get("/orders", handlers.AdminListOrdersHandler(log, orderService))
		r.Patch("/orders/{id}", handlers.UpdateOrderStatusHandler(log, orderService))

		r.Get("/users", handlers.AdminListUsersHandler(log, userService))
		r.Post("/users", handlers.AdminCreateUserHandler(log, userService))
		r.Post("/users/promote", handlers.AdminPromoteHandler(log, userService))
		r.Get("/users/{id}", handlers.AdminGetUserHandler(log, userService))
		r.Patch("/users/{id}", handlers.AdminUpdateRoleHandler(log, userService))
		r.Delete("/users/{id}", handlers.AdminDeleteUserHandler(log, userService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
