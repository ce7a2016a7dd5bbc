package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/linemk/grocery-shop/internal/service"
	"github.com/linemk/grocery-shop/internal/storage"
)

// ListProductsHandler обрабатывает GET /api/products?category=&search=&sort=&limit=
func ListProductsHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		q := r.URL.Query()
		filter := storage.ProductFilter{
			Category: q.Get("category"),
			Search:   q.Get("search"),
			Sort:     q.Get("sort"),
		}
		if raw := q.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				writeMessage(w, logger, http.StatusBadRequest, "limit must be a number")
				return
			}
			filter.Limit = limit
		}

		products, err := productService.List(r.Context(), filter)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// GetProductHandler обрабатывает GET /api/products/{id}
func GetProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.GetProductHandler"))

		product, err := productService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// SearchProductsHandler обрабатывает GET /api/products/search?q=
func SearchProductsHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.SearchProductsHandler"))

		products, err := productService.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// CategoriesHandler обрабатывает GET /api/categories
func CategoriesHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CategoriesHandler"))

		categories, err := productService.Categories(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, categories)
	}
}
