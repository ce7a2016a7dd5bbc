package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/grocery-shop/internal/service"
)

// AuthResponse представляет структуру ответа с JWT-токеном
type AuthResponse struct {
	Token string `json:"token"`
}

// RegisterHandler обрабатывает POST /api/auth/register
func RegisterHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req service.RegisterInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		token, err := authService.Register(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, AuthResponse{Token: token})
	}
}

// LoginHandler обрабатывает POST /api/auth/login
func LoginHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req service.LoginInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		token, err := authService.Login(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, AuthResponse{Token: token})
	}
}
