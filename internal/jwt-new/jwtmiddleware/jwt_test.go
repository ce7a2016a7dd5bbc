package jwtmiddleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/domain/models"
	security "github.com/linemk/grocery-shop/internal/jwt-new"
	"github.com/linemk/grocery-shop/internal/jwt-new/jwtmiddleware"
)

const testSecret = "testsecret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			http.Error(w, "userID not found", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(userID + "|" + jwtmiddleware.RoleFromContext(r.Context())))
	})
}

func TestJWTMiddleware_MissingAuthorization(t *testing.T) {
	handler := jwtmiddleware.NewJWTMiddleware(testSecret)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status when no token provided")
	assert.True(t, strings.Contains(rr.Body.String(), "missing token"))
}

func TestJWTMiddleware_InvalidAuthorizationFormat(t *testing.T) {
	handler := jwtmiddleware.NewJWTMiddleware(testSecret)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "InvalidFormat")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "invalid token format"))
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	handler := jwtmiddleware.NewJWTMiddleware(testSecret)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer invalid.token.value")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "invalid token"))
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "a@b.co", Role: models.RoleUser}
	tokenStr, err := security.NewToken(user, "other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	jwtmiddleware.NewJWTMiddleware(testSecret)(okHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "a@b.co", Role: models.RoleUser}
	tokenStr, err := security.NewToken(user, testSecret, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	jwtmiddleware.NewJWTMiddleware(testSecret)(okHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	user := &models.User{ID: "u-123", Email: "a@b.co", Role: models.RoleAdmin}
	tokenStr, err := security.NewToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	jwtmiddleware.NewJWTMiddleware(testSecret)(okHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected OK status for valid token")
	assert.Equal(t, "u-123|ADMIN", rr.Body.String())
}

func TestJWTMiddleware_TokenWithoutSub(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "ADMIN"})
	tokenStr, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	jwtmiddleware.NewJWTMiddleware(testSecret)(okHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	handler := jwtmiddleware.RequireRole("ADMIN", nil)(okHandler())

	// нет пользователя в контексте
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// обычный пользователь
	ctx := context.WithValue(context.Background(), jwtmiddleware.UserIDKey, "u-1")
	ctx = context.WithValue(ctx, jwtmiddleware.RoleKey, "USER")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"Access denied"}`, rr.Body.String())

	// админ
	ctx = context.WithValue(ctx, jwtmiddleware.RoleKey, "ADMIN")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireRole_CurrentRoleFromResolver(t *testing.T) {
	roles := map[string]string{"u-admin": "ADMIN", "u-demoted": "USER"}
	resolve := func(ctx context.Context, userID string) (string, error) {
		if userID == "u-broken" {
			return "", errors.New("db is down")
		}
		return roles[userID], nil
	}
	handler := jwtmiddleware.RequireRole("ADMIN", resolve)(okHandler())

	// в токене у всех ADMIN
	serve := func(userID string) *httptest.ResponseRecorder {
		ctx := context.WithValue(context.Background(), jwtmiddleware.UserIDKey, userID)
		ctx = context.WithValue(ctx, jwtmiddleware.RoleKey, "ADMIN")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil).WithContext(ctx))
		return rr
	}

	rr := serve("u-admin")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-admin|ADMIN", rr.Body.String())

	rr = serve("u-demoted")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"Access denied"}`, rr.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve("u-deleted").Code)
	assert.Equal(t, http.StatusInternalServerError, serve("u-broken").Code)
}

func TestFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), jwtmiddleware.UserIDKey, "u-456")
	userID, ok := jwtmiddleware.FromContext(ctx)
	assert.True(t, ok, "Expected to retrieve userID from context")
	assert.Equal(t, "u-456", userID, "Expected userID to match")

	_, ok = jwtmiddleware.FromContext(context.Background())
	assert.False(t, ok)
}

func TestNewToken_EmptySecret(t *testing.T) {
	_, err := security.NewToken(&models.User{ID: "u-1"}, "", time.Hour)
	assert.ErrorIs(t, err, security.ErrEmptySecret)
}
