package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/products/{id}", "404"))

	req := httptest.NewRequest(http.MethodGet, "/api/products/abc", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/products/{id}", "404"))
	assert.Equal(t, before+1, after)
}

func TestMiddleware_DefaultsStatusToOK(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping", "200"))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping", "200"))

	assert.Equal(t, before+1, after)
}

func TestRecordOrderPlaced(t *testing.T) {
	before := testutil.ToFloat64(ordersPlacedTotal.WithLabelValues("success"))
	RecordOrderPlaced("success")
	assert.Equal(t, before+1, testutil.ToFloat64(ordersPlacedTotal.WithLabelValues("success")))
}

func TestHandler_ExposesOrderCounter(t *testing.T) {
	RecordOrderPlaced("insufficient_stock")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `orders_placed_total{result="insufficient_stock"}`))
}
