package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linemk/grocery-shop/internal/service"
)

func TestError_KindAndCause(t *testing.T) {
	cause := errors.New("pq: connection reset")
	err := &service.Error{Kind: service.ErrInternal, Message: "Internal server error", Err: cause}

	assert.Equal(t, "Internal server error", err.Error())
	assert.ErrorIs(t, err, service.ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, service.ErrConflict)
}

func TestError_WrappedKeepsKind(t *testing.T) {
	err := fmt.Errorf("service.X: %w", &service.Error{Kind: service.ErrInsufficientStock, Message: "Insufficient stock for Apples"})

	assert.ErrorIs(t, err, service.ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for Apples", service.Message(err))
}

func TestError_FallbackMessage(t *testing.T) {
	assert.Equal(t, "conflict", (&service.Error{Kind: service.ErrConflict}).Error())
	assert.Equal(t, "Internal server error", service.Message(errors.New("boom")))
}
