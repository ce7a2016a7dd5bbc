package validate_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/lib/validate"
)

type line struct {
	Quantity int             `json:"quantity" validate:"gt=0"`
	Price    decimal.Decimal `json:"price" validate:"gt=0"`
}

type request struct {
	Email string `json:"email" validate:"required,email"`
	Lines []line `json:"lines" validate:"required,min=1,dive"`
}

func TestMessage_FieldPaths(t *testing.T) {
	v := validate.New()

	err := v.Struct(request{
		Email: "not-an-email",
		Lines: []line{{Quantity: 0, Price: decimal.RequireFromString("1.50")}},
	})
	require.Error(t, err)

	msg := validate.Message(err)
	assert.Contains(t, msg, "email must be a valid email address")
	assert.Contains(t, msg, "lines[0].quantity must be greater than 0")
	assert.NotContains(t, msg, "price")
}

func TestDecimalIsValidatedAsNumber(t *testing.T) {
	v := validate.New()

	err := v.Struct(request{
		Email: "a@b.co",
		Lines: []line{{Quantity: 1, Price: decimal.Zero}},
	})
	require.Error(t, err)
	assert.Equal(t, "lines[0].price must be greater than 0", validate.Message(err))

	err = v.Struct(request{
		Email: "a@b.co",
		Lines: []line{{Quantity: 1, Price: decimal.RequireFromString("4.99")}},
	})
	assert.NoError(t, err)
}

func TestMessage_EmptySlice(t *testing.T) {
	v := validate.New()

	err := v.Struct(request{Email: "a@b.co"})
	require.Error(t, err)
	assert.Equal(t, "lines is required", validate.Message(err))
}

func TestMessage_PlainError(t *testing.T) {
	assert.Equal(t, "boom", validate.Message(errors.New("boom")))
}
