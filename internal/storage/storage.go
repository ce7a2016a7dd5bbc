package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrUserHasOrders   = errors.New("user has orders")
	ErrProductNotFound = errors.New("product not found")
	ErrProductInUse    = errors.New("product is referenced by orders")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOutOfStock      = errors.New("not enough stock")
	ErrDuplicate       = errors.New("duplicate record")
)

// коды ошибок postgres, которые мы разбираем
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}
