package service

import (
	"errors"
	"fmt"
)

// Виды ошибок сервисного слоя. Хендлеры сопоставляют их с HTTP-статусами.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrInternal          = errors.New("internal error")
)

// Error несёт вид ошибки и сообщение, которое можно показать клиенту.
// Исходная причина доступна через errors.Is/As, но в ответ не попадает.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return ErrInternal.Error()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// internalError скрывает причину от клиента
func internalError(cause error) *Error {
	return &Error{Kind: ErrInternal, Message: "Internal server error", Err: cause}
}

// Message возвращает сообщение для клиента. Для ошибок без вида - общее сообщение.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "Internal server error"
}
