package models

import "time"

// Role определяет уровень доступа пользователя
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User представляет пользователя
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary - строка списка пользователей в админке
type UserSummary struct {
	User
	OrderCount int `json:"orderCount"`
}
