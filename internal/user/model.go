package user

import (
	"time"

	"github.com/gofrs/uuid"
)

// User представляет зарегистрированного пользователя.
// Хеш пароля никогда не попадает в ответы API.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
