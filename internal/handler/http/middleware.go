package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-management/internal/auth"
	"github.com/vasiliy-maslov/order-management/internal/user"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserFinder — минимальный срез пользовательского сервиса для middleware.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Authenticator проверяет Bearer-токен и кладёт id пользователя в контекст.
// Подпись токена — необходимое, но не достаточное условие: пользователь
// обязан существовать и на момент запроса, иначе токен удалённого
// пользователя оставался бы валидным до истечения срока.
func Authenticator(tokens *auth.TokenManager, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				respondWithError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			userID, err := tokens.Verify(tokenString)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if _, err := users.GetByID(r.Context(), userID); err != nil {
				if errors.Is(err, user.ErrNotFound) {
					respondWithError(w, http.StatusUnauthorized, "User not found")
					return
				}
				log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to verify user existence")
				respondWithError(w, http.StatusInternalServerError, "Failed to authenticate request")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}
