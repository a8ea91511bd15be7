package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/order-management/internal/auth"
)

// NewRouter собирает маршруты сервиса. Зависимости передаются явно,
// без пакетных синглтонов.
func NewRouter(authHandler *AuthHandler, orderHandler *OrderHandler, tokens *auth.TokenManager, users UserFinder) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(httprate.LimitByIP(100, 15*time.Minute))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	router.Route("/auth", func(r chi.Router) {
		// Более жёсткий лимит на попытки аутентификации.
		r.Use(httprate.LimitByIP(10, 15*time.Minute))
		authHandler.RegisterRoutes(r)
	})

	router.Route("/orders", func(r chi.Router) {
		r.Use(Authenticator(tokens, users))
		orderHandler.RegisterRoutes(r)
	})

	return router
}

// NewValidator создаёт общий валидатор запросов с json-именами полей в ошибках.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)
	return validate
}
