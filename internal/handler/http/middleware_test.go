package http_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/order-management/internal/auth"
	appHttp "github.com/vasiliy-maslov/order-management/internal/handler/http"
	"github.com/vasiliy-maslov/order-management/internal/user"
)

// Подписанный токен удалённого (или никогда не существовавшего) пользователя
// не даёт доступа: middleware сверяется с хранилищем, а не только с подписью.
func TestAuthenticator_UserNoLongerExists(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	ghostID := uuid.Must(uuid.NewV4())
	token, err := tm.Issue(ghostID)
	require.NoError(t, err)

	users := new(MockUserService)
	users.On("GetByID", mock.Anything, ghostID).
		Return(nil, user.ErrNotFound).
		Once()

	orders := new(MockOrderService)
	router := chi.NewRouter()
	router.Route("/orders", func(r chi.Router) {
		r.Use(appHttp.Authenticator(tm, users))
		appHttp.NewOrderHandler(orders, appHttp.NewValidator()).RegisterRoutes(r)
	})

	rr := doRequest(router, http.MethodGet, "/orders", token, nil)

	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var resp envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "User not found", resp.Message)
	orders.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	users.AssertExpectations(t)
}
