package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appHttp "github.com/vasiliy-maslov/order-management/internal/handler/http"
	"github.com/vasiliy-maslov/order-management/internal/user"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, password string) (*user.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*user.User), args.String(1), args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*user.User), args.String(1), args.Error(2)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func newAuthTestServer(svc user.Service) *chi.Mux {
	handler := appHttp.NewAuthHandler(svc, appHttp.NewValidator())
	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return router
}

func doAuthRequest(router *chi.Mux, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAuthHandler_Register_Success(t *testing.T) {
	mockService := new(MockUserService)
	router := newAuthTestServer(mockService)

	registered := &user.User{ID: uuid.Must(uuid.NewV4()), Email: "john@example.com"}
	mockService.On("Register", mock.Anything, "john@example.com", "secret123").
		Return(registered, "signed.jwt.token", nil).
		Once()

	rr := doAuthRequest(router, "/auth/register", `{"email":"john@example.com","password":"secret123"}`)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Status string               `json:"status"`
		Data   appHttp.AuthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, registered.ID, resp.Data.User.ID)
	assert.Equal(t, "john@example.com", resp.Data.User.Email)
	assert.Equal(t, "signed.jwt.token", resp.Data.Token)
	mockService.AssertExpectations(t)
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "invalid_email",
			body:      `{"email":"not-an-email","password":"secret123"}`,
			wantField: "email",
		},
		{
			name:      "short_password",
			body:      `{"email":"john@example.com","password":"123"}`,
			wantField: "password",
		},
		{
			name:      "missing_password",
			body:      `{"email":"john@example.com"}`,
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockUserService)
			router := newAuthTestServer(mockService)

			rr := doAuthRequest(router, "/auth/register", tt.body)

			require.Equal(t, http.StatusBadRequest, rr.Code)

			var resp envelope
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "error", resp.Status)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, tt.wantField, resp.Errors[0].Field)
			mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_Register_EmailExists(t *testing.T) {
	mockService := new(MockUserService)
	router := newAuthTestServer(mockService)

	mockService.On("Register", mock.Anything, "john@example.com", "secret123").
		Return(nil, "", user.ErrEmailExists).
		Once()

	rr := doAuthRequest(router, "/auth/register", `{"email":"john@example.com","password":"secret123"}`)

	require.Equal(t, http.StatusConflict, rr.Code)

	var resp envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Email already registered", resp.Message)
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	mockService := new(MockUserService)
	router := newAuthTestServer(mockService)

	rr := doAuthRequest(router, "/auth/register", `{"email":`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	mockService := new(MockUserService)
	router := newAuthTestServer(mockService)

	loggedIn := &user.User{ID: uuid.Must(uuid.NewV4()), Email: "john@example.com"}
	mockService.On("Login", mock.Anything, "john@example.com", "secret123").
		Return(loggedIn, "signed.jwt.token", nil).
		Once()

	rr := doAuthRequest(router, "/auth/login", `{"email":"john@example.com","password":"secret123"}`)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Status string               `json:"status"`
		Data   appHttp.AuthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "signed.jwt.token", resp.Data.Token)
	mockService.AssertExpectations(t)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	mockService := new(MockUserService)
	router := newAuthTestServer(mockService)

	// Неизвестный email и неверный пароль дают один и тот же ответ.
	mockService.On("Login", mock.Anything, "john@example.com", "wrong-password").
		Return(nil, "", user.ErrInvalidCredentials).
		Once()

	rr := doAuthRequest(router, "/auth/login", `{"email":"john@example.com","password":"wrong-password"}`)

	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var resp envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Invalid credentials", resp.Message)
}
