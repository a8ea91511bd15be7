package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-management/internal/order"
)

type CreateServiceRequest struct {
	Name  string   `json:"name" validate:"required,min=1"`
	Value *float64 `json:"value" validate:"required,gte=0"`
}

type CreateOrderRequest struct {
	Lab      string                 `json:"lab" validate:"required,min=1"`
	Patient  string                 `json:"patient" validate:"required,min=1"`
	Customer string                 `json:"customer" validate:"required,min=1"`
	Services []CreateServiceRequest `json:"services" validate:"required,min=1,dive"`
}

type orderPayload struct {
	Order *order.Order `json:"order"`
}

// OrderHandler обслуживает HTTP-запросы для работы с заказами.
type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{service: service, validate: validate}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/", h.handleCreateOrder)
	router.Get("/", h.handleListOrders)
	router.Get("/{id}", h.handleGetOrderByID)
	router.Patch("/{id}/advance", h.handleAdvanceOrder)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var requestPayload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode create order request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithValidationErrors(w, validationErrors)
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	input := order.CreateInput{
		Lab:      requestPayload.Lab,
		Patient:  requestPayload.Patient,
		Customer: requestPayload.Customer,
		Services: make([]order.ServiceItem, len(requestPayload.Services)),
	}
	for i, svc := range requestPayload.Services {
		input.Services[i] = order.ServiceItem{Name: svc.Name, Value: *svc.Value}
	}

	created, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyServices):
			respondWithError(w, http.StatusBadRequest, "At least one service is required")
		case errors.Is(err, order.ErrZeroTotal):
			respondWithError(w, http.StatusBadRequest, "Total value of services must be greater than zero")
		case errors.Is(err, order.ErrNegativeValue):
			respondWithError(w, http.StatusBadRequest, "Service value must be non-negative")
		default:
			log.Error().Err(err).Msg("Failed to create order via service")
			respondWithError(w, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	respondWithSuccess(w, http.StatusCreated, orderPayload{Order: created})
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Дефолты границы: page=1, limit=10.
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		respondWithError(w, http.StatusBadRequest, "Invalid page parameter")
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil || limit < 1 {
		respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
		return
	}

	params := order.ListParams{
		UserID:   userID,
		Page:     page,
		PageSize: limit,
	}

	if stateParam := r.URL.Query().Get("state"); stateParam != "" {
		state := order.OrderState(stateParam)
		if !state.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid state parameter")
			return
		}
		params.State = state
	}

	orders, pagination, err := h.service.List(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse{
		Status:     "success",
		Data:       orders,
		Pagination: &pagination,
	})
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Некорректный формат id неотличим от несуществующего заказа.
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	found, err := h.service.GetByID(r.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get order via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to get order")
		return
	}

	respondWithSuccess(w, http.StatusOK, orderPayload{Order: found})
}

func (h *OrderHandler) handleAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	advanced, err := h.service.Advance(r.Context(), orderID, userID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, order.ErrCannotAdvance):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, order.ErrStateConflict):
			respondWithError(w, http.StatusConflict, "Order state changed concurrently, please retry")
		default:
			log.Error().Err(err).Msg("Failed to advance order via service")
			respondWithError(w, http.StatusInternalServerError, "Failed to advance order")
		}
		return
	}

	respondWithSuccess(w, http.StatusOK, orderPayload{Order: advanced})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
