package http

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-management/internal/order"
)

// Форматы конвертов ответов фиксированы контрактом API:
// успех  — {"status":"success","data":...,"pagination":{...}},
// ошибка — {"status":"error","message":"...","errors":[{field,message}]}.
type successResponse struct {
	Status     string            `json:"status"`
	Data       any               `json:"data"`
	Pagination *order.Pagination `json:"pagination,omitempty"`
}

type errorResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithSuccess(w http.ResponseWriter, code int, data any) {
	respondWithJSON(w, code, successResponse{Status: "success", Data: data})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Status: "error", Message: message})
}

func respondWithValidationErrors(w http.ResponseWriter, validationErrors validator.ValidationErrors) {
	respondWithJSON(w, http.StatusBadRequest, errorResponse{
		Status:  "error",
		Message: "Validation error",
		Errors:  formatValidationErrors(validationErrors),
	})
}

func formatValidationErrors(validationErrors validator.ValidationErrors) []fieldError {
	details := make([]fieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		var message string
		switch fe.Tag() {
		case "required":
			message = "is required"
		case "email":
			message = "must be a valid email address"
		case "min":
			message = "must be at least " + fe.Param() + " characters or items"
		case "gte":
			message = "must be greater than or equal to " + fe.Param()
		case "oneof":
			message = "must be one of: " + fe.Param()
		default:
			message = "is invalid"
		}
		details = append(details, fieldError{Field: fe.Field(), Message: message})
	}
	return details
}

// Имена полей в ошибках валидации берём из json-тегов, а не из имён структур.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
