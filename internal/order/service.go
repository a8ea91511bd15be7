package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// ErrCannotAdvance возвращается при попытке продвинуть заказ из терминального
// состояния. В сообщении всегда указано текущее состояние.
var ErrCannotAdvance = errors.New("order cannot be advanced")

// CreateInput — уже провалидированные границей поля создания заказа.
type CreateInput struct {
	Lab      string
	Patient  string
	Customer string
	Services []ServiceItem
}

// Pagination описывает страницу выдачи списка заказов.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*Order, error)
	List(ctx context.Context, params ListParams) ([]Order, Pagination, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*Order, error)
	Advance(ctx context.Context, id, userID uuid.UUID) (*Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*Order, error) {
	if err := ValidateServices(input.Services); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("service: order creation rejected by validation")
		return nil, err
	}

	ord := &Order{
		UserID:   userID,
		Lab:      input.Lab,
		Patient:  input.Patient,
		Customer: input.Customer,
		State:    StateCreated,
		Status:   StatusActive,
		Services: make([]ServiceItem, len(input.Services)),
	}
	for i, svc := range input.Services {
		ord.Services[i] = ServiceItem{
			Name:   svc.Name,
			Value:  svc.Value,
			Status: ServicePending,
		}
	}

	if err := s.repo.Create(ctx, ord); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", ord.ID).Stringer("user_id", userID).Msg("service: order created")
	return ord, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]Order, Pagination, error) {
	orders, total, err := s.repo.List(ctx, params)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", params.UserID).Msg("service: failed to list orders in repository")
		return nil, Pagination{}, fmt.Errorf("service: failed to list orders: %w", err)
	}

	pagination := Pagination{
		Page:  params.Page,
		Limit: params.PageSize,
		Total: total,
	}
	if params.PageSize > 0 {
		pagination.TotalPages = (total + params.PageSize - 1) / params.PageSize
	}

	return orders, pagination, nil
}

func (s *service) GetByID(ctx context.Context, id, userID uuid.UUID) (*Order, error) {
	ord, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return ord, nil
}

// Advance переводит заказ в следующее состояние. Проверка владения выполняется
// на шаге FindByID, сам переход защищён условным обновлением в репозитории.
func (s *service) Advance(ctx context.Context, id, userID uuid.UUID) (*Order, error) {
	ord, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	next, ok := NextState(ord.State)
	if !ok {
		log.Warn().Stringer("order_id", id).Str("state", string(ord.State)).Msg("service: attempt to advance terminal order")
		return nil, fmt.Errorf("%w: order is already in state %s", ErrCannotAdvance, ord.State)
	}

	if err := s.repo.UpdateState(ctx, id, ord.State, next); err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, ErrStateConflict):
			log.Warn().Stringer("order_id", id).Str("expected_state", string(ord.State)).Msg("service: concurrent advance detected")
			return nil, ErrStateConflict
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to update order state in repository")
		return nil, fmt.Errorf("service: failed to update order state: %w", err)
	}

	updated, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	log.Info().Stringer("order_id", id).Str("old_state", string(ord.State)).Str("new_state", string(next)).Msg("service: order state advanced")
	return updated, nil
}
