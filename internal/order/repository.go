package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrStateConflict = errors.New("order state changed concurrently")
)

// ListParams описывает выборку заказов владельца.
// Page и PageSize приходят с границы уже с дефолтами (1/10).
type ListParams struct {
	UserID   uuid.UUID
	Page     int
	PageSize int
	State    OrderState // пустое значение — без фильтра по состоянию
}

type Repository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*Order, error)
	List(ctx context.Context, params ListParams) ([]Order, int, error)
	UpdateState(ctx context.Context, id uuid.UUID, from, to OrderState) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, orderInput *Order) (err error) {
	if orderInput.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		orderInput.ID = genID
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderInput.ID).Msg("repository: failed to rollback CreateOrder transaction")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	now := time.Now().UTC()
	orderInput.CreatedAt = now
	orderInput.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders (id, user_id, lab, patient, customer, state, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, queryOrder,
		orderInput.ID,
		orderInput.UserID,
		orderInput.Lab,
		orderInput.Patient,
		orderInput.Customer,
		string(orderInput.State),
		string(orderInput.Status),
		orderInput.CreatedAt,
		orderInput.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	// Позиции пишем в той же транзакции; position сохраняет порядок из запроса.
	queryService := `
		INSERT INTO order_services (order_id, position, name, value, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range orderInput.Services {
		svc := &orderInput.Services[i]
		_, err = tx.Exec(ctx, queryService,
			orderInput.ID,
			i,
			svc.Name,
			svc.Value,
			string(svc.Status),
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert service for order %s: %w", orderInput.ID, err)
		}
	}

	return nil
}

// FindByID фильтрует по id, владельцу и статусу ACTIVE одним запросом:
// чужой или мягко удалённый заказ неотличим от несуществующего.
func (r *postgresRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*Order, error) {
	queryOrder := `
		SELECT id, user_id, lab, patient, customer, state, status, created_at, updated_at
		FROM orders
		WHERE id = $1 AND user_id = $2 AND status = $3
	`

	var ord Order
	err := r.db.QueryRow(ctx, queryOrder, id, userID, string(StatusActive)).Scan(
		&ord.ID,
		&ord.UserID,
		&ord.Lab,
		&ord.Patient,
		&ord.Customer,
		&ord.State,
		&ord.Status,
		&ord.CreatedAt,
		&ord.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	services, err := r.fetchServices(ctx, []uuid.UUID{ord.ID})
	if err != nil {
		return nil, err
	}
	// Пустой список, а не null — как и в List.
	ord.Services = make([]ServiceItem, 0)
	if svcs, ok := services[ord.ID]; ok {
		ord.Services = svcs
	}

	return &ord, nil
}

func (r *postgresRepository) List(ctx context.Context, params ListParams) ([]Order, int, error) {
	where := `WHERE user_id = $1 AND status = $2`
	args := []any{params.UserID, string(StatusActive)}

	if params.State != "" {
		where += ` AND state = $3`
		args = append(args, string(params.State))
	}

	var total int
	countQuery := `SELECT count(*) FROM orders ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count orders for user %s: %w", params.UserID, err)
	}

	offset := (params.Page - 1) * params.PageSize
	listQuery := fmt.Sprintf(`
		SELECT id, user_id, lab, patient, customer, state, status, created_at, updated_at
		FROM orders
		`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, offset)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query orders for user %s: %w", params.UserID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var orderIDs []uuid.UUID
	for rows.Next() {
		var ord Order
		err := rows.Scan(
			&ord.ID,
			&ord.UserID,
			&ord.Lab,
			&ord.Patient,
			&ord.Customer,
			&ord.State,
			&ord.Status,
			&ord.CreatedAt,
			&ord.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan order for user %s: %w", params.UserID, err)
		}
		ord.Services = make([]ServiceItem, 0)
		orders = append(orders, ord)
		orderIDs = append(orderIDs, ord.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: error iterating orders for user %s: %w", params.UserID, err)
	}

	if len(orderIDs) == 0 {
		return orders, total, nil
	}

	services, err := r.fetchServices(ctx, orderIDs)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		if svcs, ok := services[orders[i].ID]; ok {
			orders[i].Services = svcs
		}
	}

	return orders, total, nil
}

// UpdateState выполняет условное обновление: строка меняется, только если
// текущее состояние совпадает с ожидаемым. Иначе — ErrStateConflict, чтобы
// конкурирующий advance не перезаписал чужой переход.
func (r *postgresRepository) UpdateState(ctx context.Context, id uuid.UUID, from, to OrderState) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", id).Msg("repository: failed to rollback UpdateState transaction")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	updateQuery := `
		UPDATE orders
		SET state = $1, updated_at = $2
		WHERE id = $3 AND state = $4 AND status = $5
	`
	cmdTag, err := tx.Exec(ctx, updateQuery,
		string(to),
		time.Now().UTC(),
		id,
		string(from),
		string(StatusActive),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order state %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var current string
		probeErr := tx.QueryRow(ctx, `SELECT state FROM orders WHERE id = $1 AND status = $2`, id, string(StatusActive)).Scan(&current)
		if errors.Is(probeErr, pgx.ErrNoRows) {
			err = ErrOrderNotFound
			return err
		}
		if probeErr != nil {
			err = fmt.Errorf("repository: failed to probe order state %s: %w", id, probeErr)
			return err
		}
		log.Warn().Stringer("order_id", id).Str("expected_state", string(from)).Str("actual_state", current).Msg("repository: conditional state update lost the race")
		err = ErrStateConflict
		return err
	}

	// Терминальное состояние закрывает и все позиции заказа — атомарно с переходом.
	if to == StateCompleted {
		_, err = tx.Exec(ctx, `UPDATE order_services SET status = $1 WHERE order_id = $2`, string(ServiceDone), id)
		if err != nil {
			return fmt.Errorf("repository: failed to complete services for order %s: %w", id, err)
		}
	}

	return nil
}

func (r *postgresRepository) fetchServices(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]ServiceItem, error) {
	query := `
		SELECT order_id, name, value, status
		FROM order_services
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order services: %w", err)
	}
	defer rows.Close()

	services := make(map[uuid.UUID][]ServiceItem)
	for rows.Next() {
		var orderID uuid.UUID
		var svc ServiceItem
		if err := rows.Scan(&orderID, &svc.Name, &svc.Value, &svc.Status); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order service: %w", err)
		}
		services[orderID] = append(services[orderID], svc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order services: %w", err)
	}

	return services, nil
}
