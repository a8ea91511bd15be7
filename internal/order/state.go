package order

import "errors"

var (
	ErrEmptyServices = errors.New("order must contain at least one service")
	ErrZeroTotal     = errors.New("total value of services must be greater than zero")
	ErrNegativeValue = errors.New("service value must be non-negative")
)

// Жизненный цикл строго линейный: CREATED -> ANALYSIS -> COMPLETED.
// Из терминального состояния переходов нет.
var stateTransitions = map[OrderState]OrderState{
	StateCreated:  StateAnalysis,
	StateAnalysis: StateCompleted,
}

// NextState возвращает следующее состояние заказа.
// Для COMPLETED (и любого неизвестного значения) второй результат — false.
func NextState(current OrderState) (OrderState, bool) {
	next, ok := stateTransitions[current]
	return next, ok
}

func CanAdvance(current OrderState) bool {
	_, ok := NextState(current)
	return ok
}

// ValidateServices проверяет инварианты создания заказа.
// Отрицательные значения отсекаются ещё на уровне схемы запроса,
// но здесь проверяем повторно, чтобы не зависеть от границы.
func ValidateServices(services []ServiceItem) error {
	if len(services) == 0 {
		return ErrEmptyServices
	}

	var total float64
	for _, svc := range services {
		if svc.Value < 0 {
			return ErrNegativeValue
		}
		total += svc.Value
	}

	if total <= 0 {
		return ErrZeroTotal
	}

	return nil
}
