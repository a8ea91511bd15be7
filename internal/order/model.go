package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type OrderState string

const (
	StateCreated   OrderState = "CREATED"
	StateAnalysis  OrderState = "ANALYSIS"
	StateCompleted OrderState = "COMPLETED"
)

func (s OrderState) String() string {
	return string(s)
}

// IsValid сообщает, входит ли значение в множество известных состояний.
func (s OrderState) IsValid() bool {
	switch s {
	case StateCreated, StateAnalysis, StateCompleted:
		return true
	}
	return false
}

// OrderStatus — признак «живости» записи. Мягкое удаление зарезервировано:
// ни одна операция не переводит заказ в DELETED, но все выборки фильтруют по ACTIVE.
type OrderStatus string

const (
	StatusActive  OrderStatus = "ACTIVE"
	StatusDeleted OrderStatus = "DELETED"
)

func (s OrderStatus) String() string {
	return string(s)
}

type ServiceStatus string

const (
	ServicePending ServiceStatus = "PENDING"
	ServiceDone    ServiceStatus = "DONE"
)

// ServiceItem — позиция заказа (исследование/услуга с ценой).
type ServiceItem struct {
	Name   string        `json:"name" db:"name"`
	Value  float64       `json:"value" db:"value"`
	Status ServiceStatus `json:"status" db:"status"`
}

type Order struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	UserID    uuid.UUID     `json:"user_id" db:"user_id"`
	Lab       string        `json:"lab" db:"lab"`
	Patient   string        `json:"patient" db:"patient"`
	Customer  string        `json:"customer" db:"customer"`
	State     OrderState    `json:"state" db:"state"`
	Status    OrderStatus   `json:"status" db:"status"`
	Services  []ServiceItem `json:"services" db:"-"` // Хранятся в дочерней таблице, достаются отдельным запросом
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}
