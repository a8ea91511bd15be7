package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/order-management/internal/order"
)

func TestNextState(t *testing.T) {
	tests := []struct {
		name     string
		current  order.OrderState
		wantNext order.OrderState
		wantOK   bool
	}{
		{name: "created_to_analysis", current: order.StateCreated, wantNext: order.StateAnalysis, wantOK: true},
		{name: "analysis_to_completed", current: order.StateAnalysis, wantNext: order.StateCompleted, wantOK: true},
		{name: "completed_is_terminal", current: order.StateCompleted, wantOK: false},
		{name: "unknown_state", current: order.OrderState("SHIPPED"), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := order.NextState(tt.current)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantNext, next)
			}
		})
	}
}

func TestCanAdvance(t *testing.T) {
	assert.True(t, order.CanAdvance(order.StateCreated))
	assert.True(t, order.CanAdvance(order.StateAnalysis))
	assert.False(t, order.CanAdvance(order.StateCompleted))
}

func TestValidateServices(t *testing.T) {
	tests := []struct {
		name      string
		services  []order.ServiceItem
		wantErrIs error
	}{
		{
			name:      "empty_services",
			services:  []order.ServiceItem{},
			wantErrIs: order.ErrEmptyServices,
		},
		{
			name:      "nil_services",
			services:  nil,
			wantErrIs: order.ErrEmptyServices,
		},
		{
			name: "zero_total",
			services: []order.ServiceItem{
				{Name: "CBC", Value: 0},
			},
			wantErrIs: order.ErrZeroTotal,
		},
		{
			name: "several_zero_values",
			services: []order.ServiceItem{
				{Name: "CBC", Value: 0},
				{Name: "Glucose", Value: 0},
			},
			wantErrIs: order.ErrZeroTotal,
		},
		{
			name: "negative_value",
			services: []order.ServiceItem{
				{Name: "CBC", Value: 100},
				{Name: "Refund", Value: -10},
			},
			wantErrIs: order.ErrNegativeValue,
		},
		{
			name: "valid_single_service",
			services: []order.ServiceItem{
				{Name: "CBC", Value: 100},
			},
		},
		{
			name: "valid_mixed_values",
			services: []order.ServiceItem{
				{Name: "CBC", Value: 0},
				{Name: "Glucose", Value: 49.90},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := order.ValidateServices(tt.services)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
