package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatbook/internal/models"
	"chatbook/internal/services"
)

type EventEmitterMock struct {
	mock.Mock
}

func (m *EventEmitterMock) Emit(ctx context.Context, event models.ChatEvent) {
	m.Called(ctx, event)
}

// Events returns the events passed to Emit, in call order.
func (m *EventEmitterMock) Events() []models.ChatEvent {
	var out []models.ChatEvent
	for _, call := range m.Calls {
		if call.Method != "Emit" {
			continue
		}
		if event, ok := call.Arguments.Get(1).(models.ChatEvent); ok {
			out = append(out, event)
		}
	}
	return out
}

var _ services.EventEmitter = (*EventEmitterMock)(nil)
