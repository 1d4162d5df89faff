package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Notifier is a testify mock of notify.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Alert(ctx context.Context, subject, message string) error {
	args := m.Called(ctx, subject, message)
	return args.Error(0)
}

// Publisher is a testify mock of mqtt.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(topic string, qos byte, retained bool, payload any) error {
	args := m.Called(topic, qos, retained, payload)
	return args.Error(0)
}

func (m *Publisher) Disconnect(quiesce uint) {
	m.Called(quiesce)
}
