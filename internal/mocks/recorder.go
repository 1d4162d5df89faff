package mocks

import (
	"context"

	"github.com/aircare/purifier-agent/internal/state"
	"github.com/stretchr/testify/mock"
)

// Recorder is a testify mock of telemetry.Recorder.
type Recorder struct {
	mock.Mock
}

func (m *Recorder) Record(ctx context.Context, reading state.Reading, fanPwm int) {
	m.Called(ctx, reading, fanPwm)
}
