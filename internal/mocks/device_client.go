package mocks

import (
	"context"

	"github.com/aircare/purifier-agent/internal/models"
	"github.com/stretchr/testify/mock"
)

// DeviceClient is a testify mock of transport.DeviceClient.
type DeviceClient struct {
	mock.Mock
}

func (m *DeviceClient) Ping(ctx context.Context) (models.PingData, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.PingData), args.Error(1)
}

func (m *DeviceClient) Status(ctx context.Context) (models.StatusData, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.StatusData), args.Error(1)
}

func (m *DeviceClient) Control(ctx context.Context, req models.ControlRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *DeviceClient) ScanNetworks(ctx context.Context) ([]models.WifiNetwork, error) {
	args := m.Called(ctx)
	if networks := args.Get(0); networks != nil {
		return networks.([]models.WifiNetwork), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DeviceClient) ConfigureStation(ctx context.Context, cfg models.StationConfig) (models.StationStatus, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(models.StationStatus), args.Error(1)
}

func (m *DeviceClient) Events(ctx context.Context) ([]models.DeviceEvent, error) {
	args := m.Called(ctx)
	if events := args.Get(0); events != nil {
		return events.([]models.DeviceEvent), args.Error(1)
	}
	return nil, args.Error(1)
}
