package mocks

import (
	"context"
	"time"

	"github.com/aircare/purifier-agent/internal/models"
	"github.com/stretchr/testify/mock"
)

// CloudStore is a testify mock of cloud.Store.
type CloudStore struct {
	mock.Mock
}

func (m *CloudStore) InsertMeasurement(ctx context.Context, record models.MeasurementRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *CloudStore) InsertEvent(ctx context.Context, record models.EventRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *CloudStore) Measurements(ctx context.Context, deviceID string, since time.Time) ([]models.MeasurementPoint, error) {
	args := m.Called(ctx, deviceID, since)
	if points := args.Get(0); points != nil {
		return points.([]models.MeasurementPoint), args.Error(1)
	}
	return nil, args.Error(1)
}
