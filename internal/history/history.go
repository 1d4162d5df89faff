package history

import (
	"context"
	"time"

	"github.com/aircare/purifier-agent/internal/models"
	"github.com/aircare/purifier-agent/pkg/cloud"
	"github.com/aircare/purifier-agent/pkg/transport"
	"github.com/rs/zerolog"
)

// Range selects the lower bound of a history query.
type Range string

const (
	RangeDay   Range = "24h"
	RangeWeek  Range = "7d"
	RangeMonth Range = "30d"
)

// Duration returns the window covered by the range, defaulting to 24 hours.
func (r Range) Duration() time.Duration {
	switch r {
	case RangeWeek:
		return 7 * 24 * time.Hour
	case RangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Summary is the result of a history query: the raw samples plus the stats
// the history view renders. Average and DiffPercent are nil when fewer than
// two samples exist.
type Summary struct {
	Points      []models.MeasurementPoint
	Average     *float64
	DiffPercent *float64
}

// Service reads the cloud measurement history and the device's onboard
// event log. It is read-only and independent of live polling.
type Service struct {
	store    cloud.Store
	device   transport.DeviceClient
	deviceID string
	logger   zerolog.Logger
}

// NewService initializes a new history Service.
func NewService(store cloud.Store, device transport.DeviceClient, deviceID string, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		device:   device,
		deviceID: deviceID,
		logger:   logger,
	}
}

// Fetch returns the device's samples within the range, with average and
// first-to-last percent change.
func (s *Service) Fetch(ctx context.Context, r Range) (Summary, error) {
	since := time.Now().Add(-r.Duration())

	points, err := s.store.Measurements(ctx, s.deviceID, since)
	if err != nil {
		s.logger.Error().Err(err).Str("range", string(r)).Msg("History query failed")
		return Summary{}, err
	}

	summary := Summary{Points: points}
	if len(points) > 1 {
		var sum float64
		for _, p := range points {
			sum += p.Value
		}
		avg := sum / float64(len(points))
		summary.Average = &avg

		first := points[0].Value
		last := points[len(points)-1].Value
		diff := 0.0
		if first != 0 {
			diff = (last - first) / first * 100
		}
		summary.DiffPercent = &diff
	}

	return summary, nil
}

// DeviceEvents fetches the device's onboard event log.
func (s *Service) DeviceEvents(ctx context.Context) ([]models.DeviceEvent, error) {
	return s.device.Events(ctx)
}
