package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aircare/purifier-agent/internal/constants"
	"github.com/aircare/purifier-agent/internal/models"
	"github.com/aircare/purifier-agent/internal/state"
	"github.com/aircare/purifier-agent/pkg/cloud"
	"github.com/aircare/purifier-agent/pkg/mqtt"
	"github.com/aircare/purifier-agent/pkg/notify"
	"github.com/rs/zerolog"
)

// AlertPolicy selects when an AIR_CRITICAL event row is written. The source
// system wrote one per poll while the condition held; edge triggering is
// offered behind this named option pending confirmation with the system
// owner.
type AlertPolicy string

const (
	// AlertPerPoll writes one event per poll observing VERY_BAD.
	AlertPerPoll AlertPolicy = "level"
	// AlertOnTransition writes one event per transition into VERY_BAD.
	AlertOnTransition AlertPolicy = "edge"
)

// ParseAlertPolicy maps a config value onto a policy, defaulting to the
// source system's per-poll behavior.
func ParseAlertPolicy(raw string) AlertPolicy {
	if AlertPolicy(raw) == AlertOnTransition {
		return AlertOnTransition
	}
	return AlertPerPoll
}

// Recorder is the surface the synchronizer invokes after a successful poll.
type Recorder interface {
	Record(ctx context.Context, reading state.Reading, fanPwm int)
}

// Mirror appends one measurement row per successful poll and alert events
// per the configured policy. Store failures are logged and swallowed; they
// must never propagate into the polling loop.
type Mirror struct {
	store     cloud.Store
	deviceID  string
	policy    AlertPolicy
	notifier  notify.Notifier
	publisher mqtt.Publisher
	pubTopic  string
	qos       byte
	logger    zerolog.Logger

	mu       sync.Mutex
	lastTier constants.AirTier
}

// NewMirror creates a telemetry mirror. store may be nil when cloud
// persistence is disabled; notifier and publisher are optional fan-outs.
func NewMirror(store cloud.Store, deviceID string, policy AlertPolicy, notifier notify.Notifier,
	publisher mqtt.Publisher, pubTopic string, qos byte, logger zerolog.Logger) *Mirror {

	return &Mirror{
		store:     store,
		deviceID:  deviceID,
		policy:    policy,
		notifier:  notifier,
		publisher: publisher,
		pubTopic:  pubTopic,
		qos:       qos,
		logger:    logger,
	}
}

// Record mirrors one successful poll. Readings without a value are skipped
// entirely; everything else produces exactly one measurement row.
func (m *Mirror) Record(ctx context.Context, reading state.Reading, fanPwm int) {
	if reading.Value == nil {
		return
	}

	m.mu.Lock()
	previous := m.lastTier
	m.lastTier = reading.State
	m.mu.Unlock()

	critical := reading.State == constants.TierVeryBad
	entered := critical && previous != constants.TierVeryBad

	record := models.MeasurementRecord{
		DeviceID:        m.deviceID,
		AirQualityValue: *reading.Value,
		AirQualityState: reading.State.String(),
		FanSpeed:        fanPwm,
	}

	if m.store != nil {
		if err := m.store.InsertMeasurement(ctx, record); err != nil {
			m.logger.Error().Err(err).Msg("Failed to insert measurement row")
		}

		if critical && (m.policy == AlertPerPoll || entered) {
			event := models.EventRecord{
				DeviceID:        m.deviceID,
				Type:            constants.EventTypeAlert,
				Code:            constants.EventCodeAirCritical,
				Description:     fmt.Sprintf("Air quality reached %s (value %.0f)", reading.State, *reading.Value),
				AirQualityValue: reading.Value,
				AirQualityState: reading.State.String(),
				Severity:        constants.SeverityCritical,
			}
			if err := m.store.InsertEvent(ctx, event); err != nil {
				m.logger.Error().Err(err).Msg("Failed to insert alert event row")
			}
		}
	}

	// Email alerts are always edge triggered so a persisting condition
	// cannot flood a mailbox, regardless of the event-row policy.
	if entered && m.notifier != nil {
		subject := "Air quality critical"
		body := fmt.Sprintf("Device %s reports %s air quality (value %.0f).", m.deviceID, reading.State, *reading.Value)
		if err := m.notifier.Alert(ctx, subject, body); err != nil {
			m.logger.Error().Err(err).Msg("Failed to send alert notification")
		}
	}

	if m.publisher != nil {
		payload, err := json.Marshal(record)
		if err != nil {
			m.logger.Error().Err(err).Msg("Failed to serialize measurement for broker fan-out")
			return
		}
		if err := m.publisher.Publish(m.pubTopic, m.qos, false, payload); err != nil {
			m.logger.Error().Err(err).Msg("Failed to publish measurement to broker")
		}
	}
}
