package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aircare/purifier-agent/internal/state"
	"github.com/aircare/purifier-agent/internal/telemetry"
	"github.com/aircare/purifier-agent/pkg/transport"
	"github.com/rs/zerolog"
)

// SyncService polls device status on a fixed cadence and reconciles the
// report into the state container. Its lifetime is bound to connectivity:
// the connectivity service starts it on connect and stops it on disconnect.
type SyncService struct {
	interval time.Duration
	device   transport.DeviceClient
	state    *state.Container
	mirror   telemetry.Recorder
	logger   zerolog.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight atomic.Bool
}

// NewSyncService initializes a new SyncService.
func NewSyncService(interval time.Duration, device transport.DeviceClient,
	container *state.Container, mirror telemetry.Recorder, logger zerolog.Logger) *SyncService {

	return &SyncService{
		interval: interval,
		device:   device,
		state:    container,
		mirror:   mirror,
		logger:   logger,
	}
}

// Start launches the polling loop in a separate goroutine.
func (s *SyncService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		s.logger.Warn().Msg("SyncService is already running")
		return errors.New("sync service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPollLoop()
	}()

	s.logger.Info().Dur("interval", s.interval).Msg("SyncService started successfully")
	return nil
}

// Stop cancels the polling loop and waits for an in-flight poll to resolve.
func (s *SyncService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		s.logger.Warn().Msg("SyncService is not running")
		return errors.New("sync service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("SyncService stopped successfully")
	return nil
}

func (s *SyncService) runPollLoop() {
	s.SyncNow(s.ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SyncNow(s.ctx)

		case <-s.ctx.Done():
			s.logger.Info().Msg("SyncService stopping gracefully")
			return
		}
	}
}

// SyncNow performs one status poll. Polls are serialized per device: a call
// arriving while another poll is still in flight is dropped, so a slow
// network cannot interleave two reconciliations.
func (s *SyncService) SyncNow(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("Skipping poll, previous one still in flight")
		return
	}
	defer s.inFlight.Store(false)

	s.state.BeginPoll()

	status, err := s.device.Status(ctx)
	if err != nil {
		// A transient failure never blanks the last good reading; only
		// the error annotation changes.
		s.state.SetPollError(err.Error())
		s.logger.Warn().Err(err).Msg("Status poll failed")
		return
	}

	reading, fan := s.state.ApplyStatus(status, time.Now())

	// Persistence is a side effect of a successful poll: the mirror runs
	// only after the new state is applied, and only with a real value.
	if reading.Value != nil {
		s.mirror.Record(ctx, reading, fan.PWM)
	}
}
