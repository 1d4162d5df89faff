package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aircare/purifier-agent/internal/state"
	"github.com/aircare/purifier-agent/pkg/transport"
	"github.com/rs/zerolog"
)

// ConnectivityService drives reachability checks against the device and
// derives AP/STA identity and sensor warm-up facts from the ping reply.
// While the sensor is still warming up it re-checks on a fixed cadence;
// once warm, automatic retries stop and CheckNow remains available.
type ConnectivityService struct {
	retryInterval time.Duration
	device        transport.DeviceClient
	state         *state.Container
	onTransition  func(connected bool)
	logger        zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConnectivityService initializes a new ConnectivityService. onTransition
// is invoked (from the service goroutine or a CheckNow caller) whenever
// reachability flips; it may be nil.
func NewConnectivityService(retryInterval time.Duration, device transport.DeviceClient,
	container *state.Container, onTransition func(connected bool), logger zerolog.Logger) *ConnectivityService {

	return &ConnectivityService{
		retryInterval: retryInterval,
		device:        device,
		state:         container,
		onTransition:  onTransition,
		logger:        logger,
	}
}

// Start launches the reachability loop in a separate goroutine.
func (s *ConnectivityService) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("ConnectivityService is already running")
		return errors.New("connectivity service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runCheckLoop()
	}()

	s.logger.Info().Dur("retry_interval", s.retryInterval).Msg("ConnectivityService started successfully")
	return nil
}

// Stop gracefully stops the reachability loop.
func (s *ConnectivityService) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("ConnectivityService is not running")
		return errors.New("connectivity service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("ConnectivityService stopped successfully")
	return nil
}

// runCheckLoop probes immediately, then keeps probing on the retry cadence
// until the device reports a warmed-up sensor.
func (s *ConnectivityService) runCheckLoop() {
	s.CheckNow(s.ctx)

	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.state.Connectivity().SensorReady {
				continue
			}
			s.CheckNow(s.ctx)

		case <-s.ctx.Done():
			s.logger.Info().Msg("ConnectivityService stopping gracefully")
			return
		}
	}
}

// CheckNow issues one reachability probe and replaces the connectivity
// snapshot wholesale. Fields absent from the reply keep their prior values;
// absence is not an error. Returns the new snapshot.
func (s *ConnectivityService) CheckNow(ctx context.Context) state.Connectivity {
	prev := s.state.Connectivity()
	s.state.BeginCheck()

	ping, err := s.device.Ping(ctx)

	next := state.Connectivity{
		LastSuccessAt: prev.LastSuccessAt,
		APAddress:     prev.APAddress,
		Station:       prev.Station,
		SensorReady:   prev.SensorReady,
	}

	if err != nil {
		next.Phase = state.PhaseDisconnected
		next.Reachable = false
		next.SensorReady = false
		next.LastError = err.Error()
		s.logger.Warn().Err(err).Msg("Device reachability check failed")
	} else {
		now := time.Now()
		next.Phase = state.PhaseConnected
		next.Reachable = true
		next.LastSuccessAt = &now
		next.LastError = ""

		if ping.Net != nil {
			if ping.Net.APIP != nil {
				next.APAddress = *ping.Net.APIP
			}
			if ping.Net.STAConnected != nil {
				next.Station.Connected = *ping.Net.STAConnected
			}
			if ping.Net.STAIP != nil {
				next.Station.Address = *ping.Net.STAIP
			}
			if ping.Net.STASSID != nil {
				next.Station.SSID = *ping.Net.STASSID
			}
		}
		if ping.SensorReady != nil {
			next.SensorReady = *ping.SensorReady
		}

		s.logger.Debug().Bool("sensor_ready", next.SensorReady).Msg("Device reachable")
	}

	s.state.SetConnectivity(next)

	if prev.Reachable != next.Reachable && s.onTransition != nil {
		s.onTransition(next.Reachable)
	}

	return next
}
