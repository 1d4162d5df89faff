package controls

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aircare/purifier-agent/internal/constants"
	"github.com/aircare/purifier-agent/internal/models"
	"github.com/aircare/purifier-agent/internal/state"
	"github.com/aircare/purifier-agent/pkg/transport"
	"github.com/rs/zerolog"
)

var (
	// ErrNotConnected rejects a command issued while the device is
	// unreachable; no request is sent.
	ErrNotConnected = errors.New("device is not connected")
	// ErrMissingCredentials rejects station provisioning without both an
	// SSID and a password.
	ErrMissingCredentials = errors.New("ssid and password are required")
)

// Dispatcher translates user intents into device control requests with
// optimistic local updates. Failed commands are surfaced, never rolled back
// or retried; the next successful poll reconciles truth from the device.
type Dispatcher struct {
	device transport.DeviceClient
	state  *state.Container
	logger zerolog.Logger
}

// NewDispatcher initializes a new Dispatcher.
func NewDispatcher(device transport.DeviceClient, container *state.Container, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		device: device,
		state:  container,
		logger: logger,
	}
}

// ApplyMode switches the fan mode. MANUAL resumes the last manual speed
// (falling back to the current pwm, then 0); AUTO hands regulation back to
// the device against the current setpoint. Local state updates before the
// request is sent.
func (d *Dispatcher) ApplyMode(ctx context.Context, mode state.FanMode) error {
	if !d.state.Connectivity().Reachable {
		return ErrNotConnected
	}

	gen := d.state.NextCommandGeneration()
	var req models.ControlRequest

	switch mode {
	case state.FanManual:
		fan := d.state.Fan()
		target := fan.LastManualPWM
		if target <= 0 {
			target = fan.PWM
		}
		if target < 0 {
			target = 0
		}
		if target > constants.MaxFanPWM {
			target = constants.MaxFanPWM
		}

		d.state.ApplyManualMode(target)
		pwm := target
		req = models.ControlRequest{FanMode: string(state.FanManual), FanPwm: &pwm}

	case state.FanAuto:
		fan := d.state.ApplyAutoMode()
		setpoint := fan.Setpoint
		req = models.ControlRequest{FanMode: string(state.FanAuto), Setpoint: &setpoint}

	default:
		return fmt.Errorf("unknown fan mode %q", mode)
	}

	return d.send(ctx, gen, req)
}

// PreviewSpeed applies an intermediate pwm value locally for live feedback
// during a continuous gesture. No request is sent.
func (d *Dispatcher) PreviewSpeed(pwm int) {
	d.state.PreviewPWM(pwm)
}

// CommitSpeed sends the final pwm of a gesture as one MANUAL control command.
func (d *Dispatcher) CommitSpeed(ctx context.Context, pwm int) error {
	if !d.state.Connectivity().Reachable {
		return ErrNotConnected
	}

	gen := d.state.NextCommandGeneration()
	fan := d.state.ApplyManualMode(pwm)
	value := fan.PWM
	req := models.ControlRequest{FanMode: string(state.FanManual), FanPwm: &value}

	return d.send(ctx, gen, req)
}

// PreviewSetpoint applies an intermediate setpoint value locally.
func (d *Dispatcher) PreviewSetpoint(value int) {
	d.state.PreviewSetpoint(value)
}

// CommitSetpoint sends the final setpoint of a gesture as one control command.
func (d *Dispatcher) CommitSetpoint(ctx context.Context, value int) error {
	if !d.state.Connectivity().Reachable {
		return ErrNotConnected
	}

	gen := d.state.NextCommandGeneration()
	fan := d.state.PreviewSetpoint(value)
	setpoint := fan.Setpoint
	req := models.ControlRequest{FanMode: string(fan.Mode), Setpoint: &setpoint}

	return d.send(ctx, gen, req)
}

// ProvisionStation configures the device's upstream Wi-Fi. On success the
// station connectivity fields are updated from the response; on failure the
// prior station state stays untouched.
func (d *Dispatcher) ProvisionStation(ctx context.Context, ssid, password string) error {
	if strings.TrimSpace(ssid) == "" || password == "" {
		return ErrMissingCredentials
	}
	if !d.state.Connectivity().Reachable {
		return ErrNotConnected
	}

	gen := d.state.NextCommandGeneration()

	status, err := d.device.ConfigureStation(ctx, models.StationConfig{SSID: ssid, Password: password})
	if err != nil {
		d.state.SetCommandError(gen, err.Error())
		d.logger.Warn().Err(err).Str("ssid", ssid).Msg("Station provisioning failed")
		return err
	}

	d.state.ApplyStationStatus(gen, state.Station{
		Connected: status.STAConnected,
		Address:   status.STAIP,
		SSID:      status.STASSID,
	})
	d.logger.Info().Str("ssid", ssid).Bool("connected", status.STAConnected).Msg("Station provisioned")
	return nil
}

// ScanNetworks lists Wi-Fi networks visible to the device for provisioning.
func (d *Dispatcher) ScanNetworks(ctx context.Context) ([]models.WifiNetwork, error) {
	if !d.state.Connectivity().Reachable {
		return nil, ErrNotConnected
	}
	return d.device.ScanNetworks(ctx)
}

// send pushes one control command. The generation stamp keeps a late
// completion of a superseded command from clobbering newer state.
func (d *Dispatcher) send(ctx context.Context, gen uint64, req models.ControlRequest) error {
	if err := d.device.Control(ctx, req); err != nil {
		d.state.SetCommandError(gen, err.Error())
		d.logger.Warn().Err(err).Str("fan_mode", req.FanMode).Msg("Control command failed")
		return err
	}

	d.state.ClearCommandError(gen)
	return nil
}
