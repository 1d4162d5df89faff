package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/aircare/purifier-agent/internal/constants"
	"github.com/aircare/purifier-agent/internal/models"
)

// Phase is the connectivity state machine position.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseChecking
	PhaseConnected
	PhaseDisconnected
)

// FanMode mirrors the device's fan regulation mode.
type FanMode string

const (
	FanAuto   FanMode = "AUTO"
	FanManual FanMode = "MANUAL"
)

// Endpoint is the device's network address configuration.
type Endpoint struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// Station describes the device acting as a Wi-Fi client on an upstream network.
type Station struct {
	Connected bool
	Address   string
	SSID      string
}

// Connectivity is the reachability snapshot derived from the last ping.
// It is replaced wholesale on every check attempt.
type Connectivity struct {
	Phase         Phase
	Reachable     bool
	LastSuccessAt *time.Time
	APAddress     string
	Station       Station
	SensorReady   bool
	LastError     string
}

// Reading is the last device-reported air-quality measurement. A nil Value
// means no successful read has reported one yet.
type Reading struct {
	Value      *float64
	State      constants.AirTier
	ObservedAt time.Time
}

// Fan is the reconciled fan state. LastManualPWM records the speed to resume
// when the user re-enters MANUAL; it is never overwritten by AUTO-derived
// pwm values.
type Fan struct {
	Mode          FanMode
	PWM           int
	Setpoint      int
	LastManualPWM int
}

// Container holds the unified in-memory device state. It is constructor
// injected so tests and callers own isolated instances instead of sharing a
// process-wide singleton. All mutations go through its methods; reads return
// copies.
type Container struct {
	mu         sync.Mutex
	endpoint   Endpoint
	conn       Connectivity
	reading    Reading
	fan        Fan
	syncErr    string
	loading    bool
	commandErr string

	commandGen atomic.Uint64
}

// NewContainer creates a state container with the given endpoint defaults.
func NewContainer(endpoint Endpoint) *Container {
	return &Container{
		endpoint: endpoint,
		fan: Fan{
			Mode:     FanAuto,
			Setpoint: constants.DefaultSetpoint,
		},
	}
}

// Endpoint returns the current device endpoint configuration.
func (c *Container) Endpoint() Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// SetEndpoint replaces the device endpoint configuration. The override lives
// in memory only; it is not persisted across restarts.
func (c *Container) SetEndpoint(endpoint Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = endpoint
}

// Connectivity returns the current connectivity snapshot.
func (c *Container) Connectivity() Connectivity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// BeginCheck marks a reachability probe as in progress.
func (c *Container) BeginCheck() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Phase = PhaseChecking
}

// SetConnectivity replaces the connectivity snapshot wholesale. Partial
// merges are deliberately not offered here: a stale merge could mask a
// device reset.
func (c *Container) SetConnectivity(conn Connectivity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// Reading returns the last known air-quality reading.
func (c *Container) Reading() Reading {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reading
}

// Fan returns the current fan state.
func (c *Container) Fan() Fan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fan
}

// SyncStatus returns the synchronizer's error annotation and loading flag.
func (c *Container) SyncStatus() (lastError string, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncErr, c.loading
}

// BeginPoll marks a status poll as in progress without touching the last
// known reading.
func (c *Container) BeginPoll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
}

// SetPollError records a failed poll. Everything previously known stays
// untouched so a transient failure never blanks the last good reading.
func (c *Container) SetPollError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncErr = msg
	c.loading = false
}

// ApplyStatus reconciles a successful status poll into the container. Absent
// fields keep their prior in-memory values so the client stays forward
// compatible with firmware that does not yet report them. Returns the
// resulting reading and fan state.
func (c *Container) ApplyStatus(status models.StatusData, now time.Time) (Reading, Fan) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if status.Air != nil {
		if status.Air.AirQualityValue != nil {
			v := *status.Air.AirQualityValue
			c.reading.Value = &v
		}
		if status.Air.AirQualityState != nil {
			c.reading.State = constants.ParseAirTier(*status.Air.AirQualityState)
		}
	}

	observed := now
	if status.Time != nil && status.Time.Millis != nil {
		observed = time.UnixMilli(*status.Time.Millis)
	}
	c.reading.ObservedAt = observed

	if status.Fan != nil {
		// Mode is applied before pwm so the LastManualPWM rule sees the
		// mode in effect for this report.
		if status.Fan.Mode != nil {
			if mode, ok := parseFanMode(*status.Fan.Mode); ok {
				c.fan.Mode = mode
			}
		}
		if status.Fan.PWM != nil {
			c.setPWMLocked(*status.Fan.PWM)
		}
		if status.Fan.Setpoint != nil {
			c.fan.Setpoint = clamp(*status.Fan.Setpoint, 0, constants.MaxSetpoint)
		}
	}

	c.syncErr = ""
	c.loading = false
	return c.reading, c.fan
}

// ApplyManualMode optimistically switches the fan to MANUAL at the given pwm.
func (c *Container) ApplyManualMode(pwm int) Fan {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fan.Mode = FanManual
	c.setPWMLocked(pwm)
	return c.fan
}

// ApplyAutoMode optimistically switches the fan to AUTO.
func (c *Container) ApplyAutoMode() Fan {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fan.Mode = FanAuto
	return c.fan
}

// PreviewPWM applies an intermediate local pwm value for live UI feedback.
func (c *Container) PreviewPWM(pwm int) Fan {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPWMLocked(pwm)
	return c.fan
}

// PreviewSetpoint applies an intermediate local setpoint value.
func (c *Container) PreviewSetpoint(value int) Fan {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fan.Setpoint = clamp(value, 0, constants.MaxSetpoint)
	return c.fan
}

// NextCommandGeneration stamps a new dispatched command. Outcomes carrying a
// superseded stamp are ignored so a late completion cannot clobber newer
// optimistic state.
func (c *Container) NextCommandGeneration() uint64 {
	return c.commandGen.Add(1)
}

// SetCommandError records a command failure if gen is still the latest
// dispatched command. Reports whether the error was applied.
func (c *Container) SetCommandError(gen uint64, msg string) bool {
	if gen != c.commandGen.Load() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commandErr = msg
	return true
}

// ClearCommandError clears the command error if gen is still the latest.
func (c *Container) ClearCommandError(gen uint64) bool {
	if gen != c.commandGen.Load() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commandErr = ""
	return true
}

// CommandError returns the last surfaced command failure, if any.
func (c *Container) CommandError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandErr
}

// ApplyStationStatus updates station connectivity fields from a successful
// provisioning reply, unless the command has been superseded.
func (c *Container) ApplyStationStatus(gen uint64, station Station) bool {
	if gen != c.commandGen.Load() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Station = station
	c.commandErr = ""
	return true
}

// setPWMLocked clamps and applies a pwm value. LastManualPWM is updated only
// when the fan is in MANUAL at the moment the pwm changes.
func (c *Container) setPWMLocked(pwm int) {
	pwm = clamp(pwm, 0, constants.MaxFanPWM)
	if c.fan.Mode == FanManual && pwm != c.fan.PWM {
		c.fan.LastManualPWM = pwm
	}
	c.fan.PWM = pwm
}

func parseFanMode(raw string) (FanMode, bool) {
	switch raw {
	case string(FanAuto):
		return FanAuto, true
	case string(FanManual):
		return FanManual, true
	default:
		return "", false
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
