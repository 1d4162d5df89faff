package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aircare/purifier-agent/internal/mocks"
	"github.com/aircare/purifier-agent/internal/models"
	"github.com/aircare/purifier-agent/internal/services"
	"github.com/aircare/purifier-agent/internal/state"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bptr(v bool) *bool      { return &v }
func strptr(v string) *string { return &v }

func fullPing() models.PingData {
	return models.PingData{
		Net: &models.NetInfo{
			APIP:         strptr("192.168.4.1"),
			STAConnected: bptr(true),
			STAIP:        strptr("10.0.0.42"),
			STASSID:      strptr("home"),
		},
		SensorReady: bptr(true),
	}
}

func TestCheckNowSuccess(t *testing.T) {
	device := new(mocks.DeviceClient)
	device.On("Ping", mock.Anything).Return(fullPing(), nil)

	container := state.NewContainer(state.Endpoint{})
	var transitions []bool
	svc := services.NewConnectivityService(time.Second, device, container, func(connected bool) {
		transitions = append(transitions, connected)
	}, zerolog.Nop())

	snapshot := svc.CheckNow(context.Background())

	assert.Equal(t, state.PhaseConnected, snapshot.Phase)
	assert.True(t, snapshot.Reachable)
	require.NotNil(t, snapshot.LastSuccessAt)
	assert.Equal(t, "192.168.4.1", snapshot.APAddress)
	assert.True(t, snapshot.Station.Connected)
	assert.Equal(t, "10.0.0.42", snapshot.Station.Address)
	assert.Equal(t, "home", snapshot.Station.SSID)
	assert.True(t, snapshot.SensorReady)
	assert.Empty(t, snapshot.LastError)
	assert.Equal(t, []bool{true}, transitions)
}

// TestCheckNowSensorReadyFallback verifies an absent sensorReady field keeps
// the prior value instead of resetting to false.
func TestCheckNowSensorReadyFallback(t *testing.T) {
	device := new(mocks.DeviceClient)
	container := state.NewContainer(state.Endpoint{})
	svc := services.NewConnectivityService(time.Second, device, container, nil, zerolog.Nop())

	// First-ever check without the field: initial value false.
	device.On("Ping", mock.Anything).Return(models.PingData{}, nil).Once()
	snapshot := svc.CheckNow(context.Background())
	assert.False(t, snapshot.SensorReady)

	// Field reported true.
	device.On("Ping", mock.Anything).Return(fullPing(), nil).Once()
	snapshot = svc.CheckNow(context.Background())
	assert.True(t, snapshot.SensorReady)

	// Field absent again: prior value survives.
	device.On("Ping", mock.Anything).Return(models.PingData{Net: &models.NetInfo{}}, nil).Once()
	snapshot = svc.CheckNow(context.Background())
	assert.True(t, snapshot.SensorReady)
	assert.Equal(t, "192.168.4.1", snapshot.APAddress)
}

func TestCheckNowFailure(t *testing.T) {
	device := new(mocks.DeviceClient)
	container := state.NewContainer(state.Endpoint{})
	var transitions []bool
	svc := services.NewConnectivityService(time.Second, device, container, func(connected bool) {
		transitions = append(transitions, connected)
	}, zerolog.Nop())

	device.On("Ping", mock.Anything).Return(fullPing(), nil).Once()
	svc.CheckNow(context.Background())

	device.On("Ping", mock.Anything).Return(models.PingData{}, errors.New("NETWORK_ERROR: no route to host")).Once()
	snapshot := svc.CheckNow(context.Background())

	assert.Equal(t, state.PhaseDisconnected, snapshot.Phase)
	assert.False(t, snapshot.Reachable)
	assert.False(t, snapshot.SensorReady, "a failed probe clears sensor readiness")
	assert.Equal(t, "NETWORK_ERROR: no route to host", snapshot.LastError)
	// Last known network identity survives for display purposes.
	assert.Equal(t, "192.168.4.1", snapshot.APAddress)
	require.NotNil(t, snapshot.LastSuccessAt)
	assert.Equal(t, []bool{true, false}, transitions)
}

func TestCheckNowNoTransitionWhileStillDown(t *testing.T) {
	device := new(mocks.DeviceClient)
	device.On("Ping", mock.Anything).Return(models.PingData{}, errors.New("TIMEOUT"))

	container := state.NewContainer(state.Endpoint{})
	calls := 0
	svc := services.NewConnectivityService(time.Second, device, container, func(bool) { calls++ }, zerolog.Nop())

	svc.CheckNow(context.Background())
	svc.CheckNow(context.Background())

	assert.Equal(t, 0, calls, "reachability never flipped, so no transition fires")
}

func TestConnectivityServiceLifecycle(t *testing.T) {
	device := new(mocks.DeviceClient)
	device.On("Ping", mock.Anything).Return(fullPing(), nil)

	container := state.NewContainer(state.Endpoint{})
	svc := services.NewConnectivityService(50*time.Millisecond, device, container, nil, zerolog.Nop())

	require.NoError(t, svc.Start())

	err := svc.Start()
	require.Error(t, err)
	assert.Equal(t, "connectivity service is already running", err.Error())

	require.NoError(t, svc.Stop())

	err = svc.Stop()
	require.Error(t, err)
	assert.Equal(t, "connectivity service is not running", err.Error())
}

// TestAutoRetryStopsWhenSensorReady verifies the warm-up retry loop goes
// quiet once the device reports a ready sensor.
func TestAutoRetryStopsWhenSensorReady(t *testing.T) {
	device := new(mocks.DeviceClient)
	device.On("Ping", mock.Anything).Return(fullPing(), nil)

	container := state.NewContainer(state.Endpoint{})
	svc := services.NewConnectivityService(20*time.Millisecond, device, container, nil, zerolog.Nop())

	require.NoError(t, svc.Start())
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, svc.Stop())

	// Initial probe reported sensorReady=true, so the ticker never re-probed.
	device.AssertNumberOfCalls(t, "Ping", 1)
}
