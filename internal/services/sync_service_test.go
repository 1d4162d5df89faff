package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aircare/purifier-agent/internal/constants"
	"github.com/aircare/purifier-agent/internal/mocks"
	"github.com/aircare/purifier-agent/internal/models"
	"github.com/aircare/purifier-agent/internal/services"
	"github.com/aircare/purifier-agent/internal/state"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func i64ptr(v int64) *int64   { return &v }

func statusReport() models.StatusData {
	return models.StatusData{
		Air:  &models.AirInfo{AirQualityValue: fptr(120), AirQualityState: strptr("MALA")},
		Fan:  &models.FanInfo{Mode: strptr("AUTO"), PWM: iptr(0), Setpoint: iptr(500)},
		Time: &models.TimeInfo{Millis: i64ptr(1000)},
	}
}

// TestSyncNowAppliesStatusAndRecords covers the end-to-end happy path: the
// device report lands in the container and exactly one measurement is
// mirrored with the reported fan speed.
func TestSyncNowAppliesStatusAndRecords(t *testing.T) {
	device := new(mocks.DeviceClient)
	device.On("Status", mock.Anything).Return(statusReport(), nil)

	recorder := new(mocks.Recorder)
	recorder.On("Record", mock.Anything, mock.Anything, 0).Once()

	container := state.NewContainer(state.Endpoint{})
	svc := services.NewSyncService(time.Second, device, container, recorder, zerolog.Nop())

	svc.SyncNow(context.Background())

	reading := container.Reading()
	require.NotNil(t, reading.Value)
	assert.Equal(t, 120.0, *reading.Value)
	assert.Equal(t, constants.TierBad, reading.State)
	assert.Equal(t, time.UnixMilli(1000), reading.ObservedAt)

	fan := container.Fan()
	assert.Equal(t, state.FanAuto, fan.Mode)
	assert.Equal(t, 0, fan.PWM)
	assert.Equal(t, 500, fan.Setpoint)

	recorder.AssertExpectations(t)
}

// TestSyncNowFailureKeepsPriorState verifies a failed poll never blanks the
// last good reading and produces no measurement.
func TestSyncNowFailureKeepsPriorState(t *testing.T) {
	device := new(mocks.DeviceClient)
	device.On("Status", mock.Anything).Return(statusReport(), nil).Once()
	device.On("Status", mock.Anything).Return(models.StatusData{}, errors.New("TIMEOUT")).Once()

	recorder := new(mocks.Recorder)
	recorder.On("Record", mock.Anything, mock.Anything, mock.Anything)

	container := state.NewContainer(state.Endpoint{})
	svc := services.NewSyncService(time.Second, device, container, recorder, zerolog.Nop())

	svc.SyncNow(context.Background())
	svc.SyncNow(context.Background())

	reading := container.Reading()
	require.NotNil(t, reading.Value)
	assert.Equal(t, 120.0, *reading.Value)
	assert.Equal(t, constants.TierBad, reading.State)

	lastError, loading := container.SyncStatus()
	assert.Equal(t, "TIMEOUT", lastError)
	assert.False(t, loading)

	recorder.AssertNumberOfCalls(t, "Record", 1)
}

// TestSyncNowSkipsMirrorWithoutValue verifies the mirror only runs once a
// real air-quality value exists.
func TestSyncNowSkipsMirrorWithoutValue(t *testing.T) {
	device := new(mocks.DeviceClient)
	device.On("Status", mock.Anything).Return(models.StatusData{
		Fan: &models.FanInfo{Mode: strptr("AUTO"), PWM: iptr(0)},
	}, nil)

	recorder := new(mocks.Recorder)

	container := state.NewContainer(state.Endpoint{})
	svc := services.NewSyncService(time.Second, device, container, recorder, zerolog.Nop())

	svc.SyncNow(context.Background())

	recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

// TestSyncNowDropsOverlappingPoll verifies polls are serialized per device:
// a tick arriving while one is in flight is dropped, not queued.
func TestSyncNowDropsOverlappingPoll(t *testing.T) {
	release := make(chan struct{})

	device := new(mocks.DeviceClient)
	device.On("Status", mock.Anything).Run(func(mock.Arguments) {
		<-release
	}).Return(statusReport(), nil)

	recorder := new(mocks.Recorder)
	recorder.On("Record", mock.Anything, mock.Anything, mock.Anything)

	container := state.NewContainer(state.Endpoint{})
	svc := services.NewSyncService(time.Second, device, container, recorder, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.SyncNow(context.Background())
	}()

	// Give the first poll time to enter the transport call, then attempt an
	// overlapping one.
	time.Sleep(20 * time.Millisecond)
	svc.SyncNow(context.Background())

	close(release)
	wg.Wait()

	device.AssertNumberOfCalls(t, "Status", 1)
}

func TestSyncServiceLifecycle(t *testing.T) {
	device := new(mocks.DeviceClient)
	device.On("Status", mock.Anything).Return(statusReport(), nil)

	recorder := new(mocks.Recorder)
	recorder.On("Record", mock.Anything, mock.Anything, mock.Anything)

	container := state.NewContainer(state.Endpoint{})
	svc := services.NewSyncService(50*time.Millisecond, device, container, recorder, zerolog.Nop())

	require.NoError(t, svc.Start())

	err := svc.Start()
	require.Error(t, err)
	assert.Equal(t, "sync service is already running", err.Error())

	require.NoError(t, svc.Stop())

	err = svc.Stop()
	require.Error(t, err)
	assert.Equal(t, "sync service is not running", err.Error())
}
