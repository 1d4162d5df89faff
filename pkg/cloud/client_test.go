package cloud_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aircare/purifier-agent/internal/models"
	"github.com/aircare/purifier-agent/pkg/cloud"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anonKey = "test-anon-key"

func newTestStore(t *testing.T, handler http.Handler) *cloud.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return cloud.NewClient(server.URL, anonKey, time.Second, zerolog.Nop())
}

func TestInsertMeasurement(t *testing.T) {
	var received map[string]any
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/measurements", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, anonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+anonKey, r.Header.Get("Authorization"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))

	err := store.InsertMeasurement(context.Background(), models.MeasurementRecord{
		DeviceID:        "abc",
		AirQualityValue: 120,
		AirQualityState: "BAD",
		FanSpeed:        0,
	})
	require.NoError(t, err)

	assert.Equal(t, "abc", received["device_id"])
	assert.Equal(t, 120.0, received["air_quality_value"])
	assert.Equal(t, "BAD", received["air_quality_state"])
	assert.Equal(t, 0.0, received["fan_speed"])
	// The timestamp column is server-assigned, never sent by the client.
	assert.NotContains(t, received, "timestamp")
}

func TestInsertEventErrorStatus(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/events", r.URL.Path)
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))

	err := store.InsertEvent(context.Background(), models.EventRecord{DeviceID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestMeasurementsQuery(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/measurements", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "timestamp,air_quality_value", query.Get("select"))
		assert.Equal(t, "eq.abc", query.Get("device_id"))
		assert.Equal(t, "timestamp.asc", query.Get("order"))
		assert.Contains(t, query.Get("timestamp"), "gte.")
		w.Write([]byte(`[
			{"timestamp":"2026-08-29T10:00:00Z","air_quality_value":42},
			{"timestamp":"2026-08-29T11:00:00Z","air_quality_value":55}
		]`))
	}))

	points, err := store.Measurements(context.Background(), "abc", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 42.0, points[0].Value)
	assert.Equal(t, time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), points[0].At)
}

func TestMeasurementsQueryErrorStatus(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	}))

	_, err := store.Measurements(context.Background(), "abc", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
