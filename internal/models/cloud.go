package models

import "time"

// MeasurementRecord is one append-only row of the cloud measurements table.
// The timestamp column is assigned server-side.
type MeasurementRecord struct {
	DeviceID        string  `json:"device_id"`
	AirQualityValue float64 `json:"air_quality_value"`
	AirQualityState string  `json:"air_quality_state"`
	FanSpeed        int     `json:"fan_speed"`
}

// EventRecord is one append-only row of the cloud events table.
type EventRecord struct {
	DeviceID        string   `json:"device_id"`
	Type            string   `json:"event_type"`
	Code            string   `json:"event_code,omitempty"`
	Description     string   `json:"description"`
	AirQualityValue *float64 `json:"air_quality_value,omitempty"`
	AirQualityState string   `json:"air_quality_state"`
	Severity        int      `json:"severity"`
}

// MeasurementPoint is one sample returned by a history query.
type MeasurementPoint struct {
	At    time.Time `json:"timestamp"`
	Value float64   `json:"air_quality_value"`
}
