package models

import "encoding/json"

// Envelope is the wrapper around every device response: { ok, data }.
type Envelope struct {
	OK   bool            `json:"ok"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PingData is the payload of GET /api/ping. Fields are pointers so that a
// firmware build that does not yet report a field can be told apart from one
// reporting a zero value.
type PingData struct {
	Net         *NetInfo `json:"net,omitempty"`
	SensorReady *bool    `json:"sensorReady,omitempty"`
}

// NetInfo describes the device's AP and station network identity.
type NetInfo struct {
	APIP         *string `json:"apIp,omitempty"`
	STAConnected *bool   `json:"staConnected,omitempty"`
	STAIP        *string `json:"staIp,omitempty"`
	STASSID      *string `json:"staSsid,omitempty"`
}

// StatusData is the payload of GET /api/status.
type StatusData struct {
	Air  *AirInfo  `json:"air,omitempty"`
	Fan  *FanInfo  `json:"fan,omitempty"`
	Time *TimeInfo `json:"time,omitempty"`
}

// AirInfo carries the device's air-quality measurement.
type AirInfo struct {
	AirQualityValue *float64 `json:"airQualityValue,omitempty"`
	AirQualityState *string  `json:"airQualityState,omitempty"`
}

// FanInfo carries the device's fan regulation state.
type FanInfo struct {
	Mode     *string `json:"mode,omitempty"`
	PWM      *int    `json:"pwm,omitempty"`
	Setpoint *int    `json:"setpoint,omitempty"`
}

// TimeInfo carries the device's onboard clock.
type TimeInfo struct {
	Millis *int64 `json:"millis,omitempty"`
}
