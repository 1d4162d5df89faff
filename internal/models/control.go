package models

// ControlRequest is the body of POST /api/control. Optional fields are
// omitted entirely rather than sent as zero values so the firmware only acts
// on what the user actually changed.
type ControlRequest struct {
	FanMode  string `json:"fanMode"`
	FanPwm   *int   `json:"fanPwm,omitempty"`
	Setpoint *int   `json:"setpoint,omitempty"`
}

// StationConfig is the body of POST /api/wifi-config.
type StationConfig struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// StationStatus is the device's reply to a station provisioning request.
type StationStatus struct {
	STAConnected bool   `json:"staConnected"`
	STAIP        string `json:"staIp"`
	STASSID      string `json:"staSsid"`
}

// WifiNetwork is one entry of the GET /api/wifi-scan listing.
type WifiNetwork struct {
	SSID   string `json:"ssid"`
	RSSI   int    `json:"rssi"`
	Secure bool   `json:"secure"`
}

// DeviceEvent is one row of the device's onboard event log (GET /api/events).
type DeviceEvent struct {
	ID              int64    `json:"id"`
	DeviceID        string   `json:"device_id"`
	Timestamp       string   `json:"timestamp"`
	EventType       string   `json:"event_type"`
	EventCode       string   `json:"event_code"`
	Description     string   `json:"description"`
	AirQualityValue *float64 `json:"air_quality_value"`
	AirQualityState string   `json:"air_quality_state"`
	Severity        int      `json:"severity"`
	FanSpeed        int      `json:"fan_speed"`
	Setpoint        int      `json:"setpoint"`
}
