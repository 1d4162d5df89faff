package constants

// Defaults for the device endpoint and polling cadences.
const (
	DefaultDeviceHost        = "192.168.4.1"
	DefaultDevicePort        = 80
	DefaultRequestTimeoutMs  = 5000
	DefaultPollIntervalMs    = 4500
	DefaultRetryIntervalMs   = 5000
	DefaultCloudTimeoutMs    = 10000
	DefaultSetpoint          = 500
	MaxFanPWM                = 255
	MaxSetpoint              = 1000
)

// Alert event attributes written to the cloud event log.
const (
	EventTypeAlert       = "alert"
	EventCodeAirCritical = "AIR_CRITICAL"
	SeverityCritical     = 5
)

// AirTier is the ordered air-quality category reported by the device.
type AirTier int

const (
	TierUnknown AirTier = iota
	TierGood
	TierModerate
	TierBad
	TierVeryBad
)

// String returns the canonical label stored in cloud rows.
func (t AirTier) String() string {
	switch t {
	case TierGood:
		return "GOOD"
	case TierModerate:
		return "MODERATE"
	case TierBad:
		return "BAD"
	case TierVeryBad:
		return "VERY_BAD"
	default:
		return "UNKNOWN"
	}
}

// ParseAirTier normalizes a device-reported state label into a tier. The
// firmware reports Spanish labels; the English forms are accepted for
// forward compatibility with newer firmware builds.
func ParseAirTier(label string) AirTier {
	switch label {
	case "BUENA", "GOOD":
		return TierGood
	case "MODERADA", "MODERATE":
		return TierModerate
	case "MALA", "BAD":
		return TierBad
	case "MUY MALA", "VERY_BAD":
		return TierVeryBad
	default:
		return TierUnknown
	}
}
