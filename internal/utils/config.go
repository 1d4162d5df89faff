package utils

import (
	"github.com/aircare/purifier-agent/internal/constants"
	"github.com/aircare/purifier-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Device struct {
		Host             string `yaml:"host"`               // Device IPv4 address (AP default 192.168.4.1)
		Port             int    `yaml:"port"`               // Device HTTP port
		RequestTimeoutMs int    `yaml:"request_timeout_ms"` // Per-request timeout
		IdentityFile     string `yaml:"identity_file"`      // Path to the persisted device identity file
	} `yaml:"device"`

	Connectivity struct {
		RetryIntervalMs int `yaml:"retry_interval_ms"` // Re-check cadence while the sensor warms up
	} `yaml:"connectivity"`

	Sync struct {
		PollIntervalMs int `yaml:"poll_interval_ms"` // Status poll cadence while connected
	} `yaml:"sync"`

	Cloud struct {
		Enabled          bool   `yaml:"enabled"`            // Enable/disable cloud persistence
		URL              string `yaml:"url"`                // Project root URL (without /rest/v1)
		AnonKey          string `yaml:"anon_key"`           // Static anonymous API key
		RequestTimeoutMs int    `yaml:"request_timeout_ms"` // Cloud request timeout
	} `yaml:"cloud"`

	Telemetry struct {
		AlertPolicy string `yaml:"alert_policy"` // "level" (per poll) or "edge" (per transition)

		MQTT struct {
			Enabled       bool   `yaml:"enabled"`        // Enable/disable broker fan-out
			Broker        string `yaml:"broker"`         // Broker address
			ClientID      string `yaml:"client_id"`      // Client ID prefix
			Topic         string `yaml:"topic"`          // Measurement topic
			QOS           int    `yaml:"qos"`            // QoS level
			CACertificate string `yaml:"ca_certificate"` // Optional path to the CA certificate
		} `yaml:"mqtt"`
	} `yaml:"telemetry"`

	Alerts struct {
		Mailgun struct {
			Enabled    bool     `yaml:"enabled"`    // Enable/disable alert emails
			Domain     string   `yaml:"domain"`     // Mailgun domain
			APIKey     string   `yaml:"api_key"`    // Mailgun API key
			Sender     string   `yaml:"sender"`     // From address
			Recipients []string `yaml:"recipients"` // Alert recipients
		} `yaml:"mailgun"`
	} `yaml:"alerts"`
}

// LoadConfig loads the YAML configuration from the specified file and fills
// in defaults for anything left unset.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Device.Host == "" {
		config.Device.Host = constants.DefaultDeviceHost
	}
	if config.Device.Port == 0 {
		config.Device.Port = constants.DefaultDevicePort
	}
	if config.Device.RequestTimeoutMs == 0 {
		config.Device.RequestTimeoutMs = constants.DefaultRequestTimeoutMs
	}
	if config.Device.IdentityFile == "" {
		config.Device.IdentityFile = "configs/device-identity.json"
	}
	if config.Connectivity.RetryIntervalMs == 0 {
		config.Connectivity.RetryIntervalMs = constants.DefaultRetryIntervalMs
	}
	if config.Sync.PollIntervalMs == 0 {
		config.Sync.PollIntervalMs = constants.DefaultPollIntervalMs
	}
	if config.Cloud.RequestTimeoutMs == 0 {
		config.Cloud.RequestTimeoutMs = constants.DefaultCloudTimeoutMs
	}
	if config.Telemetry.AlertPolicy == "" {
		config.Telemetry.AlertPolicy = "level"
	}
	if config.Telemetry.MQTT.ClientID == "" {
		config.Telemetry.MQTT.ClientID = "purifier-agent"
	}
}
