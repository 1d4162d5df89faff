package identity

import (
	"os"

	"github.com/aircare/purifier-agent/pkg/file"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Identity holds the locally-generated stable device identifier. The device
// never reports an id of its own; cloud rows are keyed by this one.
type Identity struct {
	ID   string `json:"device_id,omitempty"`
	Name string `json:"device_name,omitempty"`
}

// DeviceInfoInterface defines methods for managing the device identity.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	GetDeviceID() string
	GetDeviceIdentity() *Identity
}

// DeviceInfo manages the device identity and its backing file.
type DeviceInfo struct {
	DeviceInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
	logger         zerolog.Logger
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations, logger zerolog.Logger) DeviceInfoInterface {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
		logger:         logger,
	}
}

// LoadDeviceInfo reads the identity file, generating and persisting a fresh
// UUID when no identity exists yet. The id is stable across restarts.
func (d *DeviceInfo) LoadDeviceInfo() error {
	err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &d.Identity)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if d.Identity.ID == "" {
		d.Identity.ID = uuid.New().String()
		if err := d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity); err != nil {
			return err
		}
		d.logger.Info().Str("device_id", d.Identity.ID).Msg("Generated new device identity")
	}

	return nil
}

// GetDeviceIdentity returns the current device Identity.
func (d *DeviceInfo) GetDeviceIdentity() *Identity {
	return &d.Identity
}

// GetDeviceID returns the current device ID.
func (d *DeviceInfo) GetDeviceID() string {
	return d.Identity.ID
}
