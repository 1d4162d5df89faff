package identity_test

import (
	"path/filepath"
	"testing"

	"github.com/aircare/purifier-agent/pkg/file"
	"github.com/aircare/purifier-agent/pkg/identity"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDeviceInfoGeneratesStableID verifies a fresh identity file gets a
// valid UUID that survives a reload.
func TestLoadDeviceInfoGeneratesStableID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device-identity.json")
	fileClient := file.NewFileService()

	first := identity.NewDeviceInfo(path, fileClient, zerolog.Nop())
	require.NoError(t, first.LoadDeviceInfo())

	id := first.GetDeviceID()
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	second := identity.NewDeviceInfo(path, fileClient, zerolog.Nop())
	require.NoError(t, second.LoadDeviceInfo())
	assert.Equal(t, id, second.GetDeviceID())
}

func TestLoadDeviceInfoKeepsExistingIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device-identity.json")
	fileClient := file.NewFileService()

	existing := identity.Identity{ID: "11111111-2222-3333-4444-555555555555", Name: "living-room"}
	require.NoError(t, fileClient.WriteJsonFile(path, existing))

	info := identity.NewDeviceInfo(path, fileClient, zerolog.Nop())
	require.NoError(t, info.LoadDeviceInfo())

	assert.Equal(t, existing.ID, info.GetDeviceID())
	assert.Equal(t, "living-room", info.GetDeviceIdentity().Name)
}
