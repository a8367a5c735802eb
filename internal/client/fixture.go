package client

import (
	"encoding/json"
	"fmt"
	"os"

	"govee-cloud-bridge/internal/capability"
)

// Fixture is an operator-provided substitute for the live vendor API. When
// the configured fixture file exists, device list and state reads are served
// from it and control calls synthesize success replies, bypassing the
// network entirely. This is a first-class operating mode, not a test hook.
type Fixture struct {
	Data struct {
		CloudDevices []capability.Device               `json:"cloud_devices"`
		CloudStates  map[string]capability.DeviceState `json:"cloud_states"`
	} `json:"data"`
}

// loadFixture reads and parses the fixture file. A missing file means the
// fixture mode is off; any other failure is reported so a broken fixture is
// not silently mistaken for live mode.
func loadFixture(path string) (*Fixture, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read fixture file %q: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file %q: %w", path, err)
	}
	return &f, nil
}

// StateFor returns the fixture state for a device.
func (f *Fixture) StateFor(deviceID string) (capability.DeviceState, bool) {
	st, ok := f.Data.CloudStates[deviceID]
	return st, ok
}
