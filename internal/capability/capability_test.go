package capability

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deviceJSON is a trimmed device record in the shape the vendor's device
// list endpoint returns.
const deviceJSON = `{
	"sku": "H7131",
	"device": "AA:BB:CC:DD:EE:FF:00:11",
	"deviceName": "Bedroom Heater",
	"type": "devices.types.heater",
	"capabilities": [
		{
			"type": "devices.capabilities.on_off",
			"instance": "powerSwitch",
			"parameters": {
				"dataType": "ENUM",
				"options": [
					{"name": "on", "value": 1},
					{"name": "off", "value": 0}
				]
			}
		},
		{
			"type": "devices.capabilities.work_mode",
			"instance": "workMode",
			"parameters": {
				"dataType": "STRUCT",
				"fields": [
					{
						"fieldName": "workMode",
						"dataType": "ENUM",
						"options": [
							{"name": "gearMode", "value": 1},
							{"name": "Fan", "value": 9}
						]
					},
					{
						"fieldName": "modeValue",
						"dataType": "ENUM",
						"options": [
							{
								"name": "gearMode",
								"options": [
									{"name": "Low", "value": 1},
									{"name": "High", "value": 3}
								]
							},
							{"name": "Fan", "defaultValue": 9}
						]
					}
				]
			}
		},
		{
			"type": "devices.capabilities.range",
			"instance": "humidity",
			"parameters": {
				"dataType": "INTEGER",
				"unit": "unit.percent",
				"range": {"min": 40, "max": 80, "precision": 1}
			}
		}
	]
}`

func TestDeviceUnmarshal(t *testing.T) {
	var d Device
	require.NoError(t, json.Unmarshal([]byte(deviceJSON), &d))

	assert.Equal(t, "H7131", d.SKU)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF:00:11", d.ID)
	assert.Equal(t, "Bedroom Heater", d.Name)
	assert.Len(t, d.Capabilities, 3)

	rng, ok := d.Capability(TypeRange, InstanceHumidity)
	require.True(t, ok)
	require.NotNil(t, rng.Parameters.Range)
	assert.Equal(t, 40, rng.Parameters.Range.Min)
	assert.Equal(t, 80, rng.Parameters.Range.Max)

	_, ok = d.Capability(TypeColorSetting, InstanceColorRGB)
	assert.False(t, ok)

	wm, ok := d.WorkModeDescriptor()
	require.True(t, ok)
	assert.Equal(t, InstanceWorkMode, wm.Instance)
	require.Len(t, wm.Parameters.Fields, 2)

	// Nested parent/child options survive the round trip.
	modeValue := wm.Parameters.Fields[1]
	require.Len(t, modeValue.Options, 2)
	assert.Len(t, modeValue.Options[0].Options, 2)
	require.NotNil(t, modeValue.Options[1].DefaultValue)
	assert.Equal(t, 9, *modeValue.Options[1].DefaultValue)
}

func TestNewPowerMapping(t *testing.T) {
	var d Device
	require.NoError(t, json.Unmarshal([]byte(deviceJSON), &d))

	desc, ok := d.Capability(TypeOnOff, InstancePowerSwitch)
	require.True(t, ok)

	m := NewPowerMapping(desc)
	assert.True(t, m.Valid())
	assert.Equal(t, 1, m.On)
	assert.Equal(t, 0, m.Off)
	assert.True(t, m.IsOn(1))
	assert.False(t, m.IsOn(0))
}

func TestNewPowerMapping_Incomplete(t *testing.T) {
	on := 1
	desc := Descriptor{
		Type:     TypeOnOff,
		Instance: InstancePowerSwitch,
		Parameters: Parameters{
			Options: []Option{{Name: "on", Value: &on}},
		},
	}

	m := NewPowerMapping(desc)
	assert.False(t, m.Valid())
	assert.False(t, m.IsOn(1))
}

func TestStateCapabilityValue(t *testing.T) {
	testCases := []struct {
		name     string
		cap      StateCapability
		expected any
		found    bool
	}{
		{
			name:     "value key",
			cap:      StateCapability{Instance: "brightness", State: map[string]any{"value": float64(42)}},
			expected: float64(42),
			found:    true,
		},
		{
			name:     "instance-named key",
			cap:      StateCapability{Instance: "online", State: map[string]any{"online": true}},
			expected: true,
			found:    true,
		},
		{
			name:  "no recognized key",
			cap:   StateCapability{Instance: "brightness", State: map[string]any{"level": float64(42)}},
			found: false,
		},
		{
			name:  "nil state",
			cap:   StateCapability{Instance: "brightness"},
			found: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := tc.cap.Value()
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.expected, v)
			}
		})
	}
}

func TestDeviceStateOnline(t *testing.T) {
	online := DeviceState{Capabilities: []StateCapability{
		{Type: TypeOnline, Instance: InstanceOnline, State: map[string]any{"value": true}},
	}}
	assert.True(t, online.Online())

	offline := DeviceState{Capabilities: []StateCapability{
		{Type: TypeOnline, Instance: InstanceOnline, State: map[string]any{"value": false}},
	}}
	assert.False(t, offline.Online())

	// Devices that never report the capability count as offline.
	assert.False(t, DeviceState{}.Online())
}

func TestParseWorkModeValue(t *testing.T) {
	v, err := ParseWorkModeValue(map[string]any{"workMode": float64(1), "modeValue": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, 1, v.WorkMode)
	require.NotNil(t, v.ModeValue)
	assert.Equal(t, 3, *v.ModeValue)

	v, err = ParseWorkModeValue(map[string]any{"workMode": float64(9)})
	require.NoError(t, err)
	assert.Equal(t, 9, v.WorkMode)
	assert.Nil(t, v.ModeValue)

	_, err = ParseWorkModeValue(map[string]any{"modeValue": float64(3)})
	assert.Error(t, err)

	_, err = ParseWorkModeValue("gearMode")
	assert.Error(t, err)
}

func TestWorkModeCommand(t *testing.T) {
	mv := 3
	cmd := WorkModeCommand(WorkModeValue{WorkMode: 1, ModeValue: &mv})
	assert.Equal(t, TypeWorkMode, cmd.Type)
	assert.Equal(t, InstanceWorkMode, cmd.Instance)
	assert.Equal(t, map[string]any{"workMode": 1, "modeValue": 3}, cmd.Value)

	cmd = WorkModeCommand(WorkModeValue{WorkMode: 9})
	assert.Equal(t, map[string]any{"workMode": 9}, cmd.Value)
}
