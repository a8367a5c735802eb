package capability

import (
	"encoding/json"
	"fmt"
)

// StateCapability is the live value of one capability instance. The vendor
// reports the value inside a loose state object; most capabilities use the
// key "value" but a few key it by the instance name instead, so the raw
// object is kept and Value handles both shapes.
type StateCapability struct {
	Type     Type           `json:"type"`
	Instance string         `json:"instance"`
	State    map[string]any `json:"state"`
}

// Value extracts the reported value, preferring the "value" key and falling
// back to a key named after the instance.
func (c StateCapability) Value() (any, bool) {
	if c.State == nil {
		return nil, false
	}
	if v, ok := c.State["value"]; ok {
		return v, true
	}
	if v, ok := c.State[c.Instance]; ok {
		return v, true
	}
	return nil, false
}

// DeviceState is the full last-known state of one device: an ordered list
// of capability states, at most one per (type, instance) pair.
type DeviceState struct {
	Capabilities []StateCapability `json:"capabilities"`
}

// Capability finds the state entry for (typ, instance). The list is small
// and never declares duplicates, so a linear first-match scan is enough.
func (s DeviceState) Capability(typ Type, instance string) (StateCapability, bool) {
	for _, c := range s.Capabilities {
		if c.Type == typ && c.Instance == instance {
			return c, true
		}
	}
	return StateCapability{}, false
}

// Value returns the reported value for (typ, instance), or false when the
// capability or its value is absent.
func (s DeviceState) Value(typ Type, instance string) (any, bool) {
	c, ok := s.Capability(typ, instance)
	if !ok {
		return nil, false
	}
	return c.Value()
}

// Online reports device reachability from the online capability. Devices
// that do not declare it are treated as offline, matching the vendor's
// behaviour of omitting the capability for unreachable devices.
func (s DeviceState) Online() bool {
	v, ok := s.Value(TypeOnline, InstanceOnline)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// WorkModeValue is the resolved value of a work-mode capability: the
// discrete operating mode plus its optional secondary parameter.
type WorkModeValue struct {
	WorkMode  int  `json:"workMode"`
	ModeValue *int `json:"modeValue,omitempty"`
}

// ParseWorkModeValue converts the loose wire shape of a work-mode state
// value ({"workMode": n, "modeValue": m}) into the closed WorkModeValue
// type. Downstream code matches on this instead of re-inspecting maps.
func ParseWorkModeValue(v any) (WorkModeValue, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return WorkModeValue{}, fmt.Errorf("work mode value is %T, expected object", v)
	}
	wm, ok := asInt(m["workMode"])
	if !ok {
		return WorkModeValue{}, fmt.Errorf("work mode value is missing workMode: %v", m)
	}
	out := WorkModeValue{WorkMode: wm}
	if mv, ok := asInt(m["modeValue"]); ok {
		out.ModeValue = &mv
	}
	return out, nil
}

// asInt normalizes the numeric types produced by encoding/json.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
