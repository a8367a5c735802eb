package capability

// Type identifies a vendor capability class as it appears on the wire.
type Type string

const (
	TypeOnOff               Type = "devices.capabilities.on_off"
	TypeWorkMode            Type = "devices.capabilities.work_mode"
	TypeRange               Type = "devices.capabilities.range"
	TypeColorSetting        Type = "devices.capabilities.color_setting"
	TypeSegmentColorSetting Type = "devices.capabilities.segment_color_setting"
	TypeToggle              Type = "devices.capabilities.toggle"
	TypeMusicSetting        Type = "devices.capabilities.music_setting"
	TypeDIYSetting          Type = "devices.capabilities.diy_setting"
	TypeTemperatureSetting  Type = "devices.capabilities.temperature_setting"
	TypeProperty            Type = "devices.capabilities.property"
	TypeOnline              Type = "devices.capabilities.online"
)

// Common capability instances.
const (
	InstancePowerSwitch      = "powerSwitch"
	InstanceWorkMode         = "workMode"
	InstanceBrightness       = "brightness"
	InstanceColorRGB         = "colorRgb"
	InstanceColorTemperature = "colorTemperatureK"
	InstanceHumidity         = "humidity"
	InstanceTemperature      = "temperature"
	InstanceFanSpeed         = "fanSpeed"
	InstanceOnline           = "online"
)

// Range is a numeric interval declared by the vendor schema.
type Range struct {
	Min       int `json:"min"`
	Max       int `json:"max"`
	Precision int `json:"precision,omitempty"`
}

// Option is one selectable entry in a capability parameter. Options can
// nest: a parent option (e.g. a gear selector) carries its own child
// options, and a leaf may declare its value directly, as a default, or as
// a numeric range.
type Option struct {
	Name         string   `json:"name"`
	Value        *int     `json:"value,omitempty"`
	DefaultValue *int     `json:"defaultValue,omitempty"`
	Range        *Range   `json:"range,omitempty"`
	Options      []Option `json:"options,omitempty"`
}

// Field is one named field inside a struct-typed capability parameter.
type Field struct {
	FieldName    string         `json:"fieldName"`
	DataType     string         `json:"dataType"`
	Options      []Option       `json:"options,omitempty"`
	Required     *bool          `json:"required,omitempty"`
	Size         map[string]int `json:"size,omitempty"`
	ElementType  string         `json:"elementType,omitempty"`
	ElementRange map[string]int `json:"elementRange,omitempty"`
}

// Parameters holds the type-dependent parameter block of a capability
// descriptor. Exactly one of Fields, Options or Range is populated in
// practice, depending on DataType.
type Parameters struct {
	DataType string   `json:"dataType,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Fields   []Field  `json:"fields,omitempty"`
	Options  []Option `json:"options,omitempty"`
	Range    *Range   `json:"range,omitempty"`
}

// Descriptor is one declared capability of a device. Descriptors are
// static for the lifetime of a device registration.
type Descriptor struct {
	Type       Type       `json:"type"`
	Instance   string     `json:"instance"`
	Parameters Parameters `json:"parameters"`
}

// Device is a vendor device record from the device list endpoint.
// Immutable once fetched for a session; re-fetched only on full reload.
type Device struct {
	SKU          string       `json:"sku"`
	ID           string       `json:"device"`
	Name         string       `json:"deviceName"`
	Type         string       `json:"type"`
	Capabilities []Descriptor `json:"capabilities"`
}

// Capability returns the declared descriptor matching (typ, instance).
func (d Device) Capability(typ Type, instance string) (Descriptor, bool) {
	for _, c := range d.Capabilities {
		if c.Type == typ && c.Instance == instance {
			return c, true
		}
	}
	return Descriptor{}, false
}

// WorkModeDescriptor returns the device's work-mode capability, if declared.
func (d Device) WorkModeDescriptor() (Descriptor, bool) {
	for _, c := range d.Capabilities {
		if c.Type == TypeWorkMode {
			return c, true
		}
	}
	return Descriptor{}, false
}
