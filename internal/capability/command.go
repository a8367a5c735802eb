package capability

import "log"

// Command is a control instruction sent to the vendor. Commands are built
// per call and never persisted.
type Command struct {
	Type     Type   `json:"type"`
	Instance string `json:"instance"`
	Value    any    `json:"value"`
}

// OnOffCommand builds a power switch command with the device's declared
// wire value for on or off.
func OnOffCommand(value int) Command {
	return Command{Type: TypeOnOff, Instance: InstancePowerSwitch, Value: value}
}

// WorkModeCommand builds a work-mode command from a resolved mode pair.
func WorkModeCommand(v WorkModeValue) Command {
	value := map[string]any{"workMode": v.WorkMode}
	if v.ModeValue != nil {
		value["modeValue"] = *v.ModeValue
	}
	return Command{Type: TypeWorkMode, Instance: InstanceWorkMode, Value: value}
}

// RangeCommand builds a command for a numeric range instance such as
// brightness, humidity or fan speed.
func RangeCommand(instance string, value float64) Command {
	return Command{Type: TypeRange, Instance: instance, Value: value}
}

// ColorRGBCommand builds a color command with a packed 24-bit RGB value.
func ColorRGBCommand(rgb int) Command {
	return Command{Type: TypeColorSetting, Instance: InstanceColorRGB, Value: rgb}
}

// ColorTemperatureCommand builds a color temperature command in Kelvin.
func ColorTemperatureCommand(kelvin int) Command {
	return Command{Type: TypeColorSetting, Instance: InstanceColorTemperature, Value: kelvin}
}

// PowerMapping translates between the host's on/off notion and the wire
// values a device declares for its power switch. Vendors are not consistent
// about 0/1, so the mapping is read from the on_off descriptor.
type PowerMapping struct {
	On  int
	Off int
	ok  bool
}

// NewPowerMapping derives the mapping from an on_off (or toggle) descriptor.
// Options other than "on"/"off" are logged and ignored.
func NewPowerMapping(desc Descriptor) PowerMapping {
	var m PowerMapping
	var haveOn, haveOff bool
	for _, opt := range desc.Parameters.Options {
		switch {
		case opt.Name == "on" && opt.Value != nil:
			m.On = *opt.Value
			haveOn = true
		case opt.Name == "off" && opt.Value != nil:
			m.Off = *opt.Value
			haveOff = true
		default:
			log.Printf("capability: unhandled %s option %q on instance %s", desc.Type, opt.Name, desc.Instance)
		}
	}
	m.ok = haveOn && haveOff
	return m
}

// Valid reports whether both on and off values were declared.
func (m PowerMapping) Valid() bool { return m.ok }

// IsOn maps a reported wire value back to the on/off notion.
func (m PowerMapping) IsOn(value int) bool { return m.ok && value == m.On }
