// Package modes flattens a device's work-mode capability descriptor into a
// queryable preset table. The vendor declares work modes as two parallel
// field lists: "workMode" names the selectable modes, and "modeValue"
// declares their secondary parameters, sometimes as nested parent/child
// option groups. The table maps human-readable preset names to resolved
// {workMode, modeValue} pairs and back.
package modes

import (
	"fmt"
	"log"

	"govee-cloud-bridge/internal/capability"
)

// fieldWorkMode and fieldModeValue are the vendor's field names inside a
// work_mode capability's parameter struct.
const (
	fieldWorkMode  = "workMode"
	fieldModeValue = "modeValue"

	// presetCustom is a vendor sentinel for user-defined modes and is never
	// exposed as a preset.
	presetCustom = "Custom"
)

// Entry is one resolved preset: the wire work mode plus its optional
// secondary value.
type Entry struct {
	Preset    string
	WorkMode  int
	ModeValue *int
}

// inverseKey identifies an entry by its resolved values for reverse lookup.
type inverseKey struct {
	workMode     int
	modeValue    int
	hasModeValue bool
}

// Table is the immutable preset table for one device. Built once at device
// registration; rebuilt only on a full schema reload.
type Table struct {
	order   []string
	entries map[string]Entry
	inverse map[inverseKey]string
}

// Build converts a work-mode descriptor into a Table. Only a descriptor of
// the wrong capability type is a construction error; malformed options are
// logged and skipped so one bad entry never blocks the rest of the device.
func Build(desc capability.Descriptor) (*Table, error) {
	if desc.Type != capability.TypeWorkMode {
		return nil, fmt.Errorf("cannot build mode table from %s capability", desc.Type)
	}

	t := &Table{
		entries: make(map[string]Entry),
		inverse: make(map[inverseKey]string),
	}

	// Pass 1: collect the declared work modes. This intermediate name->value
	// table only exists to resolve references from the modeValue field.
	workModes := make(map[string]int)
	for _, f := range desc.Parameters.Fields {
		if f.FieldName != fieldWorkMode {
			continue
		}
		for _, opt := range f.Options {
			if opt.Name == "" || opt.Value == nil {
				log.Printf("modes: skipping workMode option without name or value: %+v", opt)
				continue
			}
			workModes[opt.Name] = *opt.Value
		}
	}

	// Pass 2: flatten the modeValue options against the pass-1 table.
	for _, f := range desc.Parameters.Fields {
		if f.FieldName != fieldModeValue {
			continue
		}
		for _, opt := range f.Options {
			if len(opt.Options) > 0 {
				t.addParent(opt, workModes)
			} else if opt.Name != presetCustom {
				t.addStandalone(opt, workModes)
			}
		}
	}

	return t, nil
}

// addParent expands a parent option (e.g. a gear selector): every child
// becomes one preset carrying the parent's work mode and its own value.
func (t *Table) addParent(opt capability.Option, workModes map[string]int) {
	workMode, ok := workModes[opt.Name]
	if !ok {
		// Schema inconsistency: the modeValue entry references a mode the
		// device never declared. Skip it, keep the rest.
		log.Printf("modes: parent mode %q not in work mode mapping, skipping", opt.Name)
		return
	}
	for _, child := range opt.Options {
		if child.Name == "" || child.Value == nil {
			log.Printf("modes: skipping child of %q without name or value: %+v", opt.Name, child)
			continue
		}
		v := *child.Value
		t.add(Entry{Preset: child.Name, WorkMode: workMode, ModeValue: &v})
	}
}

// addStandalone turns a leaf option into a preset named after itself.
func (t *Table) addStandalone(opt capability.Option, workModes map[string]int) {
	workMode, ok := workModes[opt.Name]
	if !ok {
		log.Printf("modes: mode %q not in work mode mapping, skipping", opt.Name)
		return
	}
	v := extractValue(opt)
	t.add(Entry{Preset: opt.Name, WorkMode: workMode, ModeValue: &v})
}

// extractValue resolves a leaf's mode value: explicit value, then declared
// default, then the minimum of a declared range. Falling through to 0 keeps
// the preset usable when the vendor schema omits a value entirely.
func extractValue(opt capability.Option) int {
	switch {
	case opt.Value != nil:
		return *opt.Value
	case opt.DefaultValue != nil:
		return *opt.DefaultValue
	case opt.Range != nil:
		return opt.Range.Min
	default:
		log.Printf("modes: no value found for mode %q, using 0", opt.Name)
		return 0
	}
}

func (t *Table) add(e Entry) {
	if _, exists := t.entries[e.Preset]; !exists {
		t.order = append(t.order, e.Preset)
	}
	t.entries[e.Preset] = e
	t.inverse[keyOf(e.WorkMode, e.ModeValue)] = e.Preset
}

func keyOf(workMode int, modeValue *int) inverseKey {
	k := inverseKey{workMode: workMode}
	if modeValue != nil {
		k.modeValue = *modeValue
		k.hasModeValue = true
	}
	return k
}

// Presets returns the preset names in declaration order.
func (t *Table) Presets() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Resolve looks up the entry for a preset name.
func (t *Table) Resolve(preset string) (Entry, bool) {
	e, ok := t.entries[preset]
	return e, ok
}

// PresetFor is the inverse lookup: the preset name for a reported
// {workMode, modeValue} pair.
func (t *Table) PresetFor(v capability.WorkModeValue) (string, bool) {
	if name, ok := t.inverse[keyOf(v.WorkMode, v.ModeValue)]; ok {
		return name, true
	}
	// Some devices echo a modeValue for presets registered without one.
	name, ok := t.inverse[keyOf(v.WorkMode, nil)]
	return name, ok
}

// Command builds the wire control command for a preset.
func (t *Table) Command(preset string) (capability.Command, error) {
	e, ok := t.entries[preset]
	if !ok {
		return capability.Command{}, fmt.Errorf("unknown preset %q", preset)
	}
	return capability.WorkModeCommand(capability.WorkModeValue{WorkMode: e.WorkMode, ModeValue: e.ModeValue}), nil
}

// Len returns the number of presets.
func (t *Table) Len() int { return len(t.entries) }
