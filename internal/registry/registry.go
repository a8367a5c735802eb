// Package registry owns the per-integration-instance view of the vendor
// account: the device list, one mode table and power mapping per device,
// the shared state cache and the per-device coordinator handles. It is the
// single object handed to the HTTP layer, replacing ad hoc process-global
// maps with explicit create/teardown lifecycle.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"govee-cloud-bridge/config"
	"govee-cloud-bridge/internal/capability"
	"govee-cloud-bridge/internal/client"
	"govee-cloud-bridge/internal/coordinator"
	"govee-cloud-bridge/internal/modes"
	"govee-cloud-bridge/internal/store"
)

// ErrUnknownDevice is returned for operations on device ids that were never
// registered.
var ErrUnknownDevice = errors.New("unknown device")

// ValidationError rejects a caller mistake (bad preset name, out-of-range
// value) before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// IsValidationError reports whether err is a caller/validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DeviceController is the transport surface the registry drives. Satisfied
// by *client.Client.
type DeviceController interface {
	ListDevices(ctx context.Context) ([]capability.Device, error)
	GetDeviceState(ctx context.Context, device capability.Device) (capability.DeviceState, error)
	ControlDevice(ctx context.Context, device capability.Device, cmd capability.Command) (*client.ControlResult, error)
	FixtureActive() bool
	Close()
}

// AuthNotifier receives the id of a device whose polling loop died on an
// authentication/quota failure.
type AuthNotifier interface {
	Dispatch(deviceID string)
}

// Registry is created once per integration instance.
type Registry struct {
	cfg        *config.GoveeConfig
	controller DeviceController
	store      store.Store
	interval   *coordinator.Interval
	notifier   AuthNotifier

	mu         sync.RWMutex
	order      []string
	devices    map[string]capability.Device
	modeTables map[string]*modes.Table
	power      map[string]capability.PowerMapping
	authFailed map[string]error

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty registry. The notifier may be nil when reauth alerts
// are not configured.
func New(cfg *config.GoveeConfig, controller DeviceController, st store.Store, notifier AuthNotifier) *Registry {
	runCtx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cfg:        cfg,
		controller: controller,
		store:      st,
		interval:   coordinator.NewInterval(time.Duration(cfg.PollIntervalSeconds) * time.Second),
		notifier:   notifier,
		devices:    make(map[string]capability.Device),
		modeTables: make(map[string]*modes.Table),
		power:      make(map[string]capability.PowerMapping),
		authFailed: make(map[string]error),
		runCtx:     runCtx,
		cancel:     cancel,
	}
}

// Setup fetches the account's device list, registers every device and
// starts its polling coordinator. Schema problems on individual devices
// are logged and skipped; only a failed device list is fatal.
func (r *Registry) Setup(ctx context.Context) error {
	devices, err := r.controller.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch device list: %w", err)
	}
	log.Printf("registry: registering %d devices", len(devices))

	for _, device := range devices {
		r.registerDevice(ctx, device)
	}
	return nil
}

// registerDevice builds the device's derived tables, primes its state and
// starts its coordinator.
func (r *Registry) registerDevice(ctx context.Context, device capability.Device) {
	r.mu.Lock()
	if _, exists := r.devices[device.ID]; !exists {
		r.order = append(r.order, device.ID)
	}
	r.devices[device.ID] = device

	if desc, ok := device.WorkModeDescriptor(); ok {
		table, err := modes.Build(desc)
		if err != nil {
			// Construction error, not runtime: the descriptor itself has the
			// wrong shape. The device still works without presets.
			log.Printf("registry: mode table for %s: %v", device.ID, err)
		} else {
			r.modeTables[device.ID] = table
			log.Printf("registry: device %s declares %d presets", device.ID, table.Len())
		}
	}
	if desc, ok := device.Capability(capability.TypeOnOff, capability.InstancePowerSwitch); ok {
		r.power[device.ID] = capability.NewPowerMapping(desc)
	}
	r.mu.Unlock()

	// Prime the cache so the host surface has data before the first tick.
	if _, err := r.controller.GetDeviceState(ctx, device); err != nil {
		if client.IsAuthError(err) {
			r.handleAuthFailure(device, err)
			return
		}
		log.Printf("registry: initial state fetch for %s failed: %v", device.ID, err)
	}

	coord := coordinator.New(device, r.controller, r.interval, r.cfg.Timeout, r.handleAuthFailure)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		coord.Run(r.runCtx)
	}()
}

// handleAuthFailure records the fatal failure and alerts the operator. Each
// device escalates at most once; its loop has already stopped.
func (r *Registry) handleAuthFailure(device capability.Device, err error) {
	r.mu.Lock()
	r.authFailed[device.ID] = err
	r.mu.Unlock()

	log.Printf("registry: device %s requires reauthentication: %v", device.ID, err)
	if r.notifier != nil {
		r.notifier.Dispatch(device.ID)
	}
}

// Teardown stops all coordinators and releases the transport.
func (r *Registry) Teardown() {
	r.cancel()
	r.wg.Wait()
	r.controller.Close()
}

// Devices returns the registered devices in registration order.
func (r *Registry) Devices() []capability.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]capability.Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out
}

// Device returns one registered device.
func (r *Registry) Device(id string) (capability.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	return d, ok
}

// ModeTable returns the preset table for a device, when it declares one.
func (r *Registry) ModeTable(id string) (*modes.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.modeTables[id]
	return t, ok
}

// PowerMapping returns the on/off wire mapping for a device.
func (r *Registry) PowerMapping(id string) (capability.PowerMapping, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.power[id]
	return m, ok
}

// CachedState returns the last known full state of a device.
func (r *Registry) CachedState(id string) (capability.DeviceState, bool) {
	return r.store.Get(id)
}

// CachedValue returns the last known value of one capability instance.
func (r *Registry) CachedValue(id string, typ capability.Type, instance string) (any, bool) {
	return r.store.CapabilityValue(id, typ, instance)
}

// AuthFailed returns the ids of devices whose polling died on an
// authentication/quota failure.
func (r *Registry) AuthFailed() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.authFailed))
	for _, id := range r.order {
		if _, ok := r.authFailed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// SetPollInterval installs the runtime poll interval for all coordinators.
// It takes effect on each device's next tick.
func (r *Registry) SetPollInterval(seconds int) {
	log.Printf("registry: poll interval updated to %d seconds - change active after next poll", seconds)
	r.interval.Set(time.Duration(seconds) * time.Second)
}

// Control validates and sends a raw capability command for a device.
func (r *Registry) Control(ctx context.Context, id string, cmd capability.Command) (*client.ControlResult, error) {
	device, ok := r.Device(id)
	if !ok {
		return nil, ErrUnknownDevice
	}
	if err := validateCommand(device, cmd); err != nil {
		return nil, err
	}
	return r.controller.ControlDevice(ctx, device, cmd)
}

// ControlPreset resolves a preset name through the device's mode table and
// sends the resulting work-mode command. Unknown presets are rejected
// before any network call.
func (r *Registry) ControlPreset(ctx context.Context, id string, preset string) (*client.ControlResult, error) {
	device, ok := r.Device(id)
	if !ok {
		return nil, ErrUnknownDevice
	}
	table, ok := r.ModeTable(id)
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("device %s declares no work modes", id)}
	}
	cmd, err := table.Command(preset)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	return r.controller.ControlDevice(ctx, device, cmd)
}

// validateCommand rejects values outside the device's declared domain.
func validateCommand(device capability.Device, cmd capability.Command) error {
	desc, ok := device.Capability(cmd.Type, cmd.Instance)
	if !ok {
		return &ValidationError{Reason: fmt.Sprintf("device %s does not declare %s/%s", device.ID, cmd.Type, cmd.Instance)}
	}

	num, isNum := numericValue(cmd.Value)
	if !isNum {
		// Structured values (work mode pairs, color structs) are passed
		// through; the vendor echoes a failure status for bad ones.
		return nil
	}

	if rng := desc.Parameters.Range; rng != nil {
		if num < float64(rng.Min) || num > float64(rng.Max) {
			return &ValidationError{
				Reason: fmt.Sprintf("value %v outside declared range [%d, %d] for %s", cmd.Value, rng.Min, rng.Max, cmd.Instance),
			}
		}
		return nil
	}

	if opts := desc.Parameters.Options; len(opts) > 0 {
		for _, opt := range opts {
			if opt.Value != nil && float64(*opt.Value) == num {
				return nil
			}
		}
		return &ValidationError{
			Reason: fmt.Sprintf("value %v is not a declared option for %s", cmd.Value, cmd.Instance),
		}
	}
	return nil
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
