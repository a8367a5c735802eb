// Package coordinator runs one timer-driven state refresh loop per device.
// Each loop polls sequentially (no overlapping polls for the same device),
// re-derives its interval after every attempt, and escalates
// authentication/quota failures instead of retrying them.
package coordinator

import (
	"context"
	"log"
	"sync"
	"time"

	"govee-cloud-bridge/internal/capability"
	"govee-cloud-bridge/internal/client"
)

// fixtureFallbackInterval is used when the fixture path is active and no
// explicit interval was set, so debug runs do not hammer a non-existent
// network.
const fixtureFallbackInterval = time.Hour

// StateFetcher is the transport slice the coordinator needs.
type StateFetcher interface {
	GetDeviceState(ctx context.Context, device capability.Device) (capability.DeviceState, error)
	FixtureActive() bool
}

// Interval is the runtime-adjustable poll interval shared by all
// coordinators of one integration instance. A runtime override takes
// precedence over the configured default; changes apply on each
// coordinator's next tick, never by pre-empting an in-flight poll.
type Interval struct {
	def time.Duration

	mu       sync.RWMutex
	override time.Duration // 0 means no override
}

// NewInterval creates an interval cell with the configured default.
func NewInterval(def time.Duration) *Interval {
	return &Interval{def: def}
}

// Set installs a runtime override. A non-positive value clears it.
func (i *Interval) Set(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if d < 0 {
		d = 0
	}
	i.override = d
}

// Next derives the interval for the upcoming tick.
func (i *Interval) Next(fixtureActive bool) time.Duration {
	i.mu.RLock()
	d := i.override
	i.mu.RUnlock()

	switch {
	case d > 0:
		return d
	case fixtureActive:
		return fixtureFallbackInterval
	default:
		return i.def
	}
}

// Coordinator refreshes one device's cached state on a timer.
type Coordinator struct {
	device   capability.Device
	fetcher  StateFetcher
	interval *Interval
	timeout  time.Duration

	// onAuthFailure surfaces a fatal reauthentication requirement to the
	// host. Called at most once; the loop stops afterwards.
	onAuthFailure func(device capability.Device, err error)
}

// New creates a coordinator for one device.
func New(device capability.Device, fetcher StateFetcher, interval *Interval, timeout time.Duration, onAuthFailure func(capability.Device, error)) *Coordinator {
	return &Coordinator{
		device:        device,
		fetcher:       fetcher,
		interval:      interval,
		timeout:       timeout,
		onAuthFailure: onAuthFailure,
	}
}

// Run polls until the context is cancelled or an authentication failure
// terminates the loop. Intended to run in its own goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	if !c.pollOnce(ctx) {
		return
	}

	timer := time.NewTimer(c.interval.Next(c.fetcher.FixtureActive()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("coordinator %s: shutting down", c.device.ID)
			return
		case <-timer.C:
			if !c.pollOnce(ctx) {
				return
			}
			timer.Reset(c.interval.Next(c.fetcher.FixtureActive()))
		}
	}
}

// pollOnce performs a single refresh. It returns false when the loop must
// stop: either the process is tearing down or the transport reported a
// fatal authentication/quota failure.
func (c *Coordinator) pollOnce(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.fetcher.GetDeviceState(callCtx, c.device)
	switch {
	case err == nil:
		return true
	case ctx.Err() != nil:
		return false
	case client.IsAuthError(err):
		log.Printf("coordinator %s: authentication failed, stopping poll loop: %v", c.device.ID, err)
		if c.onAuthFailure != nil {
			c.onAuthFailure(c.device, err)
		}
		return false
	default:
		// Transient: keep the last cached state and retry on the next tick.
		log.Printf("coordinator %s: poll failed, will retry: %v", c.device.ID, err)
		return true
	}
}
