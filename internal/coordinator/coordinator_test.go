package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govee-cloud-bridge/internal/capability"
	"govee-cloud-bridge/internal/client"
)

// fakeFetcher scripts one result per poll; exhausted scripts mean success.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	fixture bool
}

func (f *fakeFetcher) GetDeviceState(ctx context.Context, device capability.Device) (capability.DeviceState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return capability.DeviceState{}, err
	}
	return capability.DeviceState{}, nil
}

func (f *fakeFetcher) FixtureActive() bool { return f.fixture }

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testCoordinator(fetcher *fakeFetcher, interval time.Duration, onAuth func(capability.Device, error)) *Coordinator {
	device := capability.Device{SKU: "H7131", ID: "AA:BB"}
	return New(device, fetcher, NewInterval(interval), time.Second, onAuth)
}

func TestInterval(t *testing.T) {
	i := NewInterval(60 * time.Second)

	assert.Equal(t, 60*time.Second, i.Next(false))

	// Fixture mode slows the default right down.
	assert.Equal(t, time.Hour, i.Next(true))

	// A runtime override wins over both.
	i.Set(5 * time.Second)
	assert.Equal(t, 5*time.Second, i.Next(false))
	assert.Equal(t, 5*time.Second, i.Next(true))

	// Clearing the override restores the default.
	i.Set(0)
	assert.Equal(t, 60*time.Second, i.Next(false))
}

func TestRun_StopsOnAuthError(t *testing.T) {
	fetcher := &fakeFetcher{errs: []error{&client.AuthError{StatusCode: 401}}}

	var mu sync.Mutex
	var escalated []error
	c := testCoordinator(fetcher, time.Millisecond, func(d capability.Device, err error) {
		mu.Lock()
		escalated = append(escalated, err)
		mu.Unlock()
	})

	// The first poll fails fatally, so Run returns without ever arming the
	// timer.
	c.Run(context.Background())

	assert.Equal(t, 1, fetcher.callCount())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, escalated, 1)
	assert.True(t, client.IsAuthError(escalated[0]))
}

func TestRun_RetriesTransientErrors(t *testing.T) {
	fetcher := &fakeFetcher{errs: []error{errors.New("upstream hiccup"), errors.New("another one")}}
	c := testCoordinator(fetcher, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 3
	}, time.Second, time.Millisecond, "transient failures must not stop the loop")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("coordinator did not stop on context cancellation")
	}
}

func TestRun_AuthErrorAfterTransient(t *testing.T) {
	fetcher := &fakeFetcher{errs: []error{
		errors.New("upstream hiccup"),
		&client.AuthError{StatusCode: 429},
	}}

	var mu sync.Mutex
	escalations := 0
	c := testCoordinator(fetcher, time.Millisecond, func(d capability.Device, err error) {
		mu.Lock()
		escalations++
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("coordinator did not stop on auth failure")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, escalations)
}

func TestRun_StopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := testCoordinator(fetcher, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return fetcher.callCount() == 1
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("coordinator did not stop on context cancellation")
	}
}
