// Package client implements the typed transport to the Govee cloud API:
// device list, device state and device control, plus the offline fixture
// substitution path, daily call counting and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"govee-cloud-bridge/config"
	"govee-cloud-bridge/internal/capability"
	"govee-cloud-bridge/internal/store"
)

// headerAPIKey is the vendor's static per-account auth header.
const headerAPIKey = "Govee-API-Key"

// Client talks to the Govee cloud endpoints and reconciles control results
// into the state cache. The underlying HTTP transport is created lazily on
// first use, shared across calls, and released by Close.
type Client struct {
	cfg     *config.GoveeConfig
	store   store.Store
	counter *Counter

	once       sync.Once
	httpClient *http.Client
}

// New creates a client writing through to the given state cache.
func New(cfg *config.GoveeConfig, st store.Store) *Client {
	return &Client{cfg: cfg, store: st, counter: NewCounter()}
}

// Counter exposes the daily call counter for diagnostics.
func (c *Client) Counter() *Counter { return c.counter }

// FixtureActive reports whether the offline fixture file currently exists.
func (c *Client) FixtureActive() bool {
	f, err := c.fixture()
	return err == nil && f != nil
}

// fixture checks for the operator fixture before every network call. The
// file is re-read per call so dropping it in or removing it takes effect
// without a restart.
func (c *Client) fixture() (*Fixture, error) {
	return loadFixture(c.cfg.FixtureFile)
}

func (c *Client) httpc() *http.Client {
	c.once.Do(func() {
		c.httpClient = &http.Client{Timeout: c.cfg.Timeout}
	})
	return c.httpClient
}

// Close releases the shared transport. Safe to call when no request was
// ever made.
func (c *Client) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}

// do performs one counted network call and classifies the response status.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.cfg.APIKey)

	log.Printf("client: %s %s (API call %d today)", method, path, c.counter.Inc())

	resp, err := c.httpc().Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return raw, nil
}

// ListDevices fetches the account's device list, or the fixture's
// cloud_devices when the fixture is active.
func (c *Client) ListDevices(ctx context.Context) ([]capability.Device, error) {
	fixture, err := c.fixture()
	if err != nil {
		return nil, err
	}
	if fixture != nil {
		log.Printf("client: serving device list from fixture (%d devices)", len(fixture.Data.CloudDevices))
		return fixture.Data.CloudDevices, nil
	}

	raw, err := c.do(ctx, http.MethodGet, "user/devices", nil)
	if err != nil {
		return nil, err
	}

	var apiResp devicesResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device list: %w", err)
	}
	if apiResp.Code != http.StatusOK {
		return nil, fmt.Errorf("device list returned application code %d: %s", apiResp.Code, apiResp.Message)
	}
	return apiResp.Data, nil
}

// GetDeviceState fetches the full capability state of one device and stores
// it in the cache. Fixture mode serves cloud_states without any network
// traffic or call counting.
func (c *Client) GetDeviceState(ctx context.Context, device capability.Device) (capability.DeviceState, error) {
	fixture, err := c.fixture()
	if err != nil {
		return capability.DeviceState{}, err
	}
	if fixture != nil {
		state, ok := fixture.StateFor(device.ID)
		if !ok {
			return capability.DeviceState{}, fmt.Errorf("fixture has no state for device %s", device.ID)
		}
		c.store.Put(device.ID, state)
		return state, nil
	}

	req := stateRequest{
		RequestID: uuid.NewString(),
		Payload:   statePayload{SKU: device.SKU, Device: device.ID},
	}
	raw, err := c.do(ctx, http.MethodPost, "device/state", req)
	if err != nil {
		return capability.DeviceState{}, err
	}

	var apiResp stateResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return capability.DeviceState{}, fmt.Errorf("failed to unmarshal device state: %w", err)
	}

	c.store.Put(device.ID, apiResp.Payload)
	return apiResp.Payload, nil
}

// ControlDevice sends one control command. Success requires HTTP 200 and an
// echoed capability state that is not "failure"; a vendor-reported failure
// comes back as a *CommandError with the cache untouched. On success the
// sent value is folded into the cached device state in place - no re-fetch.
func (c *Client) ControlDevice(ctx context.Context, device capability.Device, cmd capability.Command) (*ControlResult, error) {
	fixture, err := c.fixture()
	if err != nil {
		return nil, err
	}
	if fixture != nil {
		result := &ControlResult{
			RequestID: "fixture-dummy",
			Msg:       "success",
			Code:      http.StatusOK,
			Capability: &EchoedCapability{
				Type:     cmd.Type,
				Instance: cmd.Instance,
				Value:    cmd.Value,
				State:    EchoState{Status: "success"},
			},
		}
		c.reconcile(device.ID, cmd)
		return result, nil
	}

	req := controlRequest{
		RequestID: uuid.NewString(),
		Payload:   controlPayload{SKU: device.SKU, Device: device.ID, Capability: cmd},
	}
	raw, err := c.do(ctx, http.MethodPost, "device/control", req)
	if err != nil {
		return nil, err
	}

	var result ControlResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal control response: %w", err)
	}

	if result.Capability != nil && result.Capability.State.Status == "failure" {
		st := result.Capability.State
		log.Printf("client: control of %s failed: %d - %s", device.ID, st.ErrorCode, st.ErrorMsg)
		return &result, &CommandError{Code: st.ErrorCode, Msg: st.ErrorMsg}
	}
	if result.Code != http.StatusOK {
		return &result, fmt.Errorf("control returned application code %d: %s", result.Code, result.Msg)
	}

	c.reconcile(device.ID, cmd)
	return &result, nil
}

// reconcile folds a successfully sent command into the cached device state
// by replacing the matching capability's value in place. The written value
// is not re-validated against the declared domain; the next successful poll
// corrects any drift.
func (c *Client) reconcile(deviceID string, cmd capability.Command) {
	state, ok := c.store.Get(deviceID)
	if !ok {
		return
	}
	// Copy the capability list so a concurrent reader of the old generation
	// never sees a half-applied update.
	caps := make([]capability.StateCapability, len(state.Capabilities))
	copy(caps, state.Capabilities)
	for i, cap := range caps {
		if cap.Type == cmd.Type && cap.Instance == cmd.Instance {
			caps[i].State = map[string]any{"value": cmd.Value}
			c.store.Put(deviceID, capability.DeviceState{Capabilities: caps})
			return
		}
	}
}
