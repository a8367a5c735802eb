package client

import "govee-cloud-bridge/internal/capability"

// stateRequest is the body of a POST device/state call.
type stateRequest struct {
	RequestID string       `json:"requestId"`
	Payload   statePayload `json:"payload"`
}

type statePayload struct {
	SKU    string `json:"sku"`
	Device string `json:"device"`
}

// controlRequest is the body of a POST device/control call.
type controlRequest struct {
	RequestID string         `json:"requestId"`
	Payload   controlPayload `json:"payload"`
}

type controlPayload struct {
	SKU        string             `json:"sku"`
	Device     string             `json:"device"`
	Capability capability.Command `json:"capability"`
}

// devicesResponse models the device list endpoint's reply.
type devicesResponse struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    []capability.Device `json:"data"`
}

// stateResponse models the device state endpoint's reply.
type stateResponse struct {
	RequestID string                 `json:"requestId"`
	Code      int                    `json:"code"`
	Msg       string                 `json:"msg"`
	Payload   capability.DeviceState `json:"payload"`
}

// EchoState is the per-command status block echoed by the control endpoint.
type EchoState struct {
	Status    string `json:"status,omitempty"`
	ErrorCode int    `json:"errorCode,omitempty"`
	ErrorMsg  string `json:"errorMsg,omitempty"`
}

// EchoedCapability is the control endpoint's echo of the sent capability.
type EchoedCapability struct {
	Type     capability.Type `json:"type"`
	Instance string          `json:"instance"`
	Value    any             `json:"value,omitempty"`
	State    EchoState       `json:"state"`
}

// ControlResult is the parsed reply of a device control call.
type ControlResult struct {
	RequestID  string            `json:"requestId"`
	Msg        string            `json:"msg"`
	Code       int               `json:"code"`
	Capability *EchoedCapability `json:"capability,omitempty"`
}
