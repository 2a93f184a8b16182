// Package gateway is the signaling transport: a websocket client for
// a Janus-style gateway. It owns the session, the keepalive, the
// transaction correlation and the per-handle event routing; plugin
// payloads pass through untouched.
package gateway

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Envelope is one frame of the gateway wire vocabulary, both
// directions.
type Envelope struct {
	Janus       string                     `json:"janus"`
	Transaction string                     `json:"transaction,omitempty"`
	SessionID   uint64                     `json:"session_id,omitempty"`
	HandleID    uint64                     `json:"handle_id,omitempty"`
	Sender      uint64                     `json:"sender,omitempty"`
	Plugin      string                     `json:"plugin,omitempty"`
	OpaqueID    string                     `json:"opaque_id,omitempty"`
	Body        json.RawMessage            `json:"body,omitempty"`
	Jsep        *webrtc.SessionDescription `json:"jsep,omitempty"`
	Data        *EnvelopeData              `json:"data,omitempty"`
	PluginData  *PluginData                `json:"plugindata,omitempty"`
	Error       *WireError                 `json:"error,omitempty"`
	Reason      string                     `json:"reason,omitempty"`
}

// EnvelopeData carries the id a create/attach reply assigns.
type EnvelopeData struct {
	ID uint64 `json:"id"`
}

// PluginData wraps an asynchronous plugin event payload.
type PluginData struct {
	Plugin string          `json:"plugin"`
	Data   json.RawMessage `json:"data"`
}

// WireError is the error object of an error reply.
type WireError struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

// Frame verbs the client sends.
const (
	verbCreate    = "create"
	verbAttach    = "attach"
	verbMessage   = "message"
	verbDetach    = "detach"
	verbDestroy   = "destroy"
	verbKeepalive = "keepalive"
)

// Frame verbs the gateway sends.
const (
	verbSuccess  = "success"
	verbError    = "error"
	verbAck      = "ack"
	verbEvent    = "event"
	verbHangup   = "hangup"
	verbDetached = "detached"
	verbWebRTCUp = "webrtcup"
	verbMedia    = "media"
	verbTimeout  = "timeout"
)
