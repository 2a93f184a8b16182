package core

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Frame is a raw outbound signaling payload.
type Frame []byte

// HandleID identifies one plugin attachment on the gateway.
type HandleID uint64

// HandleEventKind separates plugin events from transport-level
// notifications on the same handle.
type HandleEventKind int

const (
	// HandleEventPlugin carries plugin data (and possibly a jsep).
	HandleEventPlugin HandleEventKind = iota
	// HandleEventHangup means the gateway closed the PeerConnection.
	HandleEventHangup
	// HandleEventCleanup means the handle's media resources are gone.
	HandleEventCleanup
	// HandleEventDetached means the handle itself is gone.
	HandleEventDetached
)

// HandleEvent is one inbound notification for a handle, as delivered
// by the transport. Data is the plugin payload, untouched.
type HandleEvent struct {
	Kind   HandleEventKind
	Handle HandleID
	Data   json.RawMessage
	Desc   *webrtc.SessionDescription
	Reason string
}

// SignalTransport is the signaling session against the gateway.
// Send is fire-and-forget; correlation happens via handle ids and the
// call_id embedded in plugin payloads. Owned by the adapter; the
// adapter must Close() it.
type SignalTransport interface {
	// Attach binds a new plugin handle and routes its events to onEvent.
	Attach(ctx context.Context, plugin, opaqueID string, onEvent func(HandleEvent)) (HandleID, error)
	// Send delivers a plugin message, optionally with a description.
	Send(handle HandleID, body any, desc *webrtc.SessionDescription) error
	// Detach releases a plugin handle.
	Detach(ctx context.Context, handle HandleID) error
}
