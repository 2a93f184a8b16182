package core

import (
	"github.com/pion/webrtc/v4"

	"github.com/dialstack/sipvr/internal/domain"
)

// SIP plugin event names, as the gateway spells them. The vocabulary
// is the gateway's, we treat it as an enumerated black box.
const (
	SIPEventRegistering        = "registering"
	SIPEventRegistrationFailed = "registration_failed"
	SIPEventRegistered         = "registered"
	SIPEventCalling            = "calling"
	SIPEventIncomingCall       = "incomingcall"
	SIPEventAccepting          = "accepting"
	SIPEventProgress           = "progress"
	SIPEventAccepted           = "accepted"
	SIPEventUpdatingCall       = "updatingcall"
	SIPEventMessage            = "message"
	SIPEventInfo               = "info"
	SIPEventNotify             = "notify"
	SIPEventTransfer           = "transfer"
	SIPEventHangup             = "hangup"
)

// Video room event names.
const (
	RoomEventJoined    = "joined"
	RoomEventEvent     = "event"
	RoomEventAttached  = "attached"
	RoomEventDestroyed = "destroyed"
	RoomEventTalking   = "talking"
)

// CallEvent is one inbound SIP-leg notification, immutable and
// consumed exactly once by the reducer.
type CallEvent struct {
	Name     string
	Code     int
	Reason   string
	Username string
	CallID   string
	// Err is set when the frame carried an error field. It does not
	// by itself terminate the session.
	Err     string
	ErrCode int
	Desc    *webrtc.SessionDescription
}

// RoomEvent is one inbound video-room notification, for either the
// publisher handle or a subscriber handle.
type RoomEvent struct {
	Name      string
	Room      uint64
	ID        uint64
	PrivateID uint64
	Display   string

	Publishers []domain.Publisher
	// Leaving and Unpublished carry the feed id that went away.
	Leaving     uint64
	Unpublished uint64
	// SelfUnpublished is the "unpublished": "ok" case: our own feed.
	SelfUnpublished bool

	Err     string
	ErrCode int
	Desc    *webrtc.SessionDescription
}
