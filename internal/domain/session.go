// Package domain contains entities without logic, just meta-data
// and validation.
package domain

import "fmt"

// SessionID is the opaque, gateway-assigned identifier of one
// plugin attachment.
type SessionID string

// SessionKind tells which leg a session belongs to.
type SessionKind int

const (
	KindSIP SessionKind = iota
	KindRoomPublisher
	KindRoomSubscriber
)

func (k SessionKind) String() string {
	switch k {
	case KindSIP:
		return "sip"
	case KindRoomPublisher:
		return "room-publisher"
	case KindRoomSubscriber:
		return "room-subscriber"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// SessionState is the lifecycle state of a session. The SIP leg runs
// Idle -> Registering -> Registered -> Calling -> EarlyMedia -> Active
// -> Idle; the room leg runs Idle -> Joining -> Published -> Active
// -> Idle. Both legs share the enum, the reducers keep them apart.
type SessionState int

const (
	StateIdle SessionState = iota
	StateRegistering
	StateRegistered
	StateCalling
	StateEarlyMedia
	StateActive
	StateTerminating
	StateJoining
	StatePublished
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRegistering:
		return "Registering"
	case StateRegistered:
		return "Registered"
	case StateCalling:
		return "Calling"
	case StateEarlyMedia:
		return "EarlyMedia"
	case StateActive:
		return "Active"
	case StateTerminating:
		return "Terminating"
	case StateJoining:
		return "Joining"
	case StatePublished:
		return "Published"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Session represents one signaling attachment. CallID is set only
// while a call is up: between accepted and hangup/cleanup.
type Session struct {
	ID     SessionID
	Kind   SessionKind
	State  SessionState
	CallID string
}

// NewSession avoids raw literals in adapters and keeps construction obvious.
func NewSession(id SessionID, kind SessionKind) Session {
	return Session{ID: id, Kind: kind, State: StateIdle}
}
