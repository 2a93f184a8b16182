package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAccount rejects an empty or malformed registration account.
	ErrInvalidAccount = errors.New("invalid account")
	// ErrInvalidState rejects an operation not allowed in the current state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrRosterFull is returned when every feed slot is taken.
	ErrRosterFull = errors.New("roster full")
	// ErrDuplicateFeed rejects a publisher id already on the roster.
	ErrDuplicateFeed = errors.New("duplicate feed")
)

// RegistrationFailedError is terminal for one registration attempt;
// the session returns to Idle.
type RegistrationFailedError struct {
	Code   int
	Reason string
}

func (e *RegistrationFailedError) Error() string {
	return fmt.Sprintf("registration failed: %d %s", e.Code, e.Reason)
}

// NegotiationError reports a failed offer/answer exchange. It does
// not by itself terminate the session.
type NegotiationError struct {
	Op  string
	Err error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("negotiation %s: %v", e.Op, e.Err)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// TransportError reports a signaling transport failure. No automatic
// retry happens at this layer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// GatewayError is an error field carried inside a gateway frame.
type GatewayError struct {
	Code   int
	Reason string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Reason)
}
