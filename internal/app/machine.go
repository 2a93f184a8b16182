package app

import (
	"fmt"

	"github.com/dialstack/sipvr/internal/core"
	"github.com/dialstack/sipvr/internal/domain"
)

// ReduceSIP applies one inbound SIP-leg event to a session and
// returns the next session value plus the actions the controller must
// dispatch, in order. The reducer never fails: events that make no
// sense in the current state, and event names it has never heard of,
// reduce to a Notify and nothing else.
func ReduceSIP(sess domain.Session, ev core.CallEvent) (domain.Session, []core.Action) {
	// An error field on the frame is reported but does not by itself
	// terminate the session.
	if ev.Err != "" {
		return sess, []core.Action{
			core.ReportError{Err: &core.GatewayError{Code: ev.ErrCode, Reason: ev.Err}},
		}
	}

	switch ev.Name {
	case core.SIPEventRegistering:
		switch sess.State {
		case domain.StateIdle, domain.StateRegistering:
			sess.State = domain.StateRegistering
			return sess, []core.Action{core.Notify{Event: ev.Name}}
		}

	case core.SIPEventRegistrationFailed:
		sess.State = domain.StateIdle
		return sess, []core.Action{
			core.ReportError{Err: &core.RegistrationFailedError{Code: ev.Code, Reason: ev.Reason}},
		}

	case core.SIPEventRegistered:
		if sess.State == domain.StateRegistering {
			sess.State = domain.StateRegistered
			return sess, []core.Action{
				core.Notify{Event: ev.Name, Detail: ev.Username},
				core.CreateOffer{Constraints: core.AudioCall(), Purpose: core.PurposeCall},
			}
		}

	case core.SIPEventCalling:
		if sess.State == domain.StateRegistered || sess.State == domain.StateCalling {
			sess.State = domain.StateCalling
			return sess, []core.Action{core.Notify{Event: ev.Name}}
		}

	case core.SIPEventIncomingCall:
		// Outbound-only client: ignored on purpose.
		return sess, []core.Action{core.Notify{Event: ev.Name, Detail: "ignored, outbound only"}}

	case core.SIPEventAccepting:
		// Response to an offerless INVITE, wait for accepted.
		return sess, []core.Action{core.Notify{Event: ev.Name}}

	case core.SIPEventProgress:
		if sess.State == domain.StateCalling || sess.State == domain.StateEarlyMedia {
			sess.State = domain.StateEarlyMedia
			acts := []core.Action{core.Notify{Event: ev.Name, Detail: "early media"}}
			if ev.Desc != nil {
				acts = append(acts, core.ApplyRemote{Desc: ev.Desc})
			}
			return sess, acts
		}

	case core.SIPEventAccepted:
		if sess.State == domain.StateCalling || sess.State == domain.StateEarlyMedia {
			sess.State = domain.StateActive
			sess.CallID = ev.CallID
			var acts []core.Action
			if ev.Desc != nil {
				acts = append(acts, core.ApplyRemote{Desc: ev.Desc})
			}
			acts = append(acts, core.RenderRemoteMedia{Slot: 0, Display: ev.Username, Desc: ev.Desc})
			return sess, acts
		}

	case core.SIPEventUpdatingCall:
		if sess.State == domain.StateActive && ev.Desc != nil {
			// Re-INVITE: auto-accept instead of prompting, with flags
			// read off the offered media lines.
			return sess, []core.Action{core.CreateAnswer{
				Remote:  ev.Desc,
				Flags:   FlagsFromDescription(ev.Desc),
				Purpose: core.PurposeUpdate,
			}}
		}

	case core.SIPEventMessage, core.SIPEventInfo, core.SIPEventNotify:
		// Informational, no state effect.
		return sess, []core.Action{core.Notify{Event: ev.Name, Detail: ev.Reason}}

	case core.SIPEventTransfer:
		// No transfer support in this client.
		return sess, []core.Action{core.Notify{Event: ev.Name, Detail: "ignored, no transfer support"}}

	case core.SIPEventHangup:
		if sess.State == domain.StateIdle {
			return sess, []core.Action{core.Notify{Event: ev.Name}}
		}
		// Terminating is transient: the Teardown action completes the
		// move to Idle once the media side is released.
		sess.State = domain.StateTerminating
		sess.CallID = ""
		return sess, []core.Action{core.Teardown{
			Reason: fmt.Sprintf("%d %s", ev.Code, ev.Reason),
		}}
	}

	return sess, []core.Action{core.Notify{
		Event:  ev.Name,
		Detail: fmt.Sprintf("no-op in state %s", sess.State),
	}}
}
