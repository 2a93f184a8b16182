package core

import (
	"github.com/pion/webrtc/v4"

	"github.com/dialstack/sipvr/internal/domain"
)

// NegotiationPurpose tells the controller which request frame must
// follow a successful offer/answer negotiation.
type NegotiationPurpose int

const (
	// PurposeCall: offer, then {"request":"call"} towards the SIP plugin.
	PurposeCall NegotiationPurpose = iota
	// PurposePublish: offer, then {"request":"configure"} as publisher.
	PurposePublish
	// PurposeUpdate: answer, then {"request":"update"} on a re-INVITE.
	PurposeUpdate
	// PurposeSubscribe: answer, then {"request":"start"} as subscriber.
	PurposeSubscribe
)

// Action is one side effect requested by a reducer. The reducers only
// produce actions, the controller dispatches them in order.
type Action interface{ isAction() }

// SendFrame asks the controller to emit a fully-formed plugin body.
type SendFrame struct {
	Body map[string]any
	Desc *webrtc.SessionDescription
}

// CreateOffer asks for a local offer and the follow-up frame named by
// Purpose.
type CreateOffer struct {
	Constraints MediaConstraints
	Purpose     NegotiationPurpose
}

// CreateAnswer asks for an answer against Remote and the follow-up
// frame named by Purpose. Flags record which media lines Remote
// carried.
type CreateAnswer struct {
	Remote  *webrtc.SessionDescription
	Flags   MediaFlags
	Purpose NegotiationPurpose
}

// ApplyRemote forwards a remote description to the media layer.
type ApplyRemote struct {
	Desc *webrtc.SessionDescription
}

// RenderLocalMedia tells the presentation adapter local media is live.
type RenderLocalMedia struct{}

// RenderRemoteMedia tells the presentation adapter to render a remote
// feed. Slot 0 is the SIP leg; room feeds land on 1..cap.
type RenderRemoteMedia struct {
	Slot    int
	Display string
	Desc    *webrtc.SessionDescription
}

// ClearRemoteMedia removes a previously rendered feed.
type ClearRemoteMedia struct {
	Slot int
}

// AddSubscriber spawns one subscriber session for a new publisher.
type AddSubscriber struct {
	Publisher domain.Publisher
}

// RemoveSubscriber tears down the subscriber session for one feed,
// leaving siblings untouched.
type RemoveSubscriber struct {
	Feed uint64
}

// Teardown ends the session the event arrived on.
type Teardown struct {
	Reason string
}

// TeardownSelf ends only the client's own published feed. Subscriber
// sessions and the room attachment stay up.
type TeardownSelf struct {
	Reason string
}

// ReportError surfaces an error to the presentation adapter. Errors
// are never swallowed.
type ReportError struct {
	Err error
}

// Notify is a presentation-only signal with no state effect: ringing,
// early media, informational SIP messages, ignored or unknown events.
type Notify struct {
	Event  string
	Detail string
}

func (SendFrame) isAction()         {}
func (CreateOffer) isAction()       {}
func (CreateAnswer) isAction()      {}
func (ApplyRemote) isAction()       {}
func (RenderLocalMedia) isAction()  {}
func (RenderRemoteMedia) isAction() {}
func (ClearRemoteMedia) isAction()  {}
func (AddSubscriber) isAction()     {}
func (RemoveSubscriber) isAction()  {}
func (Teardown) isAction()          {}
func (TeardownSelf) isAction()      {}
func (ReportError) isAction()       {}
func (Notify) isAction()            {}

// Presenter renders actions. It must not feed anything back into the
// reducers except by way of new inbound events.
type Presenter interface {
	Apply(Action)
}
