package app

import (
	"fmt"

	"github.com/dialstack/sipvr/internal/core"
	"github.com/dialstack/sipvr/internal/domain"
)

// ReduceRoom applies one inbound event on the publisher handle.
// tracked answers whether a feed id already has a subscriber session;
// the reducer never touches the roster itself.
func ReduceRoom(sess domain.Session, ev core.RoomEvent, tracked func(uint64) bool) (domain.Session, []core.Action) {
	if ev.Err != "" {
		return sess, []core.Action{
			core.ReportError{Err: &core.GatewayError{Code: ev.ErrCode, Reason: ev.Err}},
		}
	}

	// A description riding on a publisher-handle event is the answer
	// to our publish offer: forward it before anything else.
	var acts []core.Action
	if ev.Desc != nil {
		acts = append(acts, core.ApplyRemote{Desc: ev.Desc})
	}

	switch ev.Name {
	case core.RoomEventJoined:
		if sess.State == domain.StateJoining {
			sess.State = domain.StatePublished
			acts = append(acts,
				core.Notify{Event: ev.Name, Detail: fmt.Sprintf("room %d id %d", ev.Room, ev.ID)},
				core.CreateOffer{Constraints: core.PublishOnly(), Purpose: core.PurposePublish},
			)
			for _, p := range ev.Publishers {
				if !tracked(p.ID) {
					acts = append(acts, core.AddSubscriber{Publisher: p})
				}
			}
			return sess, acts
		}

	case core.RoomEventEvent:
		// Roster bookkeeping is independent of our own publish state:
		// feeds come and go whether or not we are publishing.
		switch {
		case ev.SelfUnpublished:
			// That's us: tear down our own feed only, remote feeds
			// stay up.
			sess.State = domain.StateIdle
			return sess, append(acts, core.TeardownSelf{Reason: "unpublished"})
		case ev.Leaving != 0:
			return sess, append(acts, core.RemoveSubscriber{Feed: ev.Leaving})
		case ev.Unpublished != 0:
			return sess, append(acts, core.RemoveSubscriber{Feed: ev.Unpublished})
		case len(ev.Publishers) > 0:
			if sess.State == domain.StatePublished {
				sess.State = domain.StateActive
			}
			for _, p := range ev.Publishers {
				if !tracked(p.ID) {
					acts = append(acts, core.AddSubscriber{Publisher: p})
				}
			}
			return sess, acts
		}
		return sess, append(acts, core.Notify{Event: ev.Name})

	case core.RoomEventDestroyed:
		sess.State = domain.StateIdle
		return sess, append(acts,
			core.ReportError{Err: fmt.Errorf("room %d destroyed", ev.Room)},
			core.Teardown{Reason: "room destroyed"},
		)

	case core.RoomEventTalking:
		return sess, append(acts, core.Notify{Event: ev.Name, Detail: ev.Display})
	}

	return sess, append(acts, core.Notify{
		Event:  ev.Name,
		Detail: fmt.Sprintf("no-op in state %s", sess.State),
	})
}

// ReduceSubscriber applies one inbound event on a subscriber handle.
// The gateway sends the offer; we answer recvonly and start the feed.
func ReduceSubscriber(sess domain.Session, ev core.RoomEvent) (domain.Session, []core.Action) {
	if ev.Err != "" {
		return sess, []core.Action{
			core.ReportError{Err: &core.GatewayError{Code: ev.ErrCode, Reason: ev.Err}},
		}
	}

	var acts []core.Action
	switch ev.Name {
	case core.RoomEventAttached:
		if sess.State == domain.StateJoining {
			sess.State = domain.StateActive
			acts = append(acts, core.Notify{Event: ev.Name, Detail: ev.Display})
		}
	case core.RoomEventEvent, "":
		// Simulcast switches and the like: nothing to do.
	default:
		acts = append(acts, core.Notify{Event: ev.Name, Detail: "unexpected on subscriber"})
	}

	if ev.Desc != nil {
		acts = append(acts, core.CreateAnswer{
			Remote:  ev.Desc,
			Flags:   FlagsFromDescription(ev.Desc),
			Purpose: core.PurposeSubscribe,
		})
	}
	return sess, acts
}
