package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dialstack/sipvr/internal/app"
	"github.com/dialstack/sipvr/internal/core"
	"github.com/dialstack/sipvr/internal/domain"
)

// onRoomEvent is the transport callback for the publisher handle.
func (c *Controller) onRoomEvent(he core.HandleEvent) {
	c.post(func() error {
		switch he.Kind {
		case core.HandleEventPlugin:
			ev, err := app.ParseRoomEvent(he.Data, he.Desc)
			if err != nil {
				log.Warn().Err(err).Str("module", "orch").Msg("unparseable room payload")
				return nil
			}
			if ev.Name == core.RoomEventJoined {
				c.myID, c.privateID = ev.ID, ev.PrivateID
			}
			c.reduceRoom(ev)
		case core.HandleEventHangup, core.HandleEventCleanup:
			// Our publisher PeerConnection is gone; subscribers have
			// their own and stay up.
			if c.roomNeg != nil {
				c.roomNeg.Close()
				c.roomNeg = nil
			}
		case core.HandleEventDetached:
			c.roomHandle = 0
		}
		return nil
	})
}

func (c *Controller) reduceRoom(ev core.RoomEvent) {
	next, acts := app.ReduceRoom(c.room, ev, c.roster.Has)
	log.Debug().Str("module", "orch").
		Str("event", ev.Name).
		Str("from", c.room.State.String()).
		Str("to", next.State.String()).
		Int("actions", len(acts)).
		Msg("room reduced")
	c.room = next
	for _, a := range acts {
		c.applyRoomAction(a)
	}
}

func (c *Controller) applyRoomAction(a core.Action) {
	switch act := a.(type) {
	case core.CreateOffer:
		c.publishOwnFeed(act.Constraints)

	case core.ApplyRemote:
		if c.roomNeg == nil {
			return
		}
		if err := c.roomNeg.ApplyRemoteDescription(act.Desc); err != nil {
			c.report(&core.NegotiationError{Op: "publish answer", Err: err})
		}

	case core.AddSubscriber:
		c.addSubscriber(act.Publisher)

	case core.RemoveSubscriber:
		c.removeSubscriber(act.Feed)

	case core.SendFrame:
		if err := c.tr.Send(c.roomHandle, act.Body, act.Desc); err != nil {
			c.report(&core.TransportError{Op: "send", Err: err})
		}

	case core.Teardown:
		c.teardownRoom(act.Reason)

	case core.TeardownSelf:
		c.teardownOwnFeed(act.Reason)

	default:
		c.pres.Apply(a)
	}
}

func (c *Controller) publishOwnFeed(mc core.MediaConstraints) {
	neg, err := c.newNeg("publisher")
	if err != nil {
		c.report(&core.NegotiationError{Op: "peerconnection", Err: err})
		return
	}
	offer, err := neg.CreateOffer(mc)
	if err != nil {
		neg.Close()
		c.report(&core.NegotiationError{Op: "publish offer", Err: err})
		return
	}
	c.roomNeg = neg

	body := map[string]any{
		"request": "configure",
		"audio":   mc.AudioSend,
		"video":   mc.VideoSend,
	}
	if err := c.tr.Send(c.roomHandle, body, offer); err != nil {
		c.report(&core.TransportError{Op: "configure", Err: err})
		return
	}
	c.pres.Apply(core.RenderLocalMedia{})
}

// addSubscriber spawns one subscriber session for a freshly announced
// publisher. When the roster is full the announcement is dropped with
// a log, not an error.
func (c *Controller) addSubscriber(pub domain.Publisher) {
	sub, err := c.roster.Add(pub)
	if err != nil {
		msg := "roster full, publisher dropped"
		if errors.Is(err, core.ErrDuplicateFeed) {
			msg = "duplicate publisher announcement ignored"
		}
		log.Warn().Str("module", "orch").
			Uint64("feed", pub.ID).
			Str("display", pub.Display).
			Msg(msg)
		return
	}
	sub.Sess = domain.NewSession(domain.SessionID(fmt.Sprintf("feed-%d", pub.ID)), domain.KindRoomSubscriber)
	sub.Sess.State = domain.StateJoining

	ctx, cancel := context.WithTimeout(c.ctx, attachTimeout)
	defer cancel()
	feed := pub.ID
	h, err := c.tr.Attach(ctx, pluginVideoRoom, fmt.Sprintf("sipvr-sub-%d", feed), func(he core.HandleEvent) {
		c.onSubscriberEvent(feed, he)
	})
	if err != nil {
		c.roster.Remove(feed)
		c.report(&core.TransportError{Op: "attach subscriber", Err: err})
		return
	}
	sub.Handle = h

	neg, err := c.newNeg("subscriber")
	if err != nil {
		c.abandonSubscriber(feed, &core.NegotiationError{Op: "peerconnection", Err: err})
		return
	}
	sub.Neg = neg

	body := map[string]any{
		"request":    "join",
		"room":       c.opts.Room,
		"ptype":      "subscriber",
		"feed":       feed,
		"private_id": c.privateID,
	}
	if err := c.tr.Send(h, body, nil); err != nil {
		c.abandonSubscriber(feed, &core.TransportError{Op: "subscribe", Err: err})
		return
	}
	log.Info().Str("module", "orch").
		Uint64("feed", feed).
		Str("display", pub.Display).
		Int("slot", sub.Slot).
		Msg("subscribing to feed")
}

func (c *Controller) onSubscriberEvent(feed uint64, he core.HandleEvent) {
	c.post(func() error {
		sub, ok := c.roster.Get(feed)
		if !ok {
			return nil
		}
		switch he.Kind {
		case core.HandleEventPlugin:
			ev, err := app.ParseRoomEvent(he.Data, he.Desc)
			if err != nil {
				log.Warn().Err(err).Str("module", "orch").Uint64("feed", feed).Msg("unparseable subscriber payload")
				return nil
			}
			next, acts := app.ReduceSubscriber(sub.Sess, ev)
			sub.Sess = next
			for _, a := range acts {
				c.applySubscriberAction(sub, a)
			}
		case core.HandleEventHangup, core.HandleEventCleanup, core.HandleEventDetached:
			c.removeSubscriber(feed)
		}
		return nil
	})
}

func (c *Controller) applySubscriberAction(sub *app.Subscriber, a core.Action) {
	switch act := a.(type) {
	case core.CreateAnswer:
		answer, err := sub.Neg.CreateAnswer(act.Remote, core.RecvOnly())
		if err != nil {
			// Abandon this feed only; siblings stay untouched.
			c.abandonSubscriber(sub.Pub.ID, &core.NegotiationError{Op: "subscriber answer", Err: err})
			return
		}
		body := map[string]any{"request": "start", "room": c.opts.Room}
		if err := c.tr.Send(sub.Handle, body, answer); err != nil {
			c.abandonSubscriber(sub.Pub.ID, &core.TransportError{Op: "start", Err: err})
			return
		}
		c.pres.Apply(core.RenderRemoteMedia{
			Slot:    sub.Slot,
			Display: sub.Pub.Display,
			Desc:    act.Remote,
		})

	default:
		c.pres.Apply(a)
	}
}

func (c *Controller) abandonSubscriber(feed uint64, err error) {
	c.report(err)
	c.removeSubscriber(feed)
}

// removeSubscriber tears down exactly one feed.
func (c *Controller) removeSubscriber(feed uint64) {
	sub, ok := c.roster.Remove(feed)
	if !ok {
		return
	}
	if sub.Neg != nil {
		sub.Neg.Close()
	}
	if sub.Handle != 0 {
		c.detach(sub.Handle)
	}
	c.pres.Apply(core.ClearRemoteMedia{Slot: sub.Slot})
	log.Info().Str("module", "orch").Uint64("feed", feed).Int("slot", sub.Slot).Msg("feed removed")
}

// teardownOwnFeed ends only our published feed. The roster, the
// subscriber handles and the room attachment are untouched.
func (c *Controller) teardownOwnFeed(reason string) {
	if c.roomNeg != nil {
		c.roomNeg.Close()
		c.roomNeg = nil
	}
	c.pres.Apply(core.Notify{Event: "unpublished", Detail: reason})
	log.Info().Str("module", "orch").Str("reason", reason).Msg("own feed unpublished")
}

// teardownRoom ends our own feed and every subscriber session.
func (c *Controller) teardownRoom(reason string) {
	for _, sub := range c.roster.Drain() {
		if sub.Neg != nil {
			sub.Neg.Close()
		}
		if sub.Handle != 0 {
			c.detach(sub.Handle)
		}
		c.pres.Apply(core.ClearRemoteMedia{Slot: sub.Slot})
	}
	if c.roomNeg != nil {
		c.roomNeg.Close()
		c.roomNeg = nil
	}
	if c.roomHandle != 0 {
		c.detach(c.roomHandle)
		c.roomHandle = 0
	}
	c.room = domain.NewSession("room", domain.KindRoomPublisher)
	c.myID, c.privateID = 0, 0
	if reason != "" {
		c.pres.Apply(core.Notify{Event: "room closed", Detail: reason})
	}
}

func (c *Controller) detach(h core.HandleID) {
	ctx, cancel := context.WithTimeout(context.Background(), attachTimeout)
	defer cancel()
	if err := c.tr.Detach(ctx, h); err != nil {
		log.Warn().Err(err).Str("module", "orch").Uint64("handle", uint64(h)).Msg("detach failed")
	}
}
