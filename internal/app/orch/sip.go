package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dialstack/sipvr/internal/app"
	"github.com/dialstack/sipvr/internal/core"
	"github.com/dialstack/sipvr/internal/domain"
)

// onSIPEvent is the transport callback for the SIP handle. It only
// posts; the reduction itself runs on the loop, in arrival order.
func (c *Controller) onSIPEvent(he core.HandleEvent) {
	c.post(func() error {
		switch he.Kind {
		case core.HandleEventPlugin:
			ev, err := app.ParseSIPEvent(he.Data, he.Desc)
			if err != nil {
				log.Warn().Err(err).Str("module", "orch").Msg("unparseable sip payload")
				return nil
			}
			c.reduceSIP(ev)
		case core.HandleEventHangup:
			c.reduceSIP(core.CallEvent{Name: core.SIPEventHangup, Reason: he.Reason})
		case core.HandleEventCleanup:
			// Cleanup notification: the call id must not outlive it.
			c.sip.CallID = ""
		case core.HandleEventDetached:
			c.sipHandle = 0
		}
		return nil
	})
}

func (c *Controller) reduceSIP(ev core.CallEvent) {
	next, acts := app.ReduceSIP(c.sip, ev)
	log.Debug().Str("module", "orch").
		Str("event", ev.Name).
		Str("from", c.sip.State.String()).
		Str("to", next.State.String()).
		Int("actions", len(acts)).
		Msg("sip reduced")
	c.sip = next
	for _, a := range acts {
		c.applySIPAction(a)
	}
}

func (c *Controller) applySIPAction(a core.Action) {
	switch act := a.(type) {
	case core.CreateOffer:
		c.startCallOffer(act.Constraints)

	case core.CreateAnswer:
		if c.sipNeg == nil {
			c.report(&core.NegotiationError{Op: "answer", Err: core.ErrInvalidState})
			return
		}
		answer, err := c.sipNeg.CreateAnswer(act.Remote, core.FromFlags(act.Flags))
		if err != nil {
			// Report and stay in the prior logical state.
			c.report(&core.NegotiationError{Op: "answer", Err: err})
			return
		}
		if err := c.tr.Send(c.sipHandle, map[string]any{"request": "update"}, answer); err != nil {
			c.report(&core.TransportError{Op: "update", Err: err})
		}

	case core.ApplyRemote:
		if c.sipNeg == nil {
			return
		}
		if err := c.sipNeg.ApplyRemoteDescription(act.Desc); err != nil {
			// The demos hang up when the remote description cannot be
			// applied; keep that behavior.
			c.report(&core.NegotiationError{Op: "remote description", Err: err})
			c.hangupLocked()
		}

	case core.SendFrame:
		if err := c.tr.Send(c.sipHandle, act.Body, act.Desc); err != nil {
			c.report(&core.TransportError{Op: "send", Err: err})
		}

	case core.Teardown:
		log.Info().Str("module", "orch").Str("reason", act.Reason).Msg("call torn down")
		c.teardownCall(act.Reason)

	default:
		c.pres.Apply(a)
	}
}

// startCallOffer negotiates a local offer and sends the call request.
// A negotiation failure is reported and leaves the session where it
// was; there is no mid-flight cancellation to attempt.
func (c *Controller) startCallOffer(mc core.MediaConstraints) {
	if c.dial == "" {
		c.pres.Apply(core.Notify{Event: "registered", Detail: "no dial target configured"})
		return
	}
	neg, err := c.newNeg("sip")
	if err != nil {
		c.report(&core.NegotiationError{Op: "peerconnection", Err: err})
		return
	}
	offer, err := neg.CreateOffer(mc)
	if err != nil {
		neg.Close()
		c.report(&core.NegotiationError{Op: "offer", Err: err})
		return
	}
	if c.sipNeg != nil {
		c.sipNeg.Close()
	}
	c.sipNeg = neg

	uri := c.account.DialURI(c.dial)
	body := map[string]any{"request": "call", "uri": uri}
	if err := c.tr.Send(c.sipHandle, body, offer); err != nil {
		c.report(&core.TransportError{Op: "call", Err: err})
		return
	}
	c.pres.Apply(core.RenderLocalMedia{})
	log.Info().Str("module", "orch").Str("uri", uri).Msg("calling")
}

// teardownCall releases the media side of the SIP leg. The handle and
// the registration survive only if the reducer says so; after hangup
// the session is back at Idle either way.
func (c *Controller) teardownCall(reason string) {
	if c.sipNeg != nil {
		c.sipNeg.Close()
		c.sipNeg = nil
	}
	c.sip.CallID = ""
	if c.sip.State != domain.StateIdle {
		c.sip.State = domain.StateIdle
	}
	c.pres.Apply(core.ClearRemoteMedia{Slot: 0})
	c.pres.Apply(core.Notify{Event: "hangup", Detail: reason})
}

func (c *Controller) report(err error) {
	log.Error().Err(err).Str("module", "orch").Msg("reported")
	c.pres.Apply(core.ReportError{Err: err})
}
