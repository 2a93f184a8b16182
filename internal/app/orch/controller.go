// Package orch wires the pure reducers to the transport, the media
// negotiators and the presenter. One Controller owns one SIP session
// and, optionally, one room session plus its subscriber set.
package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dialstack/sipvr/internal/app"
	"github.com/dialstack/sipvr/internal/core"
	"github.com/dialstack/sipvr/internal/domain"
)

const (
	pluginSIP       = "janus.plugin.sip"
	pluginVideoRoom = "janus.plugin.videoroom"

	attachTimeout = 10 * time.Second
)

// Options are the static knobs a Controller needs; everything else
// arrives through events.
type Options struct {
	// Proxy and ProxyPort locate the SIP proxy accounts live on.
	Proxy     string
	ProxyPort int
	// DialURI is the destination called as soon as registration
	// succeeds. Empty means wait for an explicit PlaceCall.
	DialURI string
	// Room is the video room to join on StartVideo.
	Room uint64
	// Slots caps the subscriber roster.
	Slots int
}

type task struct {
	fn   func() error
	done chan error
}

// Controller reduces inbound events and dispatches the resulting
// actions. All session and roster state is owned by the event loop
// goroutine: every mutation, whether triggered by the API or by the
// transport, runs as a task on that single loop, so reductions for a
// session are never concurrent and arrive in transport order.
type Controller struct {
	opts   Options
	tr     core.SignalTransport
	newNeg core.NegotiatorFactory
	pres   core.Presenter

	tasks   chan task
	stopped chan struct{}
	ctx     context.Context

	// Loop-owned state. Never touched outside the loop.
	account   *domain.Account
	dial      string
	sip       domain.Session
	sipHandle core.HandleID
	sipNeg    core.MediaNegotiator

	room       domain.Session
	roomHandle core.HandleID
	roomNeg    core.MediaNegotiator
	myID       uint64
	privateID  uint64
	roster     *app.Roster
}

func New(opts Options, tr core.SignalTransport, newNeg core.NegotiatorFactory, pres core.Presenter) *Controller {
	if opts.Slots <= 0 {
		opts.Slots = 5
	}
	return &Controller{
		opts:    opts,
		tr:      tr,
		newNeg:  newNeg,
		pres:    pres,
		tasks:   make(chan task, 64),
		stopped: make(chan struct{}),
		dial:    opts.DialURI,
		sip:     domain.NewSession("sip", domain.KindSIP),
		room:    domain.NewSession("room", domain.KindRoomPublisher),
		roster:  app.NewRoster(opts.Slots),
	}
}

// Run starts the event loop and blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) {
	c.ctx = ctx
	defer close(c.stopped)
	for {
		select {
		case <-ctx.Done():
			c.teardownAll()
			return
		case t := <-c.tasks:
			err := t.fn()
			if t.done != nil {
				t.done <- err
			}
		}
	}
}

// run executes fn on the loop and waits for it.
func (c *Controller) run(fn func() error) error {
	done := make(chan error, 1)
	select {
	case c.tasks <- task{fn: fn, done: done}:
	case <-c.stopped:
		return errors.New("controller stopped")
	}
	select {
	case err := <-done:
		return err
	case <-c.stopped:
		return errors.New("controller stopped")
	}
}

// post queues fn without waiting; used by transport callbacks, which
// must not block the read pump for long.
func (c *Controller) post(fn func() error) {
	select {
	case c.tasks <- task{fn: fn}:
	case <-c.stopped:
		log.Warn().Str("module", "orch").Msg("event dropped, controller stopped")
	}
}

// StartRegistration attaches the SIP handle (tearing down a previous
// live session first) and sends the register request.
func (c *Controller) StartRegistration(extension string) error {
	if _, err := domain.NewAccount(extension, c.opts.Proxy, c.opts.ProxyPort); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidAccount, err)
	}
	return c.run(func() error { return c.register(extension) })
}

func (c *Controller) register(extension string) error {
	// A live session has to go before a new registration starts: the
	// in-process replacement for the demos' page reload.
	if c.sip.State != domain.StateIdle {
		c.teardownCall("re-register")
	}

	account, err := domain.NewAccount(extension, c.opts.Proxy, c.opts.ProxyPort)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidAccount, err)
	}
	c.account = account

	if c.sipHandle == 0 {
		ctx, cancel := context.WithTimeout(c.ctx, attachTimeout)
		defer cancel()
		h, err := c.tr.Attach(ctx, pluginSIP, "sipvr-"+extension, c.onSIPEvent)
		if err != nil {
			return &core.TransportError{Op: "attach sip", Err: err}
		}
		c.sipHandle = h
		c.sip = domain.NewSession(domain.SessionID(fmt.Sprintf("sip-%d", h)), domain.KindSIP)
	}

	body := map[string]any{
		"request":      "register",
		"username":     account.URI(),
		"authuser":     account.Username,
		"display_name": account.DisplayName,
		"secret":       account.Secret,
		"proxy":        account.ProxyURI(),
	}
	if err := c.tr.Send(c.sipHandle, body, nil); err != nil {
		return &core.TransportError{Op: "register", Err: err}
	}
	c.sip.State = domain.StateRegistering
	log.Info().Str("module", "orch").Str("account", account.URI()).Msg("registration started")
	return nil
}

// PlaceCall dials a destination; only valid once registered.
func (c *Controller) PlaceCall(destination string, wantsVideo bool) error {
	return c.run(func() error {
		if c.sip.State != domain.StateRegistered {
			return fmt.Errorf("%w: %s", core.ErrInvalidState, c.sip.State)
		}
		c.dial = destination
		mc := core.AudioCall()
		mc.VideoSend, mc.VideoRecv = wantsVideo, wantsVideo
		c.startCallOffer(mc)
		return nil
	})
}

// Hangup is valid from any non-Idle state. The hangup frame is best
// effort; teardown happens regardless.
func (c *Controller) Hangup() error {
	return c.run(func() error {
		if c.sip.State == domain.StateIdle {
			return fmt.Errorf("%w: %s", core.ErrInvalidState, c.sip.State)
		}
		c.hangupLocked()
		return nil
	})
}

func (c *Controller) hangupLocked() {
	if err := c.tr.Send(c.sipHandle, map[string]any{"request": "hangup"}, nil); err != nil {
		log.Warn().Err(err).Str("module", "orch").Msg("hangup frame not sent, tearing down anyway")
	}
	c.sip.State = domain.StateIdle
	c.sip.CallID = ""
	c.teardownCall("local hangup")
}

// StartVideo joins the configured video room as a publisher.
func (c *Controller) StartVideo() error {
	return c.run(func() error {
		if c.roomHandle != 0 {
			return fmt.Errorf("%w: already in room", core.ErrInvalidState)
		}
		if c.account == nil {
			return fmt.Errorf("%w: not registered", core.ErrInvalidState)
		}
		ctx, cancel := context.WithTimeout(c.ctx, attachTimeout)
		defer cancel()
		h, err := c.tr.Attach(ctx, pluginVideoRoom, "sipvr-room-"+c.account.Username, c.onRoomEvent)
		if err != nil {
			return &core.TransportError{Op: "attach videoroom", Err: err}
		}
		c.roomHandle = h
		c.room = domain.NewSession(domain.SessionID(fmt.Sprintf("room-%d", h)), domain.KindRoomPublisher)
		c.room.State = domain.StateJoining

		body := map[string]any{
			"request": "join",
			"room":    c.opts.Room,
			"ptype":   "publisher",
			"display": c.account.Username,
		}
		if err := c.tr.Send(c.roomHandle, body, nil); err != nil {
			return &core.TransportError{Op: "join room", Err: err}
		}
		log.Info().Str("module", "orch").Uint64("room", c.opts.Room).Msg("joining video room")
		return nil
	})
}

// Close tears everything down in-process; the controller can be
// reused for a new registration afterwards.
func (c *Controller) Close() error {
	return c.run(func() error {
		c.teardownAll()
		return nil
	})
}

func (c *Controller) teardownAll() {
	if c.sip.State != domain.StateIdle {
		c.hangupLocked()
	}
	c.teardownRoom("shutdown")
	if c.sipHandle != 0 {
		c.detach(c.sipHandle)
		c.sipHandle = 0
	}
	c.account = nil
	c.sip = domain.NewSession("sip", domain.KindSIP)
}

// SIPState reports the current SIP leg state; loop-serialized.
func (c *Controller) SIPState() domain.SessionState {
	st := domain.StateIdle
	_ = c.run(func() error {
		st = c.sip.State
		return nil
	})
	return st
}

// RosterSize reports how many remote feeds are subscribed right now.
func (c *Controller) RosterSize() int {
	n := 0
	_ = c.run(func() error {
		n = c.roster.Len()
		return nil
	})
	return n
}
