package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dialstack/sipvr/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const sendBuffer = 32

// Client is one signaling session against the gateway. Create it
// with Dial, then Start it before attaching handles.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool

	sessionID uint64

	pmu     sync.Mutex
	pending map[string]chan *Envelope

	hmu      sync.RWMutex
	handlers map[core.HandleID]func(core.HandleEvent)

	pingPeriod time.Duration
	cancel     context.CancelFunc
}

// Dial opens the websocket. The gateway requires its own subprotocol.
func Dial(ctx context.Context, url string, pingPeriod time.Duration) (*Client, error) {
	dialer := websocket.Dialer{Subprotocols: []string{"janus-protocol"}}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &core.TransportError{Op: "dial", Err: err}
	}
	return &Client{
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		pending:    make(map[string]chan *Envelope),
		handlers:   make(map[core.HandleID]func(core.HandleEvent)),
		pingPeriod: pingPeriod,
	}, nil
}

// Start creates the gateway session and runs the pumps until ctx is
// canceled.
func (c *Client) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.writePump(ctx)
	go c.readPump(ctx)

	reply, err := c.request(ctx, &Envelope{Janus: verbCreate})
	if err != nil {
		cancel()
		return err
	}
	if reply.Data == nil {
		cancel()
		return &core.TransportError{Op: "create", Err: errors.New("no session id in reply")}
	}
	c.sessionID = reply.Data.ID
	log.Info().Str("module", "gateway").Uint64("session", c.sessionID).Msg("session created")

	go c.keepalive(ctx)
	return nil
}

// Attach implements core.SignalTransport.
func (c *Client) Attach(ctx context.Context, plugin, opaqueID string, onEvent func(core.HandleEvent)) (core.HandleID, error) {
	reply, err := c.request(ctx, &Envelope{
		Janus:     verbAttach,
		SessionID: c.sessionID,
		Plugin:    plugin,
		OpaqueID:  opaqueID,
	})
	if err != nil {
		return 0, err
	}
	if reply.Data == nil {
		return 0, &core.TransportError{Op: "attach", Err: errors.New("no handle id in reply")}
	}
	h := core.HandleID(reply.Data.ID)
	c.hmu.Lock()
	c.handlers[h] = onEvent
	c.hmu.Unlock()
	log.Info().Str("module", "gateway").Str("plugin", plugin).Uint64("handle", uint64(h)).Msg("handle attached")
	return h, nil
}

// Send implements core.SignalTransport. Fire-and-forget: the ack is
// dropped, plugin replies arrive as events on the handle.
func (c *Client) Send(handle core.HandleID, body any, desc *webrtc.SessionDescription) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return &core.TransportError{Op: "marshal body", Err: err}
	}
	env := &Envelope{
		Janus:       verbMessage,
		Transaction: uuid.NewString(),
		SessionID:   c.sessionID,
		HandleID:    uint64(handle),
		Body:        raw,
		Jsep:        desc,
	}
	return c.trySend(env)
}

// Detach implements core.SignalTransport.
func (c *Client) Detach(ctx context.Context, handle core.HandleID) error {
	c.hmu.Lock()
	delete(c.handlers, handle)
	c.hmu.Unlock()
	_, err := c.request(ctx, &Envelope{
		Janus:     verbDetach,
		SessionID: c.sessionID,
		HandleID:  uint64(handle),
	})
	return err
}

// Destroy tears down the gateway session and the websocket.
func (c *Client) Destroy(ctx context.Context) error {
	_, err := c.request(ctx, &Envelope{Janus: verbDestroy, SessionID: c.sessionID})
	c.Close()
	return err
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// request sends one frame and waits for the matching success or error
// reply. Acks for the same transaction are skipped, not returned.
func (c *Client) request(ctx context.Context, env *Envelope) (*Envelope, error) {
	if env.Transaction == "" {
		env.Transaction = uuid.NewString()
	}
	reply := make(chan *Envelope, 2)
	c.pmu.Lock()
	c.pending[env.Transaction] = reply
	c.pmu.Unlock()
	defer func() {
		c.pmu.Lock()
		delete(c.pending, env.Transaction)
		c.pmu.Unlock()
	}()

	if err := c.trySend(env); err != nil {
		return nil, err
	}
	for {
		select {
		case r := <-reply:
			if r.Janus == verbAck {
				continue
			}
			if r.Error != nil {
				return nil, &core.TransportError{
					Op:  env.Janus,
					Err: &core.GatewayError{Code: r.Error.Code, Reason: r.Error.Reason},
				}
			}
			return r, nil
		case <-ctx.Done():
			return nil, &core.TransportError{Op: env.Janus, Err: ctx.Err()}
		}
	}
}

func (c *Client) trySend(env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return &core.TransportError{Op: "marshal", Err: err}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return &core.TransportError{Op: "send", Err: errors.New("connection closed")}
	}
	select {
	case c.send <- data:
		return nil
	default:
		return &core.TransportError{Op: "send", Err: ErrBackpressure}
	}
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "gateway").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "gateway").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "gateway").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "gateway").Msg("writePump write error")
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		log.Info().Str("module", "gateway").Msg("readPump closing")
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Str("module", "gateway").Msg("readPump read error")
				}
				return
			}
			c.route(data)
		}
	}
}

// route dispatches one inbound frame: replies to the waiting request,
// events and transport notifications to the handle's callback.
func (c *Client) route(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "gateway").Msg("bad frame")
		return
	}

	if env.Transaction != "" {
		c.pmu.Lock()
		reply, ok := c.pending[env.Transaction]
		c.pmu.Unlock()
		if ok {
			reply <- &env
			return
		}
		if env.Janus == verbAck {
			return
		}
	}

	switch env.Janus {
	case verbEvent:
		if env.PluginData == nil {
			return
		}
		c.dispatch(core.HandleID(env.Sender), core.HandleEvent{
			Kind:   core.HandleEventPlugin,
			Handle: core.HandleID(env.Sender),
			Data:   env.PluginData.Data,
			Desc:   env.Jsep,
		})
	case verbHangup:
		c.dispatch(core.HandleID(env.Sender), core.HandleEvent{
			Kind:   core.HandleEventHangup,
			Handle: core.HandleID(env.Sender),
			Reason: env.Reason,
		})
	case verbDetached:
		c.dispatch(core.HandleID(env.Sender), core.HandleEvent{
			Kind:   core.HandleEventDetached,
			Handle: core.HandleID(env.Sender),
		})
	case verbWebRTCUp, verbMedia:
		log.Debug().Str("module", "gateway").Str("janus", env.Janus).Uint64("sender", env.Sender).Msg("media notification")
	case verbTimeout:
		log.Warn().Str("module", "gateway").Uint64("session", env.SessionID).Msg("session timed out")
		c.Close()
	case verbError:
		if env.Error != nil {
			log.Error().Str("module", "gateway").Int("code", env.Error.Code).Str("reason", env.Error.Reason).Msg("gateway error")
		}
	default:
		log.Debug().Str("module", "gateway").Str("janus", env.Janus).Msg("unhandled frame")
	}
}

func (c *Client) dispatch(h core.HandleID, he core.HandleEvent) {
	c.hmu.RLock()
	fn, ok := c.handlers[h]
	c.hmu.RUnlock()
	if !ok {
		log.Debug().Str("module", "gateway").Uint64("handle", uint64(h)).Msg("event for unknown handle")
		return
	}
	fn(he)
}

// keepalive keeps the gateway session alive; sessions reap after 60s
// of silence.
func (c *Client) keepalive(ctx context.Context) {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := c.trySend(&Envelope{
				Janus:       verbKeepalive,
				Transaction: uuid.NewString(),
				SessionID:   c.sessionID,
			})
			if err != nil {
				log.Warn().Err(err).Str("module", "gateway").Msg("keepalive not sent")
			}
		}
	}
}

// SessionID exposes the gateway-assigned session id, mostly for logs.
func (c *Client) SessionID() uint64 { return c.sessionID }

var _ core.SignalTransport = (*Client)(nil)

func (c *Client) String() string {
	return fmt.Sprintf("gateway session %d", c.sessionID)
}
