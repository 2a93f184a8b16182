// Package app holds the event-reduction core: payload parsers, the
// SIP and room state machines and the publisher roster. Everything
// here is pure; side effects live in the orchestrator.
package app

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/dialstack/sipvr/internal/core"
	"github.com/dialstack/sipvr/internal/domain"
)

type sipResult struct {
	Event    string `json:"event"`
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
	Username string `json:"username"`
}

type sipPayload struct {
	Sip       string     `json:"sip"`
	CallID    string     `json:"call_id"`
	Error     string     `json:"error"`
	ErrorCode int        `json:"error_code"`
	Result    *sipResult `json:"result"`
}

// ParseSIPEvent turns a raw SIP plugin payload into a CallEvent.
// A frame with neither a result event nor an error field is reported
// as-is with an empty Name; the reducer treats that as unknown.
func ParseSIPEvent(data json.RawMessage, desc *webrtc.SessionDescription) (core.CallEvent, error) {
	var p sipPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return core.CallEvent{}, fmt.Errorf("sip payload: %w", err)
	}
	ev := core.CallEvent{
		CallID:  p.CallID,
		Err:     p.Error,
		ErrCode: p.ErrorCode,
		Desc:    desc,
	}
	if p.Result != nil {
		ev.Name = p.Result.Event
		ev.Code = p.Result.Code
		ev.Reason = p.Result.Reason
		ev.Username = p.Result.Username
	}
	return ev, nil
}

type roomPayload struct {
	VideoRoom   string             `json:"videoroom"`
	Room        uint64             `json:"room"`
	ID          uint64             `json:"id"`
	PrivateID   uint64             `json:"private_id"`
	Display     string             `json:"display"`
	Publishers  []domain.Publisher `json:"publishers"`
	Leaving     json.RawMessage    `json:"leaving"`
	Unpublished json.RawMessage    `json:"unpublished"`
	Error       string             `json:"error"`
	ErrorCode   int                `json:"error_code"`
}

// feedRef decodes a leaving/unpublished field, which is either a feed
// id or the literal "ok" meaning our own feed.
func feedRef(raw json.RawMessage) (id uint64, self bool) {
	if len(raw) == 0 {
		return 0, false
	}
	if bytes.Equal(raw, []byte(`"ok"`)) {
		return 0, true
	}
	_ = json.Unmarshal(raw, &id)
	return id, false
}

// ParseRoomEvent turns a raw video-room plugin payload into a RoomEvent.
func ParseRoomEvent(data json.RawMessage, desc *webrtc.SessionDescription) (core.RoomEvent, error) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return core.RoomEvent{}, fmt.Errorf("videoroom payload: %w", err)
	}
	ev := core.RoomEvent{
		Name:       p.VideoRoom,
		Room:       p.Room,
		ID:         p.ID,
		PrivateID:  p.PrivateID,
		Display:    p.Display,
		Publishers: p.Publishers,
		Err:        p.Error,
		ErrCode:    p.ErrorCode,
		Desc:       desc,
	}
	leaving, selfLeft := feedRef(p.Leaving)
	unpublished, selfUnpub := feedRef(p.Unpublished)
	ev.Leaving = leaving
	ev.Unpublished = unpublished
	ev.SelfUnpublished = selfLeft || selfUnpub
	return ev, nil
}
