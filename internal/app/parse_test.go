package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialstack/sipvr/internal/core"
)

func TestParseSIPEventResult(t *testing.T) {
	payload := json.RawMessage(`{
		"sip": "event",
		"call_id": "abc-123",
		"result": {
			"event": "accepted",
			"username": "sip:7002@proxy",
			"code": 200,
			"reason": "OK"
		}
	}`)

	ev, err := ParseSIPEvent(payload, answerDesc(minimalAudioSDP))
	require.NoError(t, err)
	assert.Equal(t, core.SIPEventAccepted, ev.Name)
	assert.Equal(t, "abc-123", ev.CallID)
	assert.Equal(t, "sip:7002@proxy", ev.Username)
	assert.Equal(t, 200, ev.Code)
	require.NotNil(t, ev.Desc)
}

func TestParseSIPEventErrorFrame(t *testing.T) {
	payload := json.RawMessage(`{"sip":"event","error":"Invalid request","error_code":453}`)
	ev, err := ParseSIPEvent(payload, nil)
	require.NoError(t, err)
	assert.Empty(t, ev.Name)
	assert.Equal(t, "Invalid request", ev.Err)
	assert.Equal(t, 453, ev.ErrCode)
}

func TestParseSIPEventBadJSON(t *testing.T) {
	_, err := ParseSIPEvent(json.RawMessage(`{`), nil)
	assert.Error(t, err)
}

func TestParseRoomEventJoined(t *testing.T) {
	payload := json.RawMessage(`{
		"videoroom": "joined",
		"room": 1234,
		"id": 42,
		"private_id": 99,
		"publishers": [
			{"id": 7, "display": "alice", "audio_codec": "opus", "video_codec": "vp8"}
		]
	}`)

	ev, err := ParseRoomEvent(payload, nil)
	require.NoError(t, err)
	assert.Equal(t, core.RoomEventJoined, ev.Name)
	assert.Equal(t, uint64(1234), ev.Room)
	assert.Equal(t, uint64(42), ev.ID)
	assert.Equal(t, uint64(99), ev.PrivateID)
	require.Len(t, ev.Publishers, 1)
	assert.Equal(t, "alice", ev.Publishers[0].Display)
	assert.Equal(t, "vp8", ev.Publishers[0].VideoCodec)
}

func TestParseRoomEventLeavingAndUnpublished(t *testing.T) {
	ev, err := ParseRoomEvent(json.RawMessage(`{"videoroom":"event","leaving":7}`), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), ev.Leaving)
	assert.False(t, ev.SelfUnpublished)

	ev, err = ParseRoomEvent(json.RawMessage(`{"videoroom":"event","unpublished":9}`), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), ev.Unpublished)
	assert.False(t, ev.SelfUnpublished)

	// "ok" means our own feed went away.
	ev, err = ParseRoomEvent(json.RawMessage(`{"videoroom":"event","unpublished":"ok"}`), nil)
	require.NoError(t, err)
	assert.True(t, ev.SelfUnpublished)
	assert.Zero(t, ev.Unpublished)
}

func TestParseRoomEventError(t *testing.T) {
	ev, err := ParseRoomEvent(json.RawMessage(`{"videoroom":"event","error":"No such room","error_code":426}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "No such room", ev.Err)
	assert.Equal(t, 426, ev.ErrCode)
}
