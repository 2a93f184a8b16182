package present

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dialstack/sipvr/internal/core"
)

func TestViewRendersAndClearsFeeds(t *testing.T) {
	v := NewView()
	v.Apply(core.RenderLocalMedia{})
	v.Apply(core.RenderRemoteMedia{Slot: 2, Display: "bob"})
	v.Apply(core.RenderRemoteMedia{Slot: 1, Display: "alice"})

	s := v.Snapshot()
	assert.True(t, s.LocalMedia)
	assert.Equal(t, []Feed{{Slot: 1, Display: "alice"}, {Slot: 2, Display: "bob"}}, s.Feeds)

	v.Apply(core.ClearRemoteMedia{Slot: 1})
	s = v.Snapshot()
	assert.Equal(t, []Feed{{Slot: 2, Display: "bob"}}, s.Feeds)
	assert.True(t, s.LocalMedia, "clearing a feed keeps local media")
}

func TestViewSlotZeroClearsLocalMedia(t *testing.T) {
	v := NewView()
	v.Apply(core.RenderLocalMedia{})
	v.Apply(core.RenderRemoteMedia{Slot: 0, Display: "callee"})

	v.Apply(core.ClearRemoteMedia{Slot: 0})
	s := v.Snapshot()
	assert.False(t, s.LocalMedia)
	assert.Empty(t, s.Feeds)
}

func TestViewRecordsEventsAndErrors(t *testing.T) {
	v := NewView()
	v.Apply(core.Notify{Event: "registered", Detail: "sip:7001@proxy"})
	v.Apply(core.ReportError{Err: errors.New("gateway gone")})

	s := v.Snapshot()
	assert.Equal(t, "registered", s.LastEvent)
	assert.Equal(t, "gateway gone", s.LastError)
}
