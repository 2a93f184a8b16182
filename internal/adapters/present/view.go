// Package present is the presentation adapter: it renders actions
// into structured logs and an in-memory view the HTTP API serves.
// Nothing here feeds back into the reducers.
package present

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dialstack/sipvr/internal/core"
)

// Feed is one rendered remote feed.
type Feed struct {
	Slot    int    `json:"slot"`
	Display string `json:"display"`
}

// Snapshot is the read-only view served by the status endpoint.
type Snapshot struct {
	LocalMedia bool   `json:"local_media"`
	Feeds      []Feed `json:"feeds"`
	LastEvent  string `json:"last_event,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// View applies actions and keeps the latest renderable state. Safe
// for concurrent reads from HTTP handlers.
type View struct {
	mu         sync.RWMutex
	localMedia bool
	feeds      map[int]string
	lastEvent  string
	lastError  string
}

func NewView() *View {
	return &View{feeds: make(map[int]string)}
}

// Apply implements core.Presenter.
func (v *View) Apply(a core.Action) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch act := a.(type) {
	case core.RenderLocalMedia:
		v.localMedia = true
		log.Info().Str("module", "present").Msg("local media up")

	case core.RenderRemoteMedia:
		v.feeds[act.Slot] = act.Display
		log.Info().Str("module", "present").Int("slot", act.Slot).Str("display", act.Display).Msg("remote media rendered")

	case core.ClearRemoteMedia:
		delete(v.feeds, act.Slot)
		if act.Slot == 0 {
			v.localMedia = false
		}
		log.Info().Str("module", "present").Int("slot", act.Slot).Msg("remote media cleared")

	case core.Notify:
		v.lastEvent = act.Event
		log.Info().Str("module", "present").Str("event", act.Event).Str("detail", act.Detail).Msg("notify")

	case core.ReportError:
		v.lastError = act.Err.Error()
		log.Error().Err(act.Err).Str("module", "present").Msg("reported error")

	default:
		log.Debug().Str("module", "present").Msgf("unrendered action %T", a)
	}
}

func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s := Snapshot{
		LocalMedia: v.localMedia,
		LastEvent:  v.lastEvent,
		LastError:  v.lastError,
		Feeds:      make([]Feed, 0, len(v.feeds)),
	}
	for slot, display := range v.feeds {
		s.Feeds = append(s.Feeds, Feed{Slot: slot, Display: display})
	}
	sort.Slice(s.Feeds, func(i, j int) bool { return s.Feeds[i].Slot < s.Feeds[j].Slot })
	return s
}

var _ core.Presenter = (*View)(nil)
