package app

import (
	"github.com/dialstack/sipvr/internal/core"
	"github.com/dialstack/sipvr/internal/domain"
)

// Subscriber is one remote feed we are attached to. Handle and Neg
// are filled in by the orchestrator after the slot is reserved.
type Subscriber struct {
	Pub    domain.Publisher
	Slot   int
	Sess   domain.Session
	Handle core.HandleID
	Neg    core.MediaNegotiator
}

// Roster is the capacity-bounded publisher-id -> subscriber map. Slot
// indices exist for presentation only: lowest free index wins, so the
// allocation is deterministic and first-come-first-served. The roster
// is mutated only from the controller's event loop; it needs no lock
// as long as that invariant holds.
type Roster struct {
	cap   int
	subs  map[uint64]*Subscriber
	slots []uint64 // slot index -> publisher id, 0 free
}

func NewRoster(capacity int) *Roster {
	return &Roster{
		cap:   capacity,
		subs:  make(map[uint64]*Subscriber, capacity),
		slots: make([]uint64, capacity),
	}
}

func (r *Roster) Len() int { return len(r.subs) }

func (r *Roster) Has(id uint64) bool {
	_, ok := r.subs[id]
	return ok
}

func (r *Roster) Get(id uint64) (*Subscriber, bool) {
	s, ok := r.subs[id]
	return s, ok
}

// Add reserves a slot for a publisher. It returns ErrDuplicateFeed
// for a publisher id already tracked and ErrRosterFull when every
// slot is taken: overflow announcements are dropped, not failed.
func (r *Roster) Add(pub domain.Publisher) (*Subscriber, error) {
	if _, ok := r.subs[pub.ID]; ok {
		return nil, core.ErrDuplicateFeed
	}
	for i, occupant := range r.slots {
		if occupant != 0 {
			continue
		}
		sub := &Subscriber{Pub: pub, Slot: i + 1}
		r.slots[i] = pub.ID
		r.subs[pub.ID] = sub
		return sub, nil
	}
	return nil, core.ErrRosterFull
}

// Remove releases the slot for one publisher. Sibling entries are
// never touched.
func (r *Roster) Remove(id uint64) (*Subscriber, bool) {
	sub, ok := r.subs[id]
	if !ok {
		return nil, false
	}
	delete(r.subs, id)
	r.slots[sub.Slot-1] = 0
	return sub, true
}

// Snapshot returns the current subscribers in slot order.
func (r *Roster) Snapshot() []*Subscriber {
	out := make([]*Subscriber, 0, len(r.subs))
	for _, id := range r.slots {
		if id == 0 {
			continue
		}
		if sub, ok := r.subs[id]; ok {
			out = append(out, sub)
		}
	}
	return out
}

// Drain empties the roster and returns every subscriber, in slot
// order, for teardown.
func (r *Roster) Drain() []*Subscriber {
	out := r.Snapshot()
	r.subs = make(map[uint64]*Subscriber, r.cap)
	for i := range r.slots {
		r.slots[i] = 0
	}
	return out
}
