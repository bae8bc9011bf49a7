package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// Ticket identifies one fetch. Tickets are ordered by Seq and become void
// once the store is invalidated after they were issued.
type Ticket struct {
	Seq        uint64
	Generation uint64
}

// Store caches backend collections. Reads load an immutable snapshot and
// never block; writes replace whole collections.
type Store struct {
	mu       sync.Mutex
	snap     atomic.Pointer[model.Snapshot]
	seq      atomic.Uint64
	gen      atomic.Uint64
	revision atomic.Uint64
	now      func() time.Time

	// changed is closed and replaced on every commit; guarded by mu.
	changed chan struct{}
}

// New constructs an empty, stale Store.
func New() *Store {
	s := &Store{now: time.Now, changed: make(chan struct{})}
	s.snap.Store(emptySnapshot())
	return s
}

func emptySnapshot() *model.Snapshot {
	prov := make(map[model.Collection]model.Provenance, len(model.Collections))
	for _, c := range model.Collections {
		prov[c] = model.Provenance{Stale: true}
	}
	return &model.Snapshot{Provenance: prov}
}

// Begin issues a ticket for a fetch that is about to start.
func (s *Store) Begin() Ticket {
	return Ticket{Seq: s.seq.Add(1), Generation: s.gen.Load()}
}

// Snapshot returns the last committed state. Callers must not modify it.
func (s *Store) Snapshot() model.Snapshot {
	return *s.snap.Load()
}

// Revision counts committed changes, invalidations included.
func (s *Store) Revision() uint64 {
	return s.revision.Load()
}

// Generation returns the current invalidation generation.
func (s *Store) Generation() uint64 {
	return s.gen.Load()
}

// Provenance returns the sync record of c.
func (s *Store) Provenance(c model.Collection) model.Provenance {
	return s.snap.Load().Provenance[c]
}

// Invalidate empties every collection and marks it stale. Tickets issued
// before the call can no longer replace anything.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen.Add(1)
	s.snap.Store(emptySnapshot())
	s.commit()
}

// MarkStale flags c as out of date while keeping its last-known-good items.
func (s *Store) MarkStale(c model.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	if cur.Provenance[c].Stale {
		return
	}
	next := clone(cur)
	p := next.Provenance[c]
	p.Stale = true
	next.Provenance[c] = p
	s.snap.Store(next)
	s.commit()
}

// ReplaceFarmers installs a fetched farmer collection. It reports false when
// the ticket is older than the held slice or predates an invalidation.
func (s *Store) ReplaceFarmers(t Ticket, items []model.Farmer) bool {
	return s.replace(model.CollectionFarmers, t, func(next *model.Snapshot) { next.Farmers = items })
}

// ReplaceProducts installs a fetched product collection.
func (s *Store) ReplaceProducts(t Ticket, items []model.Product) bool {
	return s.replace(model.CollectionProducts, t, func(next *model.Snapshot) { next.Products = items })
}

// ReplaceOrders installs a fetched order collection.
func (s *Store) ReplaceOrders(t Ticket, items []model.Order) bool {
	return s.replace(model.CollectionOrders, t, func(next *model.Snapshot) { next.Orders = items })
}

// ReplaceUsers installs a fetched user collection.
func (s *Store) ReplaceUsers(t Ticket, items []model.User) bool {
	return s.replace(model.CollectionUsers, t, func(next *model.Snapshot) { next.Users = items })
}

// ReplaceTrainings installs a fetched training collection.
func (s *Store) ReplaceTrainings(t Ticket, items []model.Training) bool {
	return s.replace(model.CollectionTrainings, t, func(next *model.Snapshot) { next.Trainings = items })
}

func (s *Store) replace(c model.Collection, t Ticket, set func(*model.Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Generation != s.gen.Load() {
		return false
	}
	cur := s.snap.Load()
	if t.Seq <= cur.Provenance[c].Version {
		return false
	}

	next := clone(cur)
	set(next)
	next.Provenance[c] = model.Provenance{Version: t.Seq, SyncedAt: s.now()}
	s.snap.Store(next)
	s.commit()
	return true
}

// commit must be called with mu held.
func (s *Store) commit() {
	s.revision.Add(1)
	close(s.changed)
	s.changed = make(chan struct{})
}

// Changed returns a channel closed by the next commit.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// WaitChange blocks until the revision moves past since and returns it.
func (s *Store) WaitChange(ctx context.Context, since uint64) (uint64, error) {
	for {
		ch := s.Changed()
		if rev := s.Revision(); rev > since {
			return rev, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return since, ctx.Err()
		}
	}
}

func clone(cur *model.Snapshot) *model.Snapshot {
	next := *cur
	next.Provenance = make(map[model.Collection]model.Provenance, len(cur.Provenance))
	for c, p := range cur.Provenance {
		next.Provenance[c] = p
	}
	return &next
}
