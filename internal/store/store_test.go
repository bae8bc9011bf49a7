package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

func newTestStore() *Store {
	s := New()
	s.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestNewStoreIsEmptyAndStale(t *testing.T) {
	s := newTestStore()
	snap := s.Snapshot()
	if len(snap.Farmers)+len(snap.Products)+len(snap.Orders)+len(snap.Users)+len(snap.Trainings) != 0 {
		t.Fatalf("expected empty store, got %+v", snap)
	}
	for _, c := range model.Collections {
		if !s.Provenance(c).Stale {
			t.Fatalf("expected %s to be stale", c)
		}
	}
}

func TestReplaceSetsProvenance(t *testing.T) {
	s := newTestStore()
	ticket := s.Begin()

	if !s.ReplaceFarmers(ticket, []model.Farmer{{ID: 7, ApprovalStatus: model.StatePending}}) {
		t.Fatal("expected replace to apply")
	}

	got := s.Provenance(model.CollectionFarmers)
	want := model.Provenance{Version: ticket.Seq, SyncedAt: s.now()}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected provenance (-want +got):\n%s", diff)
	}
	if !s.Provenance(model.CollectionOrders).Stale {
		t.Fatal("other collections must stay stale")
	}
	if s.Revision() != 1 {
		t.Fatalf("expected revision 1, got %d", s.Revision())
	}
}

func TestStaleReplyIgnored(t *testing.T) {
	s := newTestStore()
	older := s.Begin()
	newer := s.Begin()

	if !s.ReplaceOrders(newer, []model.Order{{ID: 42, Status: model.StateApproved}}) {
		t.Fatal("expected newer reply to apply")
	}
	if s.ReplaceOrders(older, []model.Order{{ID: 42, Status: model.StatePending}}) {
		t.Fatal("older reply must be ignored")
	}

	order, ok := s.Order(42)
	if !ok || order.Status != model.StateApproved {
		t.Fatalf("expected approved order to survive, got %+v", order)
	}
}

func TestInvalidateVoidsOutstandingTickets(t *testing.T) {
	s := newTestStore()
	before := s.Begin()
	if !s.ReplaceUsers(before, []model.User{{ID: 1, Username: "admin"}}) {
		t.Fatal("expected replace to apply")
	}
	late := s.Begin()

	s.Invalidate()

	if len(s.Snapshot().Users) != 0 {
		t.Fatal("invalidate must empty collections")
	}
	if !s.Provenance(model.CollectionUsers).Stale {
		t.Fatal("invalidate must mark collections stale")
	}
	if s.ReplaceUsers(late, []model.User{{ID: 2}}) {
		t.Fatal("a reply issued before invalidation must be ignored")
	}
	if !s.ReplaceUsers(s.Begin(), []model.User{{ID: 3}}) {
		t.Fatal("a fresh ticket must apply")
	}
}

func TestMarkStaleKeepsItems(t *testing.T) {
	s := newTestStore()
	s.ReplaceTrainings(s.Begin(), []model.Training{{ID: 1, Title: "Soil"}})
	rev := s.Revision()

	s.MarkStale(model.CollectionTrainings)
	s.MarkStale(model.CollectionTrainings)

	if len(s.Snapshot().Trainings) != 1 {
		t.Fatal("stale collections keep their last-known-good items")
	}
	if !s.Provenance(model.CollectionTrainings).Stale {
		t.Fatal("expected stale provenance")
	}
	if s.Revision() != rev+1 {
		t.Fatalf("expected a single revision bump, got %d -> %d", rev, s.Revision())
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s := newTestStore()
	s.ReplaceFarmers(s.Begin(), []model.Farmer{{ID: 1}})
	held := s.Snapshot()

	s.ReplaceFarmers(s.Begin(), []model.Farmer{{ID: 1}, {ID: 2}})

	if len(held.Farmers) != 1 {
		t.Fatalf("held snapshot changed: %+v", held.Farmers)
	}
	if held.Provenance[model.CollectionFarmers].Version == s.Provenance(model.CollectionFarmers).Version {
		t.Fatal("held provenance must not follow later writes")
	}
}

func TestProductViewsToleratesMissingOwner(t *testing.T) {
	s := newTestStore()
	s.ReplaceFarmers(s.Begin(), []model.Farmer{{ID: 1, Name: "Alice", ApprovalStatus: model.StateApproved}})
	s.ReplaceProducts(s.Begin(), []model.Product{
		{ID: 3, Name: "Maize", QuantityOnHand: 10, UnitPrice: decimal.NewFromInt(500), OwnerFarmerID: 1},
		{ID: 4, Name: "Beans", QuantityOnHand: 5, UnitPrice: decimal.NewFromInt(700), OwnerFarmerID: 9},
	})

	want := []model.ProductView{
		{
			Product:       model.Product{ID: 3, Name: "Maize", QuantityOnHand: 10, UnitPrice: decimal.NewFromInt(500), OwnerFarmerID: 1},
			OwnerName:     "Alice",
			OwnerApproval: model.StateApproved,
		},
		{
			Product:      model.Product{ID: 4, Name: "Beans", QuantityOnHand: 5, UnitPrice: decimal.NewFromInt(700), OwnerFarmerID: 9},
			OwnerMissing: true,
		},
	}
	opts := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, s.ProductViews(), opts); diff != "" {
		t.Fatalf("unexpected views (-want +got):\n%s", diff)
	}
}

func TestConcurrentReplaceKeepsNewest(t *testing.T) {
	s := newTestStore()
	tickets := make([]Ticket, 50)
	for i := range tickets {
		tickets[i] = s.Begin()
	}

	var wg sync.WaitGroup
	for i, ticket := range tickets {
		wg.Add(1)
		go func(i int, ticket Ticket) {
			defer wg.Done()
			s.ReplaceProducts(ticket, []model.Product{{ID: int64(i)}})
		}(i, ticket)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	got := s.Snapshot().Products
	want := []model.Product{{ID: int64(len(tickets) - 1)}}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty(), cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("expected newest reply to win (-want +got):\n%s", diff)
	}
}

func TestWaitChangeWakesOnCommit(t *testing.T) {
	s := newTestStore()
	since := s.Revision()

	done := make(chan uint64, 1)
	go func() {
		rev, err := s.WaitChange(context.Background(), since)
		if err != nil {
			t.Errorf("wait: %v", err)
		}
		done <- rev
	}()

	s.ReplaceFarmers(s.Begin(), []model.Farmer{{ID: 1}})
	select {
	case rev := <-done:
		if rev <= since {
			t.Fatalf("expected revision past %d, got %d", since, rev)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}

	rev, err := s.WaitChange(context.Background(), since)
	if err != nil || rev != s.Revision() {
		t.Fatalf("expected immediate return with %d, got %d (%v)", s.Revision(), rev, err)
	}
}

func TestWaitChangeHonoursContext(t *testing.T) {
	s := newTestStore()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := s.WaitChange(ctx, s.Revision()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
