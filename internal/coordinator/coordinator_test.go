package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/authz"
	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/metrics"
	"github.com/polkiloo/farmsupply/internal/store"
	testhelpers "github.com/polkiloo/farmsupply/internal/test"
	"github.com/polkiloo/farmsupply/internal/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var today = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

var principals = map[model.Role]model.Principal{
	model.RoleAdmin:          {ID: 1, Username: "admin", Role: model.RoleAdmin},
	model.RoleFieldOfficer:   {ID: 2, Username: "amina", Role: model.RoleFieldOfficer},
	model.RoleFinanceOfficer: {ID: 5, Username: "grace", Role: model.RoleFinanceOfficer},
	model.RoleTrainee:        {ID: 9, Username: "tom", Role: model.RoleTrainee},
}

type archiveStub struct {
	mu   sync.Mutex
	puts map[int64][]byte
	err  error
}

func (a *archiveStub) Put(_ context.Context, id int64, pdf []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.puts == nil {
		a.puts = map[int64][]byte{}
	}
	a.puts[id] = pdf
	return nil
}

type harness struct {
	c       *Coordinator
	backend *testhelpers.BackendStub
	store   *store.Store
	session *testhelpers.SessionStub
	archive *archiveStub
}

func newHarness(t *testing.T, role model.Role) *harness {
	t.Helper()
	fx := testhelpers.NewFixtures(42)
	b := testhelpers.NewBackendStub()

	b.Farmers = []model.Farmer{fx.Farmer(7, model.StatePending), fx.Farmer(8, model.StateApproved)}
	product := fx.Product(3, 8, 10)
	product.UnitPrice = decimal.NewFromInt(250)
	b.Products = []model.Product{product}
	b.Orders = []model.Order{
		fx.Order(42, product, 2, 5, model.StatePending),
		fx.Order(43, product, 1, 5, model.StateApproved),
		fx.Order(44, product, 1, 6, model.StateScheduled),
		fx.Order(45, product, 1, 6, model.StateDelivered),
	}
	b.Users = []model.User{fx.User(1, model.RoleAdmin), fx.User(5, model.RoleFinanceOfficer)}
	b.Trainings = []model.Training{fx.Training(1, today.AddDate(0, 0, 7))}

	guard := authz.NewGuard()
	engine := workflow.NewEngine(guard, workflow.WithClock(func() time.Time { return today }))
	st := store.New()
	session := testhelpers.NewSessionStub(principals[role])
	arch := &archiveStub{}
	c := New(b, st, engine, guard, session, arch, metrics.New(), zap.NewNop(), Options{DispatchTimeout: 5 * time.Second})

	require.NoError(t, c.Resync(context.Background()))
	return &harness{c: c, backend: b, store: st, session: session, archive: arch}
}

func transition(kind model.EntityKind, id int64, from, to model.State) model.Command {
	return model.Command{Entity: kind, Action: model.ActionTransition, ID: id, Transition: &model.Transition{From: from, To: to}}
}

func orderStatus(t *testing.T, snap model.Snapshot, id int64) model.State {
	t.Helper()
	for _, o := range snap.Orders {
		if o.ID == id {
			return o.Status
		}
	}
	t.Fatalf("order %d not cached", id)
	return ""
}

func TestFieldOfficerCannotApproveOrder(t *testing.T) {
	h := newHarness(t, model.RoleFieldOfficer)
	before := h.backend.Calls()

	_, err := h.c.Execute(context.Background(), transition(model.KindOrder, 42, model.StatePending, model.StateApproved))

	require.ErrorIs(t, err, domainErrors.ErrUnauthorized)
	var werr *domainErrors.WorkflowError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, int64(42), werr.ID)
	assert.Equal(t, before, h.backend.Calls(), "backend must not be contacted")
}

func TestConcurrentFarmerApprovalSecondSeesApproved(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.backend.Gate = make(chan struct{})
	h.backend.Entered = make(chan string, 1)

	first := make(chan error, 1)
	go func() {
		_, err := h.c.Execute(context.Background(), transition(model.KindFarmer, 7, model.StatePending, model.StateApproved))
		first <- err
	}()
	require.Equal(t, "SetFarmerApproval", <-h.backend.Entered)

	second := make(chan error, 1)
	go func() {
		_, err := h.c.Execute(context.Background(), transition(model.KindFarmer, 7, model.StatePending, model.StateApproved))
		second <- err
	}()

	close(h.backend.Gate)
	require.NoError(t, <-first)
	err := <-second

	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
	assert.Equal(t, 1, h.backend.CallCount("SetFarmerApproval"))
	f, ok := h.store.Farmer(7)
	require.True(t, ok)
	assert.Equal(t, model.StateApproved, f.ApprovalStatus)
}

func TestOrderExceedingStockRejectedLocally(t *testing.T) {
	h := newHarness(t, model.RoleFinanceOfficer)

	_, err := h.c.Execute(context.Background(), model.Command{
		Entity: model.KindOrder,
		Action: model.ActionCreate,
		Order:  &model.OrderInput{ProductID: 3, Quantity: 100},
	})

	require.ErrorIs(t, err, domainErrors.ErrInsufficientStock)
	assert.Zero(t, h.backend.CallCount("CreateOrder"))
}

func TestOrderCreateRefreshesStock(t *testing.T) {
	h := newHarness(t, model.RoleFinanceOfficer)

	res, err := h.c.Execute(context.Background(), model.Command{
		Entity: model.KindOrder,
		Action: model.ActionCreate,
		Order:  &model.OrderInput{ProductID: 3, Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatePending, res.Transition.NewState)

	require.Len(t, res.Snapshot.Products, 1)
	assert.Equal(t, int64(6), res.Snapshot.Products[0].QuantityOnHand)

	var created *model.Order
	for i, o := range res.Snapshot.Orders {
		assert.Equal(t, int64(5), o.OrderedBy, "finance officer only sees own orders")
		if o.ID > 1000 {
			created = &res.Snapshot.Orders[i]
		}
	}
	require.NotNil(t, created)
	assert.True(t, decimal.NewFromInt(1000).Equal(created.TotalPrice))
}

func TestDeliveryRoundTrip(t *testing.T) {
	h := newHarness(t, model.RoleFieldOfficer)
	ctx := context.Background()

	date := today.AddDate(0, 0, 5)
	cmd := transition(model.KindOrder, 43, model.StateApproved, model.StateScheduled)
	cmd.DeliveryDate = &date
	res, err := h.c.Execute(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, model.StateScheduled, orderStatus(t, res.Snapshot, 43))

	res, err = h.c.Execute(ctx, transition(model.KindOrder, 43, model.StateScheduled, model.StateDelivered))
	require.NoError(t, err)
	assert.Equal(t, model.StateDelivered, orderStatus(t, res.Snapshot, 43))

	fetched, ok := h.backend.OrderByID(43)
	require.True(t, ok)
	assert.Equal(t, model.StateDelivered, fetched.Status)

	for _, to := range []model.State{model.StatePending, model.StateApproved, model.StateScheduled, model.StateDelivered} {
		_, err := h.c.Execute(ctx, transition(model.KindOrder, 43, "", to))
		require.ErrorIs(t, err, domainErrors.ErrIllegalTransition, "delivered -> %s", to)
	}
}

func TestPastDeliveryDateRejected(t *testing.T) {
	h := newHarness(t, model.RoleFieldOfficer)
	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	cmd := transition(model.KindOrder, 43, model.StateApproved, model.StateScheduled)
	cmd.DeliveryDate = &past

	_, err := h.c.Execute(context.Background(), cmd)
	require.ErrorIs(t, err, domainErrors.ErrMissingDeliveryDate)
	assert.Zero(t, h.backend.CallCount("ScheduleDelivery"))
}

func TestBackendFailureLeavesStoreUnchanged(t *testing.T) {
	cases := map[string]struct {
		err  error
		want error
	}{
		"rejected":    {err: testhelpers.RejectedErr("approve farmer"), want: domainErrors.ErrRejected},
		"unreachable": {err: testhelpers.UnreachableErr("approve farmer"), want: domainErrors.ErrUnreachable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, model.RoleAdmin)
			h.backend.SetErr("SetFarmerApproval", tc.err)
			rev := h.store.Revision()

			_, err := h.c.Execute(context.Background(), transition(model.KindFarmer, 7, model.StatePending, model.StateRejected))

			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, rev, h.store.Revision())
			f, _ := h.store.Farmer(7)
			assert.Equal(t, model.StatePending, f.ApprovalStatus)
		})
	}
}

func TestRefetchFailureMarksCollectionStale(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.backend.SetErr("ListFarmers", testhelpers.UnreachableErr("list farmers"))

	_, err := h.c.Execute(context.Background(), transition(model.KindFarmer, 7, model.StatePending, model.StateApproved))

	require.ErrorIs(t, err, domainErrors.ErrUnreachable)
	assert.True(t, h.store.Provenance(model.CollectionFarmers).Stale)
	f, ok := h.store.Farmer(7)
	require.True(t, ok, "last known good items are kept")
	assert.Equal(t, model.StatePending, f.ApprovalStatus)

	h.backend.SetErr("ListFarmers", nil)
	ran, err := h.c.Refresh(context.Background(), model.CollectionFarmers)
	require.NoError(t, err)
	require.True(t, ran)
	f, _ = h.store.Farmer(7)
	assert.Equal(t, model.StateApproved, f.ApprovalStatus)
	assert.False(t, h.store.Provenance(model.CollectionFarmers).Stale)
}

func TestCancelledWhileWaitingForLock(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.backend.Gate = make(chan struct{})
	h.backend.Entered = make(chan string, 1)

	first := make(chan error, 1)
	go func() {
		_, err := h.c.Execute(context.Background(), transition(model.KindFarmer, 7, model.StatePending, model.StateApproved))
		first <- err
	}()
	<-h.backend.Entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.c.Execute(ctx, model.Command{Entity: model.KindFarmer, Action: model.ActionDelete, ID: 8})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, h.backend.CallCount("DeleteFarmer"))

	close(h.backend.Gate)
	require.NoError(t, <-first)

	ran, err := h.c.Refresh(context.Background(), model.CollectionFarmers)
	require.NoError(t, err)
	assert.True(t, ran, "lock must be released")
}

func TestDispatchSurvivesCallerCancellation(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.backend.Gate = make(chan struct{})
	h.backend.Entered = make(chan string, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.c.Execute(ctx, transition(model.KindFarmer, 7, model.StatePending, model.StateApproved))
		done <- err
	}()
	<-h.backend.Entered
	cancel()
	close(h.backend.Gate)

	require.NoError(t, <-done)
	f, _ := h.store.Farmer(7)
	assert.Equal(t, model.StateApproved, f.ApprovalStatus)
}

func TestRefreshSkipsBusyCollection(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.backend.Gate = make(chan struct{})
	h.backend.Entered = make(chan string, 1)

	done := make(chan error, 1)
	go func() {
		_, err := h.c.Execute(context.Background(), model.Command{Entity: model.KindFarmer, Action: model.ActionDelete, ID: 8})
		done <- err
	}()
	<-h.backend.Entered

	ran, err := h.c.Refresh(context.Background(), model.CollectionFarmers)
	require.NoError(t, err)
	assert.False(t, ran)

	close(h.backend.Gate)
	require.NoError(t, <-done)
	_, ok := h.store.Farmer(8)
	assert.False(t, ok)
}

func TestResyncFollowsReadScope(t *testing.T) {
	cases := []struct {
		role  model.Role
		reads []string
		skips []string
	}{
		{model.RoleAdmin, []string{"ListFarmers", "ListProducts", "ListOrders", "ListUsers", "ListTrainings"}, nil},
		{model.RoleFieldOfficer, []string{"ListFarmers", "ListProducts", "ListOrders", "ListTrainings"}, []string{"ListUsers"}},
		{model.RoleFinanceOfficer, []string{"ListProducts", "ListOrders"}, []string{"ListFarmers", "ListUsers", "ListTrainings"}},
		{model.RoleTrainee, nil, []string{"ListFarmers", "ListProducts", "ListOrders", "ListUsers", "ListTrainings"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			h := newHarness(t, tc.role)
			for _, op := range tc.reads {
				assert.Equal(t, 1, h.backend.CallCount(op), op)
			}
			for _, op := range tc.skips {
				assert.Zero(t, h.backend.CallCount(op), op)
			}
		})
	}
}

func TestResyncReportsFailure(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.backend.SetErr("ListOrders", testhelpers.UnreachableErr("list orders"))

	err := h.c.Resync(context.Background())
	require.ErrorIs(t, err, domainErrors.ErrUnreachable)
	assert.True(t, h.store.Provenance(model.CollectionOrders).Stale)
	assert.NotEmpty(t, h.store.Snapshot().Orders)
}

func TestExecuteWithoutSession(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.session.Switch(nil)

	_, err := h.c.Execute(context.Background(), transition(model.KindFarmer, 7, "", model.StateApproved))
	require.ErrorIs(t, err, domainErrors.ErrNoSession)
	require.ErrorIs(t, h.c.Resync(context.Background()), domainErrors.ErrNoSession)
}

func TestInvoice(t *testing.T) {
	h := newHarness(t, model.RoleFieldOfficer)
	ctx := context.Background()

	pdf, err := h.c.Invoice(ctx, 44)
	require.NoError(t, err)
	assert.Equal(t, h.backend.InvoicePDF, pdf)
	assert.Equal(t, pdf, h.archive.puts[44])

	h.archive.err = errors.New("bucket missing")
	_, err = h.c.Invoice(ctx, 44)
	require.NoError(t, err, "archive failures never fail the download")

	_, err = h.c.Invoice(ctx, 999)
	require.ErrorIs(t, err, domainErrors.ErrUnknownEntity)

	fin := principals[model.RoleFinanceOfficer]
	h.session.Switch(&fin)
	_, err = h.c.Invoice(ctx, 44)
	require.ErrorIs(t, err, domainErrors.ErrUnauthorized)
	assert.Equal(t, 2, h.backend.CallCount("Invoice"))
}

func TestSubscribeCoalescesChanges(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	ctx, cancel := context.WithCancel(context.Background())
	events := h.c.Subscribe(ctx)

	for i := 0; i < 5; i++ {
		h.store.MarkStale(model.CollectionUsers)
		_, err := h.c.Refresh(context.Background(), model.CollectionUsers)
		require.NoError(t, err)
	}

	deadline := time.After(time.Second)
	var last uint64
	for last < h.store.Revision() {
		select {
		case rev := <-events:
			assert.Greater(t, rev, last)
			last = rev
		case <-deadline:
			t.Fatalf("did not observe revision %d, last %d", h.store.Revision(), last)
		}
	}

	cancel()
	for range events {
	}
}
