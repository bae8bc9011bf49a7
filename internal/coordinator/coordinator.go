package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/polkiloo/farmsupply/internal/adapter/backend"
	"github.com/polkiloo/farmsupply/internal/authz"
	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/metrics"
	"github.com/polkiloo/farmsupply/internal/store"
)

const defaultDispatchTimeout = 30 * time.Second

// Engine validates commands against cached state.
type Engine interface {
	Apply(p *model.Principal, cmd model.Command, state model.Snapshot) (model.TransitionResult, error)
}

// Guard answers read and access questions for a principal.
type Guard interface {
	CanAccess(p *model.Principal, resource authz.Resource) bool
	ReadScope(p *model.Principal, c model.Collection) authz.Scope
	Readable(p *model.Principal) []model.Collection
}

// Session reports the live principal.
type Session interface {
	Current() (model.Principal, bool)
}

// Archiver keeps a copy of downloaded invoices.
type Archiver interface {
	Put(ctx context.Context, orderID int64, pdf []byte) error
}

// Result is the outcome of an executed command.
type Result struct {
	Snapshot   model.Snapshot
	Transition model.TransitionResult
}

// Options tunes the coordinator.
type Options struct {
	// DispatchTimeout bounds the detached dispatch-and-refetch unit.
	DispatchTimeout time.Duration
}

// Coordinator runs commands as fetch-command-refetch cycles with one writer
// per collection.
type Coordinator struct {
	backend backend.Client
	store   *store.Store
	engine  Engine
	guard   Guard
	session Session
	archive Archiver
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration

	locks map[model.Collection]*semaphore.Weighted
}

// New constructs Coordinator. archive and m may be nil.
func New(
	client backend.Client,
	st *store.Store,
	engine Engine,
	guard Guard,
	session Session,
	archive Archiver,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *Coordinator {
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = defaultDispatchTimeout
	}
	locks := make(map[model.Collection]*semaphore.Weighted, len(model.Collections))
	for _, c := range model.Collections {
		locks[c] = semaphore.NewWeighted(1)
	}
	return &Coordinator{
		backend: client,
		store:   st,
		engine:  engine,
		guard:   guard,
		session: session,
		archive: archive,
		metrics: m,
		logger:  logger.Named("coordinator"),
		timeout: opts.DispatchTimeout,
		locks:   locks,
	}
}

// Store returns the entity store the coordinator writes to.
func (c *Coordinator) Store() *store.Store {
	return c.store
}

// Execute authorizes, validates, dispatches and refetches one command.
func (c *Coordinator) Execute(ctx context.Context, cmd model.Command) (res Result, err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveCommand(string(cmd.Entity), string(cmd.Action), outcome(err), time.Since(started))
	}()

	p, ok := c.session.Current()
	if !ok {
		return Result{}, &domainErrors.AuthError{Op: "execute", Err: domainErrors.ErrNoSession}
	}

	coll := cmd.Entity.Collection()
	lock, ok := c.locks[coll]
	if !ok {
		return Result{}, &domainErrors.WorkflowError{Entity: string(cmd.Entity), ID: cmd.ID, Err: domainErrors.ErrIllegalTransition}
	}

	// Authorization is settled before queueing behind another writer.
	if _, err := c.engine.Apply(&p, cmd, c.store.Snapshot()); errors.Is(err, domainErrors.ErrUnauthorized) {
		return Result{}, err
	}

	waitStarted := time.Now()
	if err := lock.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer lock.Release(1)
	c.metrics.ObserveLockWait(string(coll), time.Since(waitStarted))

	tr, err := c.engine.Apply(&p, cmd, c.store.Snapshot())
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// From here the unit runs to completion even if the caller goes away.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	if err := c.dispatch(dctx, p, cmd, tr); err != nil {
		c.logger.Warn("command rejected",
			zap.String("entity", string(cmd.Entity)),
			zap.String("action", string(cmd.Action)),
			zap.Int64("id", cmd.ID),
			zap.Error(err),
		)
		return Result{}, err
	}

	refetchErr := c.refetch(dctx, p, affected(cmd.Entity))
	res = Result{Snapshot: c.store.Snapshot(), Transition: tr}
	if refetchErr != nil {
		return res, fmt.Errorf("refresh after %s %s: %w", cmd.Action, cmd.Entity, refetchErr)
	}
	return res, nil
}

func (c *Coordinator) dispatch(ctx context.Context, p model.Principal, cmd model.Command, tr model.TransitionResult) error {
	switch cmd.Entity {
	case model.KindFarmer:
		switch cmd.Action {
		case model.ActionCreate:
			return c.backend.CreateFarmer(ctx, *cmd.Farmer)
		case model.ActionUpdate:
			return c.backend.UpdateFarmer(ctx, cmd.ID, *cmd.Farmer)
		case model.ActionDelete:
			return c.backend.DeleteFarmer(ctx, cmd.ID)
		case model.ActionTransition:
			return c.backend.SetFarmerApproval(ctx, cmd.ID, tr.NewState)
		}
	case model.KindProduct:
		switch cmd.Action {
		case model.ActionCreate:
			return c.backend.CreateProduct(ctx, *cmd.Product)
		case model.ActionUpdate:
			return c.backend.UpdateProduct(ctx, cmd.ID, *cmd.Product)
		case model.ActionDelete:
			return c.backend.DeleteProduct(ctx, cmd.ID)
		}
	case model.KindOrder:
		switch cmd.Action {
		case model.ActionCreate:
			return c.backend.CreateOrder(ctx, *cmd.Order, p.ID)
		case model.ActionTransition:
			if tr.NewState == model.StateScheduled {
				return c.backend.ScheduleDelivery(ctx, cmd.ID, *cmd.DeliveryDate)
			}
			return c.backend.SetOrderStatus(ctx, cmd.ID, tr.NewState)
		}
	case model.KindUser:
		switch cmd.Action {
		case model.ActionCreate:
			return c.backend.CreateUser(ctx, *cmd.User)
		case model.ActionUpdate:
			return c.backend.UpdateUser(ctx, cmd.ID, *cmd.User)
		case model.ActionDelete:
			return c.backend.DeleteUser(ctx, cmd.ID)
		}
	case model.KindTraining:
		switch cmd.Action {
		case model.ActionCreate:
			return c.backend.CreateTraining(ctx, *cmd.Training)
		case model.ActionUpdate:
			return c.backend.UpdateTraining(ctx, cmd.ID, *cmd.Training)
		case model.ActionDelete:
			return c.backend.DeleteTraining(ctx, cmd.ID)
		}
	}
	return &domainErrors.WorkflowError{Entity: string(cmd.Entity), ID: cmd.ID, Err: domainErrors.ErrIllegalTransition}
}

// affected lists the collections to refetch after a mutation of kind.
// Stock is derived server-side, so orders also refresh products.
func affected(kind model.EntityKind) []model.Collection {
	if kind == model.KindOrder {
		return []model.Collection{model.CollectionOrders, model.CollectionProducts}
	}
	return []model.Collection{kind.Collection()}
}

func (c *Coordinator) refetch(ctx context.Context, p model.Principal, colls []model.Collection) error {
	var errs []error
	for _, coll := range colls {
		if c.guard.ReadScope(&p, coll) == authz.ScopeNone {
			continue
		}
		if err := c.fetch(ctx, p, coll); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Resync refetches every collection the principal may read, in parallel.
func (c *Coordinator) Resync(ctx context.Context) error {
	p, ok := c.session.Current()
	if !ok {
		return &domainErrors.AuthError{Op: "resync", Err: domainErrors.ErrNoSession}
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, coll := range c.guard.Readable(&p) {
		g.Go(func() error { return c.fetch(gctx, p, coll) })
	}
	return g.Wait()
}

// Refresh refetches coll unless a writer currently holds it. It reports
// whether a fetch ran.
func (c *Coordinator) Refresh(ctx context.Context, coll model.Collection) (bool, error) {
	p, ok := c.session.Current()
	if !ok {
		return false, &domainErrors.AuthError{Op: "refresh", Err: domainErrors.ErrNoSession}
	}
	if c.guard.ReadScope(&p, coll) == authz.ScopeNone {
		return false, nil
	}
	lock, ok := c.locks[coll]
	if !ok || !lock.TryAcquire(1) {
		return false, nil
	}
	defer lock.Release(1)
	return true, c.fetch(ctx, p, coll)
}

// Stale lists the readable collections that need a refetch.
func (c *Coordinator) Stale() []model.Collection {
	p, ok := c.session.Current()
	if !ok {
		return nil
	}
	var out []model.Collection
	for _, coll := range c.guard.Readable(&p) {
		if c.store.Provenance(coll).Stale {
			out = append(out, coll)
		}
	}
	return out
}

func (c *Coordinator) fetch(ctx context.Context, p model.Principal, coll model.Collection) error {
	ticket := c.store.Begin()
	var (
		applied bool
		err     error
	)
	switch coll {
	case model.CollectionFarmers:
		var items []model.Farmer
		if items, err = c.backend.ListFarmers(ctx); err == nil {
			applied = c.store.ReplaceFarmers(ticket, items)
		}
	case model.CollectionProducts:
		var items []model.Product
		if items, err = c.backend.ListProducts(ctx); err == nil {
			applied = c.store.ReplaceProducts(ticket, items)
		}
	case model.CollectionOrders:
		var items []model.Order
		if items, err = c.backend.ListOrders(ctx); err == nil {
			applied = c.store.ReplaceOrders(ticket, scopeOrders(c.guard.ReadScope(&p, coll), p.ID, items))
		}
	case model.CollectionUsers:
		var items []model.User
		if items, err = c.backend.ListUsers(ctx); err == nil {
			applied = c.store.ReplaceUsers(ticket, items)
		}
	case model.CollectionTrainings:
		var items []model.Training
		if items, err = c.backend.ListTrainings(ctx); err == nil {
			applied = c.store.ReplaceTrainings(ticket, items)
		}
	default:
		return fmt.Errorf("unknown collection %q", coll)
	}

	if err != nil {
		c.store.MarkStale(coll)
		c.metrics.ObserveFetch(string(coll), metrics.OutcomeBackend)
		c.logger.Warn("fetch failed", zap.String("collection", string(coll)), zap.Error(err))
		return err
	}
	if !applied {
		c.metrics.ObserveFetch(string(coll), metrics.OutcomeStale)
		c.logger.Debug("discarded stale fetch", zap.String("collection", string(coll)), zap.Uint64("seq", ticket.Seq))
		return nil
	}
	c.metrics.ObserveFetch(string(coll), metrics.OutcomeOK)
	c.metrics.SetStoreVersion(string(coll), ticket.Seq)
	return nil
}

// scopeOrders narrows an order list to what the scope allows.
func scopeOrders(scope authz.Scope, principalID int64, items []model.Order) []model.Order {
	if scope != authz.ScopeOwn {
		return items
	}
	own := make([]model.Order, 0, len(items))
	for _, o := range items {
		if o.OrderedBy == principalID {
			own = append(own, o)
		}
	}
	return own
}

// Invoice downloads the invoice of a cached order and archives a copy.
func (c *Coordinator) Invoice(ctx context.Context, orderID int64) ([]byte, error) {
	p, ok := c.session.Current()
	if !ok {
		return nil, &domainErrors.AuthError{Op: "invoice", Err: domainErrors.ErrNoSession}
	}
	if !c.guard.CanAccess(&p, authz.ResourceOrdersFulfil) {
		c.metrics.ObserveInvoice(metrics.OutcomeDenied)
		return nil, &domainErrors.WorkflowError{Entity: string(model.KindOrder), ID: orderID, Err: domainErrors.ErrUnauthorized}
	}
	if _, ok := c.store.Order(orderID); !ok {
		c.metrics.ObserveInvoice(metrics.OutcomeInvalid)
		return nil, &domainErrors.WorkflowError{Entity: string(model.KindOrder), ID: orderID, Err: domainErrors.ErrUnknownEntity}
	}

	pdf, err := c.backend.Invoice(ctx, orderID)
	if err != nil {
		c.metrics.ObserveInvoice(metrics.OutcomeBackend)
		return nil, err
	}
	c.metrics.ObserveInvoice(metrics.OutcomeOK)

	if c.archive != nil {
		if err := c.archive.Put(ctx, orderID, pdf); err != nil {
			c.logger.Warn("archive invoice failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return pdf, nil
}

// Subscribe delivers the store revision after each change. Notifications
// coalesce: a slow reader sees only the latest revision. The channel is
// closed when ctx ends.
func (c *Coordinator) Subscribe(ctx context.Context) <-chan uint64 {
	out := make(chan uint64, 1)
	go func() {
		defer close(out)
		since := c.store.Revision()
		for {
			rev, err := c.store.WaitChange(ctx, since)
			if err != nil {
				return
			}
			since = rev
			select {
			case out <- rev:
			default:
				select {
				case <-out:
				default:
				}
				out <- rev
			}
		}
	}()
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domainErrors.ErrUnauthorized), errors.Is(err, domainErrors.ErrNoSession):
		return metrics.OutcomeDenied
	case errors.Is(err, domainErrors.ErrIllegalTransition), errors.Is(err, domainErrors.ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeBackend
	}
}
