package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// Syncer exposes the coordinator operations the refresher needs.
type Syncer interface {
	Stale() []model.Collection
	Refresh(ctx context.Context, coll model.Collection) (bool, error)
}

// Refresher polls for stale collections and refetches them on a worker pool.
type Refresher struct {
	syncer       Syncer
	pollInterval time.Duration
	workers      int
	logger       *zap.Logger

	jobs     chan model.Collection
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	mu       sync.Mutex
	inflight map[model.Collection]bool
	inflMu   sync.Mutex
}

// NewRefresher constructs the refresher worker pool.
func NewRefresher(syncer Syncer, pollInterval time.Duration, workers int, logger *zap.Logger) *Refresher {
	if workers <= 0 {
		workers = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Refresher{
		syncer:       syncer,
		pollInterval: pollInterval,
		workers:      workers,
		logger:       logger.Named("refresher"),
		jobs:         make(chan model.Collection, len(model.Collections)),
		inflight:     make(map[model.Collection]bool, len(model.Collections)),
	}
}

// Start launches background processing.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop cancels processing and waits for all workers to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Refresher) dispatch(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.enqueueStale(ctx)
		}
	}
}

func (r *Refresher) enqueueStale(ctx context.Context) {
	for _, coll := range r.syncer.Stale() {
		if !r.claim(coll) {
			continue
		}
		select {
		case <-ctx.Done():
			r.release(coll)
			return
		case r.jobs <- coll:
		}
	}
}

func (r *Refresher) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case coll := <-r.jobs:
			r.handle(ctx, coll)
		}
	}
}

func (r *Refresher) handle(ctx context.Context, coll model.Collection) {
	defer r.release(coll)
	ran, err := r.syncer.Refresh(ctx, coll)
	switch {
	case err != nil:
		if ctx.Err() == nil {
			r.logger.Warn("refresh failed", zap.String("collection", string(coll)), zap.Error(err))
		}
	case ran:
		r.logger.Debug("collection refreshed", zap.String("collection", string(coll)))
	}
}

// claim marks coll as queued; it reports false when it already is.
func (r *Refresher) claim(coll model.Collection) bool {
	r.inflMu.Lock()
	defer r.inflMu.Unlock()
	if r.inflight[coll] {
		return false
	}
	r.inflight[coll] = true
	return true
}

func (r *Refresher) release(coll model.Collection) {
	r.inflMu.Lock()
	delete(r.inflight, coll)
	r.inflMu.Unlock()
}
