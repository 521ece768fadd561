package adaptation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WORKER POOL
// Fixed-size pool of background compute units used only to parallelize the
// content transform under load. Completions are matched to waiting callers
// through a pending-request map keyed by correlation ID. A crashed unit is
// recovered and its in-flight request fails with the worker error; the
// engine then retries the pure transform once in the caller's own context.
// ══════════════════════════════════════════════════════════════════════════════

// task is one offloaded transform request.
type task struct {
	correlationID string
	item          *content.Item
	profile       *learner.Profile
}

// outcome is the completion of one task.
type outcome struct {
	adapted *AdaptedContent
	err     error
}

// WorkerPoolConfig contains configuration for the WorkerPool.
type WorkerPoolConfig struct {
	// Size is the number of concurrent workers.
	Size int

	// QueueDepth is the task buffer size.
	QueueDepth int

	// AwaitTimeout bounds how long a caller waits for a completion before
	// its correlation-id slot is released. Abandoned requests must not leak.
	AwaitTimeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultWorkerPoolConfig returns sensible defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Size:         4,
		QueueDepth:   64,
		AwaitTimeout: 5 * time.Second,
	}
}

// WorkerPool parallelizes content adaptation.
type WorkerPool struct {
	mu      sync.Mutex
	pending map[string]chan outcome
	tasks   chan task
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup

	awaitTimeout time.Duration
	logger       *slog.Logger
}

// NewWorkerPool creates and starts a worker pool.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Size <= 0 {
		cfg.Size = DefaultWorkerPoolConfig().Size
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultWorkerPoolConfig().QueueDepth
	}
	if cfg.AwaitTimeout <= 0 {
		cfg.AwaitTimeout = DefaultWorkerPoolConfig().AwaitTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &WorkerPool{
		pending:      make(map[string]chan outcome),
		tasks:        make(chan task, cfg.QueueDepth),
		closeCh:      make(chan struct{}),
		awaitTimeout: cfg.AwaitTimeout,
		logger:       cfg.Logger,
	}

	for i := 0; i < cfg.Size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p
}

// Submit queues a transform request and returns its correlation ID.
func (p *WorkerPool) Submit(item *content.Item, profile *learner.Profile) (string, error) {
	if item == nil {
		return "", shared.ErrNilContent
	}

	id := uuid.NewString()
	ch := make(chan outcome, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", shared.ErrPoolClosed
	}
	p.pending[id] = ch
	p.mu.Unlock()

	select {
	case p.tasks <- task{correlationID: id, item: item, profile: profile}:
		return id, nil
	case <-p.closeCh:
		p.release(id)
		return "", shared.ErrPoolClosed
	}
}

// Await blocks until the completion for the correlation ID arrives, the
// context is cancelled, or the pool timeout expires. On cancellation or
// timeout the correlation-id slot is released so it cannot leak; the worker
// is never aborted mid-computation, the caller is merely detached.
func (p *WorkerPool) Await(ctx context.Context, correlationID string) (*AdaptedContent, error) {
	p.mu.Lock()
	ch, ok := p.pending[correlationID]
	p.mu.Unlock()
	if !ok {
		return nil, shared.NewDomainError("adaptation", "Await", shared.ErrNotFound, "unknown correlation id")
	}

	timer := time.NewTimer(p.awaitTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.adapted, nil
	case <-ctx.Done():
		p.release(correlationID)
		return nil, shared.WrapError("adaptation", "Await", shared.ErrTimeout, "caller cancelled", ctx.Err())
	case <-timer.C:
		p.release(correlationID)
		return nil, shared.ErrAdaptationTimeout
	}
}

// Close stops the pool. Queued tasks are drained before workers exit.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.closeCh)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is one compute unit. A panic during a task is contained by execute,
// so the unit keeps serving the queue afterward. The tasks channel is never
// closed; workers drain what is queued and exit through closeCh, so a Submit
// racing Close can never send on a closed channel.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case t := <-p.tasks:
			p.execute(id, t)
		case <-p.closeCh:
			for {
				select {
				case t := <-p.tasks:
					p.execute(id, t)
				default:
					return
				}
			}
		}
	}
}

// execute runs a single transform and delivers the outcome. A panicking
// transform fails its own request with the worker error and leaves the
// worker alive to take the next task.
func (p *WorkerPool) execute(workerID int, t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("adaptation worker crashed",
				"worker", workerID,
				"correlation_id", t.correlationID,
				"panic", r,
			)
			p.deliver(t.correlationID, outcome{err: shared.ErrAdaptationWorker})
		}
	}()

	adapted := adaptSync(t.item, t.profile)
	p.deliver(t.correlationID, outcome{adapted: adapted})
}

// deliver hands the outcome to the waiting caller, if one is still attached.
func (p *WorkerPool) deliver(correlationID string, res outcome) {
	p.mu.Lock()
	ch, ok := p.pending[correlationID]
	if ok {
		delete(p.pending, correlationID)
	}
	p.mu.Unlock()

	if ok {
		ch <- res
	}
}

// release drops an abandoned correlation-id slot.
func (p *WorkerPool) release(correlationID string) {
	p.mu.Lock()
	delete(p.pending, correlationID)
	p.mu.Unlock()
}

// PendingCount returns the number of in-flight requests. Used in tests and
// leak diagnostics.
func (p *WorkerPool) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
