// Package caqtipool implements the generic, bounded, concurrent resource
// pool at the core of a database client library: it manages reusable,
// expensive-to-create resources (typically live database connections) on
// behalf of concurrent callers, enforcing size limits, reuse limits,
// health checks, idle expiry, and priority-ordered fair queueing.
//
// The pool never creates, parses, or speaks to a particular database; it
// is handed a Factory and Destructor (and, optionally, Check and
// Validate callbacks) and manages whatever resource type those produce.
package caqtipool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Factory creates one resource. Called outside the pool's mutex; it may
// suspend (block on ctx, network I/O, etc).
type Factory[R any] func(ctx context.Context) (R, error)

// Destructor releases one resource. Called outside the mutex. A
// Destructor must not fail catastrophically: absorb and log its own
// errors rather than panicking.
type Destructor[R any] func(resource R)

// CheckFunc is an optional asynchronous health probe run before an idle
// resource is repooled. callback must eventually be invoked exactly
// once, synchronously or from another goroutine.
type CheckFunc[R any] func(ctx context.Context, resource R, callback func(ok bool))

// ValidateFunc is an optional synchronous pre-checkout probe run on an
// idle resource before it is handed to a caller.
type ValidateFunc[R any] func(ctx context.Context, resource R) bool

// Params configures a new Pool. Create and Free are required; Check,
// Validate, and Alarm are optional and default to "always healthy",
// "always valid", and TimerAlarm{} respectively.
type Params[R any] struct {
	Config   Config
	Create   Factory[R]
	Free     Destructor[R]
	Check    CheckFunc[R]
	Validate ValidateFunc[R]
	Alarm    Alarm
}

// Stats is a point-in-time snapshot of pool bookkeeping, for dashboards
// and health checks that need more than the bare resource count Size
// reports.
type Stats struct {
	Size                int
	IdleSize            int
	InUse               int
	Waiters             int
	Creates             int64
	Destroys            int64
	Invalidations       int64
	HealthCheckFailures int64
	IdleExpired         int64
}

// Pool is a generic, bounded, concurrent pool of resources of type R. A
// Pool must not be copied after first use.
type Pool[R any] struct {
	id uuid.UUID

	cfg        resolvedConfig
	createFn   Factory[R]
	freeFn     Destructor[R]
	checkFn    CheckFunc[R]
	validateFn ValidateFunc[R]
	alarm      Alarm

	scopeCtx    context.Context
	scopeCancel context.CancelFunc

	mu          sync.Mutex
	curSize     int
	idle        idleQueue[R]
	waiters     waiterQueue
	alarmHandle AlarmHandle
	closed      bool

	freeWG sync.WaitGroup

	creates             int64
	destroys            int64
	invalidations       int64
	healthCheckFailures int64
	idleExpired         int64
}

// New constructs a Pool. ctx is the pool's lifecycle scope: cancelling it
// cancels any pending idle-age alarm automatically. It does not, by
// itself, drain the pool — call Drain for a graceful shutdown.
func New[R any](ctx context.Context, params Params[R]) (*Pool[R], error) {
	if params.Create == nil {
		return nil, fmt.Errorf("%w: Create is required", ErrPoolConfig)
	}
	if params.Free == nil {
		return nil, fmt.Errorf("%w: Free is required", ErrPoolConfig)
	}

	rc, err := resolveConfig(params.Config)
	if err != nil {
		return nil, err
	}

	alarm := params.Alarm
	if alarm == nil {
		alarm = TimerAlarm{}
	}

	scopeCtx, cancel := context.WithCancel(ctx)

	p := &Pool[R]{
		id:          uuid.New(),
		cfg:         rc,
		createFn:    params.Create,
		freeFn:      params.Free,
		checkFn:     params.Check,
		validateFn:  params.Validate,
		alarm:       alarm,
		scopeCtx:    scopeCtx,
		scopeCancel: cancel,
	}

	go p.watchScope()

	return p, nil
}

func (p *Pool[R]) watchScope() {
	<-p.scopeCtx.Done()
	p.mu.Lock()
	if p.alarmHandle != nil {
		p.alarmHandle.Unschedule()
		p.alarmHandle = nil
	}
	p.mu.Unlock()
}

// Size returns the number of resources the pool is presently accountable
// for (idle + in-use + being-created). Advisory: it may be stale the
// instant it returns under concurrent acquisition.
func (p *Pool[R]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.curSize
}

// Stats returns a fuller point-in-time snapshot than Size alone.
func (p *Pool[R]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Size:                p.curSize,
		IdleSize:            p.idle.len(),
		InUse:               p.curSize - p.idle.len(),
		Waiters:             len(p.waiters.h),
		Creates:             p.creates,
		Destroys:            p.destroys,
		Invalidations:       p.invalidations,
		HealthCheckFailures: p.healthCheckFailures,
		IdleExpired:         p.idleExpired,
	}
}

// ID returns this pool's identity, included in its own log lines so
// multiple pools in one process are distinguishable.
func (p *Pool[R]) ID() uuid.UUID { return p.id }

// Use acquires a resource at the default priority (0.0), runs f exactly
// once on it, releases it on every exit path of f, and surfaces f's
// result. If acquisition fails, f is never invoked.
func Use[R, T any](p *Pool[R], f func(R) (T, error)) (T, error) {
	return UseContext(context.Background(), p, f, 0.0)
}

// UseContext is Use with an explicit context (aborting a queued
// acquisition if ctx is done before a slot frees up) and explicit
// priority: a larger priority wakes first, ties break FIFO by arrival
// order.
func UseContext[R, T any](ctx context.Context, p *Pool[R], f func(R) (T, error), priority float64) (result T, err error) {
	e, acqErr := p.acquireEntry(ctx, priority)
	if acqErr != nil {
		var zero T
		return zero, acqErr
	}

	defer func() {
		p.release(e)
	}()

	result, err = f(e.resource)
	return result, err
}

// acquireEntry finds or creates a usable entry: it reuses a validated
// idle entry, creates a fresh one while the pool is under its size
// limit, or else queues the caller as a waiter until a slot frees up.
func (p *Pool[R]) acquireEntry(ctx context.Context, priority float64) (*entry[R], error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrClosed
		}

		if !p.idle.isEmpty() {
			e := p.idle.popFront()
			p.mu.Unlock()

			if p.doValidate(ctx, e.resource) {
				return e, nil
			}

			p.mu.Lock()
			p.invalidations++
			p.mu.Unlock()
			logger.Printf("warning: validator rejected idle resource (pool %s), recreating", p.id)
			// The dropped entry already owned its slot in curSize; realloc
			// without touching curSize again.
			return p.realloc(ctx)
		}

		if p.curSize < p.cfg.maxSize {
			p.curSize++
			p.mu.Unlock()
			return p.realloc(ctx)
		}

		w := p.waiters.push(priority)
		p.mu.Unlock()

		select {
		case <-w.signal:
			// Woken by a release or expiry; re-enter the loop and
			// re-check state. Spurious wakes are tolerated.
		case <-ctx.Done():
			p.mu.Lock()
			p.waiters.remove(w)
			// select can race: w.signal may already be closed even
			// though ctx.Done() was the branch chosen. In that case a
			// freed slot was already earmarked for this waiter and
			// would otherwise be stranded, so pass the wake along to
			// whoever is next in line instead of dropping it.
			select {
			case <-w.signal:
				p.wakeOneLocked()
			default:
			}
			p.mu.Unlock()
			return nil, ctx.Err()
		}
	}
}

// realloc creates one resource. The caller must have already reserved
// its slot in curSize before calling this.
func (p *Pool[R]) realloc(ctx context.Context) (*entry[R], error) {
	r, err := p.createFn(ctx)
	if err != nil {
		p.mu.Lock()
		p.curSize--
		p.wakeOneLocked()
		p.mu.Unlock()
		return nil, fmt.Errorf("caqtipool: create resource: %w", err)
	}

	p.mu.Lock()
	p.creates++
	p.mu.Unlock()

	return newEntry(r, time.Now()), nil
}

// release returns e to the pool: it enforces the idle-size cap and
// use-count limit, runs the optional health check, and either repools
// or destroys the entry.
func (p *Pool[R]) release(e *entry[R]) {
	p.mu.Lock()
	e.usedCount++

	overIdleCap := p.curSize > p.cfg.maxIdleSize
	useLimitHit := p.cfg.maxUseCount > 0 && e.usedCount >= p.cfg.maxUseCount

	if overIdleCap || useLimitHit {
		p.curSize--
		p.wakeOneLocked()
		p.mu.Unlock()
		p.destroy(e.resource)
		return
	}
	p.mu.Unlock()

	ok := p.doCheck(context.Background(), e.resource)

	p.mu.Lock()
	if ok {
		e.usedLatest = time.Now()
		p.idle.pushBack(e)
		p.disposeExpiringLocked()
		p.wakeOneLocked()
		p.mu.Unlock()
		return
	}

	p.curSize--
	p.healthCheckFailures++
	p.wakeOneLocked()
	p.mu.Unlock()

	logger.Printf("warning: health check rejected resource (pool %s), discarding", p.id)
	p.destroy(e.resource)
}

// wakeOneLocked wakes the highest-priority waiter, if any. Must be
// called with p.mu held; exactly one waiter is woken per freed slot.
func (p *Pool[R]) wakeOneLocked() {
	if w := p.waiters.popHighest(); w != nil {
		w.wake()
	}
}

// disposeExpiringLocked destroys idle entries that have aged past
// MaxIdleAge and (re)arms the alarm for whatever is left at the front of
// the idle queue. Must be called with p.mu held.
func (p *Pool[R]) disposeExpiringLocked() {
	if p.cfg.maxIdleAge == 0 {
		if p.alarmHandle != nil {
			p.alarmHandle.Unschedule()
			p.alarmHandle = nil
		}
		return
	}

	for {
		head := p.idle.peekFront()
		if head == nil {
			return
		}

		expiry, ok := head.expiry(p.cfg.maxIdleAge)
		if !ok {
			logger.Printf("warning: idle-age expiry overflowed the monotonic clock range (pool %s); entry will not expire", p.id)
			return
		}

		if !expiry.After(time.Now()) {
			p.idle.popFront()
			p.curSize--
			p.idleExpired++
			p.wakeOneLocked()

			p.freeWG.Add(1)
			go func(r R) {
				defer p.freeWG.Done()
				p.destroy(r)
			}(head.resource)

			continue
		}

		if p.alarmHandle == nil {
			inst := expiry
			p.alarmHandle = p.alarm.Schedule(inst, func() {
				p.mu.Lock()
				p.alarmHandle = nil
				p.disposeExpiringLocked()
				p.mu.Unlock()
			})
		}
		return
	}
}

// destroy calls Free and records the destruction in Stats.
func (p *Pool[R]) destroy(r R) {
	p.mu.Lock()
	p.destroys++
	p.mu.Unlock()
	p.freeFn(r)
}

func (p *Pool[R]) doValidate(ctx context.Context, r R) bool {
	if p.validateFn == nil {
		return true
	}
	return p.validateFn(ctx, r)
}

func (p *Pool[R]) doCheck(ctx context.Context, r R) bool {
	if p.checkFn == nil {
		return true
	}
	result := make(chan bool, 1)
	p.checkFn(ctx, r, func(ok bool) { result <- ok })
	return <-result
}

// Drain requests graceful shutdown: it destroys idle entries, waits out
// in-flight checkouts, and returns once the pool's size reaches 0.
// Callers must not invoke Use/UseContext concurrently with Drain's
// completion. If ctx is done before convergence, Drain returns
// ctx.Err() without leaking the waiter it queued while blocked on
// in-use entries; a subsequent Drain call may be retried.
func (p *Pool[R]) Drain(ctx context.Context) error {
	for {
		p.mu.Lock()
		if p.curSize == 0 {
			if p.alarmHandle != nil {
				p.alarmHandle.Unschedule()
				p.alarmHandle = nil
			}
			p.closed = true
			p.mu.Unlock()
			p.freeWG.Wait()
			p.scopeCancel()
			return nil
		}

		if !p.idle.isEmpty() {
			e := p.idle.popFront()
			p.curSize--
			p.mu.Unlock()
			p.destroy(e.resource)
			continue
		}

		w := p.waiters.push(0.0)
		p.mu.Unlock()

		select {
		case <-w.signal:
			continue
		case <-ctx.Done():
			p.mu.Lock()
			p.waiters.remove(w)
			p.mu.Unlock()
			return ctx.Err()
		}
	}
}
