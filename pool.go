// Package taskpool implements a priority-ordered, dynamically resizable
// worker pool. Producers submit opaque units of work; a bounded set of
// worker goroutines dequeues and runs them concurrently. The pool supports
// manual and load-driven resizing, per-worker introspection, and
// lifecycle-aware shutdown.
//
// The core synchronization model follows a condition-variable design rather
// than a buffered-channel pool: a single mutex (mu) and condition
// variable (cond) protect the task queue, the worker slots, and the
// pool-wide counters, so that Stats and RunningTaskNames can return a
// consistent snapshot and so cancellation can unlink a specific queued task
// by id or name. A second mutex (resizeMu) serializes concurrent Resize
// calls without holding mu across the (potentially slow) work of
// spawning or stopping workers.
package taskpool

import (
	"fmt"
	"sync"
	"time"

	"github.com/example/taskpool/internal/logging"
)

// workerWaitTimeout bounds every worker's wait on the pool condition
// variable, so a worker re-evaluates its shutdown/resize predicate even
// if a signal never reaches it.
const workerWaitTimeout = 1 * time.Second

// idleSlotName is the running-task-name slot value for a worker that is
// not currently executing a task.
const idleSlotName = "[idle]"

// destroyJoinDeadline bounds how long Destroy waits for workers and the
// auto-adjust controller to actually terminate before giving up and
// returning anyway.
const destroyJoinDeadline = 10 * time.Second

// Config configures a new Pool. A field left at its zero value takes the
// default noted on it.
type Config struct {
	// InitialCount is the number of workers spawned by New. Must be >= 1.
	InitialCount int

	// MinThreads is the lower bound Resize/SetLimits will honor.
	// Default: 1.
	MinThreads int

	// MaxThreads is the upper bound Resize/SetLimits will honor.
	// Default: 2 * InitialCount.
	MaxThreads int

	// Name identifies this pool in log lines. Default: "pool".
	Name string

	// Logger receives structured log lines tagged with Name. Default: a
	// no-op logger.
	Logger *logging.Logger
}

type workerStatus int

const (
	statusIdle workerStatus = iota
	statusBusy
	statusExitingShutdown
	statusExitingResize
	statusDead
)

func (s workerStatus) String() string {
	switch s {
	case statusIdle:
		return "IDLE"
	case statusBusy:
		return "BUSY"
	case statusExitingShutdown:
		return "EXITING_SHUTDOWN"
	case statusExitingResize:
		return "EXITING_RESIZE"
	case statusDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// Pool is a bounded set of worker goroutines consuming a shared,
// priority-ordered task queue. The zero value is not usable; construct one
// with New.
type Pool struct {
	name   string
	logger *logging.Logger

	mu   sync.Mutex
	cond *sync.Cond

	queue *taskQueue

	workers     []*worker
	threadCount int
	minThreads  int
	maxThreads  int
	idleThreads int
	started     uint64

	shutdown bool
	// resizeShutdown is true while pendingRetirements > 0, i.e. some
	// worker evicted by a shrink hasn't exited its goroutine yet. Exposed
	// via Stats.Contracting.
	resizeShutdown     bool
	pendingRetirements int

	nextTaskID uint64

	resizeMu sync.Mutex

	autoAdjust *autoAdjustController

	wg sync.WaitGroup

	destroyMu   sync.Mutex
	destroyed   bool
	destroying  bool
	destroyDone chan struct{}
}

// New creates a pool with cfg.InitialCount workers already running.
// Starting a worker is just a goroutine launch, which cannot fail, so New
// has no partial-startup rollback path to speak of.
func New(cfg Config) (*Pool, error) {
	if cfg.InitialCount < 1 {
		return nil, fmt.Errorf("taskpool: New: %w: InitialCount must be >= 1, got %d", ErrArgumentInvalid, cfg.InitialCount)
	}

	minThreads := cfg.MinThreads
	if minThreads <= 0 {
		minThreads = 1
	}
	maxThreads := cfg.MaxThreads
	if maxThreads <= 0 {
		maxThreads = 2 * cfg.InitialCount
	}
	if maxThreads < minThreads {
		return nil, fmt.Errorf("taskpool: New: %w: maxThreads %d < minThreads %d", ErrArgumentInvalid, maxThreads, minThreads)
	}
	if cfg.InitialCount > maxThreads {
		maxThreads = cfg.InitialCount
	}

	name := cfg.Name
	if name == "" {
		name = "pool"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With(logging.Field("pool", name))

	p := &Pool{
		name:        name,
		logger:      logger,
		queue:       newTaskQueue(),
		minThreads:  minThreads,
		maxThreads:  maxThreads,
		threadCount: cfg.InitialCount,
	}
	p.cond = sync.NewCond(&p.mu)

	p.mu.Lock()
	spawned := make([]*worker, 0, cfg.InitialCount)
	for i := 0; i < cfg.InitialCount; i++ {
		spawned = append(spawned, newWorker(p, i))
		p.idleThreads++
		p.started++
	}
	p.workers = spawned
	p.mu.Unlock()

	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run()
	}

	logger.Info("pool created", logging.Field("workers", cfg.InitialCount), logging.Field("min", minThreads), logging.Field("max", maxThreads))
	return p, nil
}

// Submit enqueues fn to run with argument arg under the given name and
// priority. If name is empty, a name of the form "unnamed_task_<id>" is
// synthesized. Names longer than 63 bytes are truncated.
//
// Submit returns the assigned task id, or ErrStateInvalid if the pool has
// begun shutdown.
func (p *Pool) Submit(fn Func, arg any, name string, priority Priority) (uint64, error) {
	if fn == nil {
		return 0, fmt.Errorf("taskpool: Submit: %w: fn must not be nil", ErrArgumentInvalid)
	}

	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return 0, fmt.Errorf("taskpool: Submit: %w", ErrStateInvalid)
	}

	p.nextTaskID++
	id := p.nextTaskID

	taskName := truncateName(name)
	if taskName == "" {
		taskName = synthesizeName(id)
	}

	t := &task{id: id, fn: fn, arg: arg, name: taskName, priority: priority}
	p.queue.enqueue(t)
	queueSize := p.queue.len()
	threadCount := p.threadCount
	maxThreads := p.maxThreads
	p.cond.Signal()
	p.mu.Unlock()

	p.logger.Debug("task submitted", logging.Field("task_id", id), logging.Field("name", taskName), logging.Field("priority", priority.String()))

	if aa := p.autoAdjust; aa != nil {
		aa.notifyHighWatermark(queueSize, threadCount, maxThreads)
	}

	return id, nil
}

// SubmitDefault submits fn/arg/name at NORMAL priority.
func (p *Pool) SubmitDefault(fn Func, arg any, name string) (uint64, error) {
	return p.Submit(fn, arg, name, NORMAL)
}

// Destroy disables auto-adjust, signals shutdown, waits for every worker
// to exit (up to a bounded deadline, after which it proceeds anyway), and
// drains the queue. If drain is non-nil, it is invoked once for each
// task still queued at drain time.
//
// A second call to Destroy returns ErrAlreadyDestroyed. A concurrent call
// made while another goroutine's Destroy is in flight blocks until that
// call finishes and then returns nil.
func (p *Pool) Destroy(drain ...CancelFunc) error {
	var fn CancelFunc
	if len(drain) > 0 {
		fn = drain[0]
	}

	p.destroyMu.Lock()
	if p.destroyed {
		p.destroyMu.Unlock()
		return ErrAlreadyDestroyed
	}
	if p.destroying {
		done := p.destroyDone
		p.destroyMu.Unlock()
		<-done
		return nil
	}
	p.destroying = true
	p.destroyDone = make(chan struct{})
	p.destroyMu.Unlock()

	if p.autoAdjust != nil {
		p.autoAdjust.disable()
	}

	p.mu.Lock()
	p.shutdown = true
	p.cond.Broadcast()
	p.mu.Unlock()

	// Defend against a race with workers transitioning into their wait
	// just as shutdown was set: a brief sleep then a second broadcast.
	time.Sleep(5 * time.Millisecond)
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()

	p.joinWithDeadline(destroyJoinDeadline)

	p.mu.Lock()
	p.queue.drain(fn)
	p.mu.Unlock()

	p.logger.Info("pool destroyed")

	p.destroyMu.Lock()
	p.destroyed = true
	p.destroying = false
	close(p.destroyDone)
	p.destroyMu.Unlock()

	return nil
}

// joinWithDeadline waits for every worker goroutine to return, logging and
// giving up (but not panicking) if the deadline elapses first. A worker
// stuck inside user code past the deadline is logged and Destroy proceeds
// without it.
func (p *Pool) joinWithDeadline(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		p.logger.Error("timed out waiting for workers to exit during destroy", logging.Field("timeout", timeout.String()))
	}
}
