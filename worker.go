package taskpool

import (
	"sync"
	"time"

	"github.com/example/taskpool/internal/logging"
)

// worker is one long-lived goroutine consuming tasks from its pool's
// shared queue. Its status and runningTaskName fields are read by
// Stats/RunningTaskNames and written only by the worker itself, while it
// holds the pool's mu. A shrinking resize does not write them: it closes
// the worker's retire channel, and the worker moves itself to
// EXITING_RESIZE.
//
// A worker cannot tell it has been retired by comparing its own index
// against the pool's thread count: resize keeps the worker slice in sync
// with threadCount (len(workers) == threadCount always holds once a
// resize returns), so an old worker's index can collide with a newly
// spawned worker's index if the pool shrinks and grows back before the
// retiring worker has noticed. Each worker therefore gets its own retire
// channel, closed by resize at the moment it is removed from the slice,
// which cannot collide with anything spawned afterward. index remains a
// label only; nothing looks up a slot by it.
type worker struct {
	pool            *Pool
	index           int
	status          workerStatus
	runningTaskName string
	runningTaskID   uint64
	retire          chan struct{}
}

func newWorker(pool *Pool, index int) *worker {
	return &worker{
		pool:            pool,
		index:           index,
		status:          statusIdle,
		runningTaskName: idleSlotName,
		retire:          make(chan struct{}),
	}
}

func (w *worker) retired() bool {
	select {
	case <-w.retire:
		return true
	default:
		return false
	}
}

// run is the worker's main loop: acquire the pool mutex, wait for work or
// a terminal predicate, dequeue and run one task with no pool lock held,
// then loop.
func (w *worker) run() {
	defer w.pool.wg.Done()

	w.pool.mu.Lock()
	for {
		for w.pool.queue.len() == 0 && !w.pool.shutdown && !w.retired() {
			waitWithTimeout(w.pool.cond, workerWaitTimeout)
		}

		// Once shutdown is set no new task is started; whatever is still
		// queued is left for Destroy's drain.
		if w.pool.shutdown {
			w.exit(statusExitingShutdown)
			return
		}
		if w.retired() {
			w.exit(statusExitingResize)
			return
		}

		t := w.pool.queue.dequeueHighest()
		if t == nil {
			// Predicates re-evaluated at top of loop; nothing to do yet.
			continue
		}

		w.status = statusBusy
		w.runningTaskName = t.name
		w.runningTaskID = t.id
		w.pool.idleThreads--
		w.pool.mu.Unlock()

		runTask(w.pool.logger, t)

		w.pool.mu.Lock()
		w.status = statusIdle
		w.runningTaskName = idleSlotName
		w.runningTaskID = 0
		w.pool.idleThreads++
		w.pool.cond.Broadcast()

		if aa := w.pool.autoAdjust; aa != nil {
			aa.notifyLowWatermarkLocked(w.pool.idleThreads, w.pool.threadCount, w.pool.minThreads)
		}

		if w.retired() {
			w.exit(statusExitingResize)
			return
		}
	}
}

// exit marks w as exiting (and then DEAD), decrements idleThreads to undo
// the count it held as an idle (or just-restored-idle) worker, and
// releases the pool mutex. The caller must hold w.pool.mu and must return
// immediately after calling exit.
func (w *worker) exit(reason workerStatus) {
	w.status = reason
	w.pool.idleThreads--
	if reason == statusExitingResize {
		w.pool.pendingRetirements--
		if w.pool.pendingRetirements == 0 {
			w.pool.resizeShutdown = false
		}
	}
	w.status = statusDead
	w.pool.mu.Unlock()
}

// runTask executes t.fn with no pool lock held, recovering a panic so one
// bad task cannot take down its worker goroutine.
func runTask(logger *logging.Logger, t *task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked",
				logging.Field("task_id", t.id),
				logging.Field("name", t.name),
				logging.Field("recovered", r),
			)
		}
	}()
	t.fn(t.arg)
}

// waitWithTimeout calls cond.Wait but returns no later than timeout after
// it was called, even if cond is never signaled. The caller must hold
// cond.L.
//
// sync.Cond has no native timed wait; this composes one from a timer
// goroutine that broadcasts on expiry. The timer is stopped before
// waitWithTimeout returns; if it has already fired, its callback may still
// run afterwards and issue one extra broadcast.
func waitWithTimeout(cond *sync.Cond, timeout time.Duration) {
	timer := time.AfterFunc(timeout, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	defer timer.Stop()

	cond.Wait()
}
