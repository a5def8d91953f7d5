package taskpool

import "fmt"

// Position reports where a looked-up task currently sits.
type Position int

const (
	// PositionNone means no task matched the lookup.
	PositionNone Position = iota
	// PositionQueued means the task is still waiting in the queue.
	PositionQueued
	// PositionRunning means the task is currently executing on a worker.
	PositionRunning
)

// FindByName scans the queue and the currently running tasks for name,
// first match wins, queue order first. It returns the task's id and
// whether it is queued or running; if nothing matches, taskID is 0 and
// position is PositionNone.
func (p *Pool) FindByName(name string) (taskID uint64, position Position) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t := p.queue.findByName(name); t != nil {
		return t.id, PositionQueued
	}
	for _, w := range p.workers {
		if w.status == statusBusy && w.runningTaskName == name {
			return w.runningTaskID, PositionRunning
		}
	}
	return 0, PositionNone
}

// CancelByID cancels the queued task identified by taskID. If cb is
// supplied, it is invoked with the task's id, name, and argument before
// CancelByID returns.
//
// Returns ErrNotFound if no task with that id is queued, or
// ErrRunningNotCancellable if it has already been dispatched to a worker:
// running tasks cannot be cancelled, only awaited to completion.
func (p *Pool) CancelByID(taskID uint64, cb ...CancelFunc) error {
	return p.cancel(func(q *taskQueue) *task { return q.findByID(taskID) },
		func(w *worker) bool { return w.status == statusBusy && w.runningTaskID == taskID },
		cb...)
}

// CancelByName cancels the queued task identified by name. Same outcomes
// as CancelByID.
func (p *Pool) CancelByName(name string, cb ...CancelFunc) error {
	return p.cancel(func(q *taskQueue) *task { return q.findByName(name) },
		func(w *worker) bool { return w.status == statusBusy && w.runningTaskName == name },
		cb...)
}

func (p *Pool) cancel(findQueued func(*taskQueue) *task, isRunning func(*worker) bool, cb ...CancelFunc) error {
	var fn CancelFunc
	if len(cb) > 0 {
		fn = cb[0]
	}

	p.mu.Lock()
	t := findQueued(p.queue)
	if t != nil {
		p.queue.cancel(t)
		p.mu.Unlock()
		if fn != nil {
			fn(t.id, t.name, t.arg)
		}
		return nil
	}

	for _, w := range p.workers {
		if isRunning(w) {
			p.mu.Unlock()
			return fmt.Errorf("taskpool: cancel: %w", ErrRunningNotCancellable)
		}
	}
	p.mu.Unlock()
	return fmt.Errorf("taskpool: cancel: %w", ErrNotFound)
}
