package taskpool

import (
	"fmt"

	"github.com/example/taskpool/internal/logging"
)

// Resize grows or shrinks the pool to exactly target workers, which must
// lie within the pool's current [min, max] bounds. Concurrent Resize calls
// are serialized by resizeMu, acquired before the pool mutex, so that two
// simultaneous resizes are totally ordered rather than interleaved.
//
// Growing spawns target-threadCount new workers and returns once they have
// been started. Shrinking sets threadCount immediately and returns without
// waiting for the excess workers to actually exit — their exit is
// asynchronous, observed by Stats().ThreadCount dropping right away while
// the physical goroutines wind down over the next task boundary or
// workerWaitTimeout, whichever comes first.
func (p *Pool) Resize(target int) error {
	p.resizeMu.Lock()
	defer p.resizeMu.Unlock()
	return p.resizeLocked(target)
}

func (p *Pool) resizeLocked(target int) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return fmt.Errorf("taskpool: Resize: %w", ErrStateInvalid)
	}
	if target < p.minThreads || target > p.maxThreads {
		p.mu.Unlock()
		return fmt.Errorf("taskpool: Resize: %w: target %d not in [%d, %d]", ErrOutOfRange, target, p.minThreads, p.maxThreads)
	}
	if target == p.threadCount {
		p.mu.Unlock()
		return nil
	}

	if target > p.threadCount {
		grown := make([]*worker, 0, target-p.threadCount)
		for i := p.threadCount; i < target; i++ {
			grown = append(grown, newWorker(p, i))
		}
		p.workers = append(p.workers, grown...)
		p.idleThreads += len(grown)
		p.started += uint64(len(grown))
		p.threadCount = target
		p.mu.Unlock()

		for _, w := range grown {
			p.wg.Add(1)
			go w.run()
		}
		p.logger.Info("pool grown", logging.Field("target", target))
		return nil
	}

	// Shrink: remove the excess (highest-index) workers from the live
	// collection immediately, so the logical invariant (thread_count
	// within bounds, len(workers) == thread_count) holds the instant
	// Resize returns, and close each one's retire channel so it notices
	// on its next loop iteration — bounded by workerWaitTimeout even if
	// it is currently idle and waiting — and transitions to
	// EXITING_RESIZE itself. Their goroutines are joined asynchronously
	// by Destroy's WaitGroup, not by this call.
	excessCount := p.threadCount - target
	retiring := p.workers[len(p.workers)-excessCount:]
	p.workers = p.workers[:len(p.workers)-excessCount]
	p.pendingRetirements += excessCount
	p.resizeShutdown = true
	p.threadCount = target
	for _, w := range retiring {
		close(w.retire)
	}
	p.cond.Broadcast()
	p.mu.Unlock()
	p.logger.Info("pool shrinking", logging.Field("target", target))
	return nil
}

// SetLimits updates the pool's [min, max] bounds. If the current thread
// count falls outside the new bounds, a Resize to the nearest boundary is
// triggered after the pool mutex is released, so SetLimits never holds the
// pool mutex across the potentially slow work of spawning workers.
func (p *Pool) SetLimits(newMin, newMax int) error {
	if newMin < 1 || newMax < newMin {
		return fmt.Errorf("taskpool: SetLimits: %w: min=%d max=%d", ErrArgumentInvalid, newMin, newMax)
	}

	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return fmt.Errorf("taskpool: SetLimits: %w", ErrStateInvalid)
	}
	p.minThreads = newMin
	p.maxThreads = newMax
	current := p.threadCount

	var target int
	needResize := false
	switch {
	case current < newMin:
		target, needResize = newMin, true
	case current > newMax:
		target, needResize = newMax, true
	}
	p.mu.Unlock()

	if needResize {
		return p.Resize(target)
	}
	return nil
}
