package taskpool

// Stats is a consistent snapshot of pool-wide counters taken under the
// pool mutex. It may be stale the instant the call returns.
type Stats struct {
	ThreadCount int
	MinThreads  int
	MaxThreads  int
	IdleThreads int
	QueueSize   int
	Started     uint64

	// Contracting is true while one or more workers evicted by a Resize
	// shrink are still winding down: ThreadCount and len(workers) have
	// already dropped, but the evicted goroutines have not all exited yet.
	Contracting bool
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		ThreadCount: p.threadCount,
		MinThreads:  p.minThreads,
		MaxThreads:  p.maxThreads,
		IdleThreads: p.idleThreads,
		QueueSize:   p.queue.len(),
		Started:     p.started,
		Contracting: p.resizeShutdown,
	}
}

// RunningTaskNames returns one name per worker slot in [0, ThreadCount):
// the name of the task that worker is currently running, or "[idle]" if
// it has none. The slice is a copy; the caller owns it.
func (p *Pool) RunningTaskNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.workers))
	for _, w := range p.workers {
		names = append(names, w.runningTaskName)
	}
	return names
}
