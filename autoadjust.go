package taskpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/taskpool/internal/logging"
)

// autoAdjustController periodically inspects the pool's queue depth and
// idle count and resizes it to match load.
//
// The controller keeps a dedicated lifecycle mutex (guarding
// start/stop/param updates) but has no condition variable of its own.
// The watermark-crossing notifications from Submit and from a worker
// finishing a task (see worker.go's notifyLowWatermarkLocked) happen
// while the caller may already be holding the pool mutex, and acquiring
// a second mutex at that point would risk a lock-order inversion against
// any path that takes the two in the opposite order. A buffered wake
// channel needs no such ordering, so the watermark thresholds themselves
// are also kept in atomics rather than behind the lifecycle mutex, making
// the hot-path notifications entirely lock-free from the pool's
// perspective.
type autoAdjustController struct {
	pool *Pool

	lifecycleMu sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}

	wake chan struct{}

	enabled       atomic.Bool
	highWatermark atomic.Int64
	lowWatermark  atomic.Int64
	intervalNanos atomic.Int64
}

func newAutoAdjustController(p *Pool) *autoAdjustController {
	return &autoAdjustController{
		pool: p,
		wake: make(chan struct{}, 1),
	}
}

// EnableAutoAdjust starts (or reconfigures) the auto-adjust controller.
// highWatermark is the queue size above which the pool grows; lowWatermark
// is the idle count above which the pool shrinks; interval is how often
// the controller re-evaluates even absent a watermark crossing.
func (p *Pool) EnableAutoAdjust(highWatermark, lowWatermark int, interval time.Duration) error {
	if highWatermark <= 0 || lowWatermark < 0 || interval <= 0 {
		return fmt.Errorf("taskpool: EnableAutoAdjust: %w: highWatermark=%d lowWatermark=%d interval=%v",
			ErrArgumentInvalid, highWatermark, lowWatermark, interval)
	}

	p.mu.Lock()
	shutdown := p.shutdown
	if p.autoAdjust == nil {
		p.autoAdjust = newAutoAdjustController(p)
	}
	p.mu.Unlock()
	if shutdown {
		return fmt.Errorf("taskpool: EnableAutoAdjust: %w", ErrStateInvalid)
	}

	aa := p.autoAdjust
	aa.highWatermark.Store(int64(highWatermark))
	aa.lowWatermark.Store(int64(lowWatermark))
	aa.intervalNanos.Store(int64(interval))

	aa.lifecycleMu.Lock()
	defer aa.lifecycleMu.Unlock()
	if aa.running {
		aa.enabled.Store(true)
		select {
		case aa.wake <- struct{}{}:
		default:
		}
		return nil
	}

	aa.running = true
	aa.enabled.Store(true)
	aa.stopCh = make(chan struct{})
	aa.doneCh = make(chan struct{})
	go aa.loop(aa.stopCh, aa.doneCh)

	p.logger.Info("auto-adjust enabled",
		logging.Field("high_watermark", highWatermark),
		logging.Field("low_watermark", lowWatermark),
		logging.Field("interval", interval.String()),
	)
	return nil
}

// DisableAutoAdjust stops the controller and joins its goroutine. It is a
// no-op if auto-adjust was never enabled.
func (p *Pool) DisableAutoAdjust() error {
	if p.autoAdjust == nil {
		return nil
	}
	p.autoAdjust.disable()
	p.logger.Info("auto-adjust disabled")
	return nil
}

func (aa *autoAdjustController) disable() {
	aa.lifecycleMu.Lock()
	if !aa.running {
		aa.lifecycleMu.Unlock()
		return
	}
	aa.running = false
	aa.enabled.Store(false)
	stopCh := aa.stopCh
	doneCh := aa.doneCh
	aa.lifecycleMu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
	case <-time.After(destroyJoinDeadline):
		aa.pool.logger.Error("timed out waiting for auto-adjust controller to exit")
	}
}

func (aa *autoAdjustController) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		interval := time.Duration(aa.intervalNanos.Load())
		if interval <= 0 {
			interval = time.Second
		}
		timer := time.NewTimer(interval)

		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-aa.wake:
			timer.Stop()
		case <-timer.C:
		}

		if !aa.enabled.Load() {
			return
		}

		aa.tick()
	}
}

// tick evaluates the current watermark logic and triggers at most one
// resize. The pool mutex is released before Resize is called, so the
// controller never holds it across the resize engine's own (separately
// serialized) critical sections.
func (aa *autoAdjustController) tick() {
	p := aa.pool

	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	queueSize := p.queue.len()
	threadCount := p.threadCount
	idleThreads := p.idleThreads
	minThreads := p.minThreads
	maxThreads := p.maxThreads
	p.mu.Unlock()

	highWM := int(aa.highWatermark.Load())
	lowWM := int(aa.lowWatermark.Load())

	target := threadCount
	switch {
	case queueSize > highWM && threadCount < maxThreads:
		target = threadCount + 1
	case idleThreads > lowWM && threadCount > minThreads:
		target = threadCount - 1
	}

	if target == threadCount {
		return
	}
	if err := p.Resize(target); err != nil {
		p.logger.Error("auto-adjust resize failed", logging.Field("target", target), logging.Field("error", err.Error()))
	}
}

// notifyHighWatermark wakes the controller early if the queue just crossed
// the high watermark with room left to grow. Called from Submit after the
// pool mutex has already been released.
func (aa *autoAdjustController) notifyHighWatermark(queueSize, threadCount, maxThreads int) {
	if aa == nil || !aa.enabled.Load() {
		return
	}
	if queueSize > int(aa.highWatermark.Load()) && threadCount < maxThreads {
		select {
		case aa.wake <- struct{}{}:
		default:
		}
	}
}

// notifyLowWatermarkLocked wakes the controller early if idle count just
// crossed the low watermark with room left to shrink. Called from a
// worker's loop while the pool mutex is still held, so it must not acquire
// any lock of its own beyond the lock-free channel send.
func (aa *autoAdjustController) notifyLowWatermarkLocked(idleThreads, threadCount, minThreads int) {
	if aa == nil || !aa.enabled.Load() {
		return
	}
	if idleThreads > int(aa.lowWatermark.Load()) && threadCount > minThreads {
		select {
		case aa.wake <- struct{}{}:
		default:
		}
	}
}
