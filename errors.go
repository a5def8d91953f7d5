package taskpool

import "errors"

// Sentinel errors returned by pool operations. Each corresponds to one of
// the error kinds named in the package's design notes: ArgumentInvalid,
// StateInvalid, OutOfRange, SpawnFailed, NotFound, RunningNotCancellable.
//
// Callers should compare with errors.Is, since operations wrap these with
// additional context via fmt.Errorf("taskpool: ...: %w", ...).
var (
	// ErrArgumentInvalid is returned for a nil function, an out-of-range
	// count, or a malformed watermark/bound.
	ErrArgumentInvalid = errors.New("taskpool: invalid argument")

	// ErrStateInvalid is returned for an operation attempted against a
	// pool that has begun or completed shutdown.
	ErrStateInvalid = errors.New("taskpool: pool is shut down")

	// ErrOutOfRange is returned when a resize target falls outside the
	// pool's current [min, max] bounds.
	ErrOutOfRange = errors.New("taskpool: target out of range")

	// ErrSpawnFailed exists for parity with the package's full error
	// taxonomy but is never returned: starting a worker is a goroutine
	// launch, which has no failure mode for New or Resize to report.
	ErrSpawnFailed = errors.New("taskpool: spawn failed")

	// ErrNotFound is returned when CancelByID or CancelByName does not
	// match any queued or running task. FindByName reports a miss as id 0
	// and PositionNone instead.
	ErrNotFound = errors.New("taskpool: task not found")

	// ErrRunningNotCancellable is returned when the target of a cancel
	// request has already been dispatched to a worker.
	ErrRunningNotCancellable = errors.New("taskpool: task is already running")

	// ErrAlreadyDestroyed is returned by a second Destroy call on the
	// same pool.
	ErrAlreadyDestroyed = errors.New("taskpool: pool already destroyed")
)
