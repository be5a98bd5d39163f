package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NoDeadline makes ShutdownWithDeadline wait for the shutdown to finish.
const NoDeadline time.Duration = 0

// ShutdownWithDeadline runs Shutdown on a separate goroutine so the
// backends' blocking flush I/O never stalls the caller, and waits for it
// for at most timeout. A timeout <= 0 waits until it finishes.
//
// If the shutdown finishes first its result is returned unchanged. If the
// timer fires first ErrShutdownTimeout is returned; if ctx is done first an
// error wrapping ErrShutdownAbandoned and the context's cause is returned.
// In both cases the shutdown is NOT cancelled: it keeps running in the
// background with a context detached from ctx's cancellation. Its eventual
// outcome is logged and Done reports when it has finished. If the worker
// panics the result is a *WorkerError.
func (m *Manager) ShutdownWithDeadline(ctx context.Context, timeout time.Duration) error {
	m.state.Store(int32(StateAwaitingDeadline))

	race := &shutdownRace{result: make(chan error, 1)}
	done := make(chan struct{})
	m.mu.Lock()
	m.done = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		race.finish(m, m.runWorker(context.WithoutCancel(ctx)))
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case err := <-race.result:
		return err
	case <-timer:
		return m.giveUp(race, outcomeTimeout, ErrShutdownTimeout)
	case <-ctx.Done():
		return m.giveUp(race, outcomeAbandoned, fmt.Errorf("%w: %w", ErrShutdownAbandoned, context.Cause(ctx)))
	}
}

// Done returns a channel closed once the most recent ShutdownWithDeadline
// worker has finished. It is already closed if none was started.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return m.done
}

// runWorker runs the coordinator and turns a panic into a *WorkerError.
func (m *Manager) runWorker(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.state.Store(int32(StateShutdownFailed))
			err = &WorkerError{Value: r}
		}
	}()
	return m.shutdownAll(ctx, pathDeadline)
}

// giveUp marks the race as abandoned unless the worker already delivered,
// in which case the worker's result wins.
func (m *Manager) giveUp(race *shutdownRace, outcome string, giveUpErr error) error {
	race.mu.Lock()
	defer race.mu.Unlock()

	select {
	case err := <-race.result:
		return err
	default:
	}

	race.abandoned = true
	m.state.CompareAndSwap(int32(StateAwaitingDeadline), int32(StateTimedOut))
	m.metrics.recordOutcome(pathDeadline, outcome)
	if outcome == outcomeTimeout {
		m.logger.Warn("telemetry shutdown deadline exceeded, shutdown continues in background")
	} else {
		m.logger.Warn("telemetry shutdown abandoned by caller, shutdown continues in background",
			zap.Error(giveUpErr))
	}
	return giveUpErr
}

// shutdownRace hands the worker's result to the caller, or to the log when
// the caller has already given up.
type shutdownRace struct {
	mu        sync.Mutex
	abandoned bool
	result    chan error // buffered, the worker never blocks
}

func (r *shutdownRace) finish(m *Manager, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.abandoned {
		m.metrics.recordOutcome(pathDeadline, outcomeOf(err))
		r.result <- err
		return
	}

	m.metrics.recordOutcome(pathBackground, outcomeOf(err))

	if err != nil {
		m.logger.Warn("background telemetry shutdown finished with errors", zap.Error(err))
		return
	}
	m.logger.Info("background telemetry shutdown finished")
}
