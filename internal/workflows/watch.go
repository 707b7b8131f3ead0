package workflows

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

// WatchOptions configures the watch workflow.
type WatchOptions struct {
	LoginOptions

	// OnLogin is called once the device is synced, before watching starts.
	OnLogin func(*LoginResult)
}

// Watch logs in, waits for the account key and then keeps the convergence
// task running until ctx is cancelled. It returns nil on cancellation and
// the task error if the device registration becomes invalid.
func Watch(ctx context.Context, opts WatchOptions) error {
	opts.Wait = true
	s, result, err := login(ctx, opts.LoginOptions)
	if err != nil {
		return err
	}
	defer s.close()

	if opts.OnLogin != nil {
		opts.OnLogin(result)
	}

	task, err := s.Coordinator.StartConvergence(ctx)
	if err != nil && !errors.Is(err, kerrors.ErrConvergenceRunning) {
		return fmt.Errorf("failed to start convergence: %w", err)
	}

	select {
	case <-ctx.Done():
		task.Stop()
		return nil
	case <-task.Done():
		if err := task.Err(); err != nil {
			return fmt.Errorf("convergence stopped: %w", err)
		}
		return nil
	}
}
