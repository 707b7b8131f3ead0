package keysync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	"github.com/PolarWolf314/kanuka-notes/internal/secrets"
)

// TickResult describes one convergence tick.
type TickResult struct {
	// Skipped is set when another tick was still in flight.
	Skipped bool
	// Uploaded is the number of devices served by this tick.
	Uploaded int
}

// ConvergenceTick wraps the account key for every registered device that
// has no wrapped copy yet and uploads the copies in one batch. It never
// overlaps with another tick of the same Coordinator; a call made while one
// is running returns immediately with Skipped set.
func (c *Coordinator) ConvergenceTick(ctx context.Context) (TickResult, error) {
	if !c.ticking.CompareAndSwap(false, true) {
		return TickResult{Skipped: true}, nil
	}
	defer c.ticking.Store(false)

	if err := ctx.Err(); err != nil {
		return TickResult{}, err
	}
	symKey := c.symmetricKey()
	if symKey == nil {
		return TickResult{}, kerrors.ErrNoSymmetricKey
	}
	defer secrets.Wipe(symKey)

	unsynced, err := c.backend.GetUnsyncedPublicKeys(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("failed to list unsynced devices: %w", err)
	}
	if len(unsynced) == 0 {
		return TickResult{}, nil
	}

	batch := make([]backend.WrappedKey, 0, len(unsynced))
	for _, exported := range unsynced {
		publicKey, err := secrets.ImportPublicKeyBase64(exported)
		if err != nil {
			c.log.Warnf("Skipping device with unusable public key %s: %v", secrets.Fingerprint(exported), err)
			continue
		}
		wrapped, err := secrets.WrapSymmetricKey(symKey, publicKey)
		if err != nil {
			c.log.Warnf("Failed to wrap account key for %s: %v", secrets.Fingerprint(exported), err)
			continue
		}
		batch = append(batch, backend.WrappedKey{PublicKey: exported, WrappedKey: wrapped})
	}
	if len(batch) == 0 {
		return TickResult{}, nil
	}

	if err := c.backend.UploadEncryptedSymmetricKeys(ctx, batch); err != nil {
		return TickResult{}, fmt.Errorf("failed to upload wrapped keys: %w", err)
	}
	c.log.Infof("Shared the account key with %d device(s)", len(batch))
	return TickResult{Uploaded: len(batch)}, nil
}

// ConvergenceTask is a running convergence loop. It ends when Stop is
// called, when its context is done, or when a tick reports that this
// device's registration is no longer valid.
type ConvergenceTask struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Stop cancels the task and waits for it to exit. No tick starts after Stop
// returns. Stop may be called more than once.
func (t *ConvergenceTask) Stop() {
	t.cancel()
	<-t.done
}

// Done is closed when the task has exited.
func (t *ConvergenceTask) Done() <-chan struct{} {
	return t.done
}

// Err returns the fatal error that ended the task, if any.
func (t *ConvergenceTask) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *ConvergenceTask) running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// StartConvergence starts the convergence loop for a synced session. The
// task runs until Stop, Logout, or cancellation of ctx.
func (c *Coordinator) StartConvergence(ctx context.Context) (*ConvergenceTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.state != StateSynced || c.sess.symKey == nil {
		return nil, kerrors.ErrNotSynced
	}
	if c.task != nil && c.task.running() {
		return c.task, kerrors.ErrConvergenceRunning
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &ConvergenceTask{cancel: cancel, done: make(chan struct{})}
	c.task = task
	go c.runConvergence(taskCtx, task)
	c.log.Debugf("Convergence task started, interval %s", c.interval)
	return task, nil
}

// Convergence returns the running convergence task, or nil.
func (c *Coordinator) Convergence() *ConvergenceTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task == nil || !c.task.running() {
		return nil
	}
	return c.task
}

func (c *Coordinator) runConvergence(ctx context.Context, task *ConvergenceTask) {
	defer close(task.done)
	defer task.cancel()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// Stop may race with the ticker; never start a tick after it.
		if ctx.Err() != nil {
			return
		}

		_, err := c.ConvergenceTick(ctx)
		if err == nil || ctx.Err() != nil {
			continue
		}
		if de, ok := kerrors.AsDeviceError(err); ok && de.Fatal() {
			c.log.WarnfAlways("Stopping key distribution: %v", err)
			task.mu.Lock()
			task.err = err
			task.mu.Unlock()
			return
		}
		c.log.Warnf("Convergence tick failed, retrying in %s: %v", c.interval, err)
	}
}
