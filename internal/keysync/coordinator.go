package keysync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/PolarWolf314/kanuka-notes/internal/secrets"
)

// DefaultInterval is the period of the convergence task.
const DefaultInterval = 5 * time.Second

type Options struct {
	// Interval overrides DefaultInterval when positive.
	Interval time.Duration
	Log      logger.Logger
}

// session is the mutable key material of one logged-in device.
type session struct {
	state     State
	alias     string
	pair      *secrets.KeyPair
	publicKey string
	symKey    []byte

	// bootstrapped is set when this session created the account key.
	bootstrapped bool
}

// Coordinator runs the key synchronization protocol for one device. Its
// methods are safe for concurrent use; network calls are made without
// holding the session lock.
type Coordinator struct {
	keys     *secrets.DeviceKeyManager
	backend  backend.KeyDistribution
	log      logger.Logger
	interval time.Duration

	mu   sync.Mutex
	sess session
	task *ConvergenceTask

	// ticking guards convergence ticks against overlap.
	ticking atomic.Bool
}

func New(keys *secrets.DeviceKeyManager, svc backend.KeyDistribution, opts Options) *Coordinator {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coordinator{
		keys:     keys,
		backend:  svc,
		log:      opts.Log,
		interval: interval,
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.state
}

// Alias returns the device alias registered by the last Initialize.
func (c *Coordinator) Alias() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.alias
}

// PublicKey returns this device's exported public key, or "" before Initialize.
func (c *Coordinator) PublicKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.publicKey
}

// Bootstrapped reports whether the last Initialize created the account key
// rather than fetching it.
func (c *Coordinator) Bootstrapped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.bootstrapped
}

func (c *Coordinator) Interval() time.Duration {
	return c.interval
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	prev := c.sess.state
	c.sess.state = s
	c.mu.Unlock()
	if prev != s {
		c.log.Debugf("Key sync state %s -> %s", prev, s)
	}
}

// Initialize registers the device and obtains the account key, either by
// bootstrapping a new one or by fetching the copy wrapped for this device.
// It returns StateWaiting with a nil error if the key exists but has not been
// served to this device yet. A successful bootstrap starts the convergence
// task, bound to ctx.
//
// On failure the session returns to StateAnonymous and the error wraps the
// backend's kerrors.DeviceError where there is one.
func (c *Coordinator) Initialize(ctx context.Context) (State, error) {
	c.mu.Lock()
	switch {
	case c.sess.state == StateSynced:
		c.mu.Unlock()
		return StateSynced, nil
	case c.sess.state == StateWaiting:
		c.mu.Unlock()
		state, err := c.fetch(ctx)
		if err != nil {
			c.reset()
		}
		return state, err
	case c.sess.state.inFlight():
		state := c.sess.state
		c.mu.Unlock()
		return state, kerrors.ErrInitializing
	}
	c.sess.state = StateRegistering
	c.mu.Unlock()

	state, err := c.initialize(ctx)
	if err != nil {
		c.reset()
		return StateAnonymous, err
	}
	return state, nil
}

func (c *Coordinator) initialize(ctx context.Context) (State, error) {
	pair, err := c.keys.EnsureKeyPair()
	if err != nil {
		return StateAnonymous, fmt.Errorf("failed to load device key pair: %w", err)
	}
	alias, err := c.keys.DeviceAlias()
	if err != nil {
		return StateAnonymous, err
	}
	publicKey, err := secrets.ExportPublicKeyBase64(pair.Public)
	if err != nil {
		return StateAnonymous, err
	}

	c.mu.Lock()
	c.sess.alias = alias
	c.sess.pair = pair
	c.sess.publicKey = publicKey
	c.mu.Unlock()

	c.log.Debugf("Registering device %s", alias)
	if err := c.backend.RegisterDevice(ctx, alias, publicKey); err != nil {
		return StateAnonymous, fmt.Errorf("failed to register device: %w", err)
	}

	registered, err := c.backend.IsEncryptedSymmetricKeyRegistered(ctx)
	if err != nil {
		return StateAnonymous, fmt.Errorf("failed to check for an account key: %w", err)
	}
	if registered {
		return c.fetch(ctx)
	}
	return c.bootstrap(ctx)
}

// Resume restores the session of an already registered device from its
// stored key pair. Unlike Initialize it never generates keys, registers the
// device or creates an account key: a device the backend has not shared the
// key with ends in StateWaiting, and one the backend does not know fails
// with the backend's kerrors.DeviceError.
func (c *Coordinator) Resume(ctx context.Context) (State, error) {
	c.mu.Lock()
	switch {
	case c.sess.state == StateSynced:
		c.mu.Unlock()
		return StateSynced, nil
	case c.sess.state == StateWaiting:
		c.mu.Unlock()
		state, err := c.fetch(ctx)
		if err != nil {
			c.reset()
		}
		return state, err
	case c.sess.state.inFlight():
		state := c.sess.state
		c.mu.Unlock()
		return state, kerrors.ErrInitializing
	}
	c.sess.state = StateFetching
	c.mu.Unlock()

	state, err := c.resume(ctx)
	if err != nil {
		c.reset()
		return StateAnonymous, err
	}
	return state, nil
}

func (c *Coordinator) resume(ctx context.Context) (State, error) {
	pair, err := c.keys.LoadKeyPair()
	if err != nil {
		return StateAnonymous, fmt.Errorf("failed to load device key pair: %w", err)
	}
	alias, err := c.keys.Aliases.Alias()
	if err != nil {
		return StateAnonymous, fmt.Errorf("failed to load device alias: %w", err)
	}
	publicKey, err := secrets.ExportPublicKeyBase64(pair.Public)
	if err != nil {
		return StateAnonymous, err
	}

	c.mu.Lock()
	c.sess.alias = alias
	c.sess.pair = pair
	c.sess.publicKey = publicKey
	c.mu.Unlock()

	return c.fetch(ctx)
}

func (c *Coordinator) bootstrap(ctx context.Context) (State, error) {
	c.setState(StateBootstrapping)

	c.mu.Lock()
	pair, publicKey := c.sess.pair, c.sess.publicKey
	c.mu.Unlock()

	symKey, err := secrets.CreateSymmetricKey()
	if err != nil {
		return StateAnonymous, fmt.Errorf("failed to generate account key: %w", err)
	}
	wrapped, err := secrets.WrapSymmetricKey(symKey, pair.Public)
	if err != nil {
		secrets.Wipe(symKey)
		return StateAnonymous, err
	}

	err = c.backend.RegisterEncryptedSymmetricKey(ctx, publicKey, wrapped)
	if de, ok := kerrors.AsDeviceError(err); ok {
		switch de {
		case kerrors.ErrAlreadyRegistered:
			// Another device registered a key first.
			secrets.Wipe(symKey)
			c.log.Infof("Account key registered concurrently by another device, fetching it instead")
			return c.fetch(ctx)
		case kerrors.ErrUnknownPublicKey, kerrors.ErrDeviceNotRegistered, kerrors.ErrKeyNotSynchronized:
			secrets.Wipe(symKey)
			return StateAnonymous, fmt.Errorf("failed to register account key: %w", de)
		}
	}
	if err != nil {
		secrets.Wipe(symKey)
		return StateAnonymous, fmt.Errorf("failed to register account key: %w", err)
	}

	c.mu.Lock()
	c.sess.symKey = symKey
	c.sess.bootstrapped = true
	c.sess.state = StateSynced
	c.mu.Unlock()
	c.log.Infof("Generated a new account key")

	if _, err := c.StartConvergence(ctx); err != nil && !errors.Is(err, kerrors.ErrConvergenceRunning) {
		return StateSynced, err
	}
	return StateSynced, nil
}

// fetch retrieves and unwraps the key wrapped for this device.
func (c *Coordinator) fetch(ctx context.Context) (State, error) {
	c.setState(StateFetching)

	c.mu.Lock()
	pair, publicKey := c.sess.pair, c.sess.publicKey
	c.mu.Unlock()

	wrapped, err := c.backend.GetEncryptedSymmetricKey(ctx, publicKey)
	if de, ok := kerrors.AsDeviceError(err); ok {
		switch de {
		case kerrors.ErrKeyNotSynchronized:
			c.setState(StateWaiting)
			c.log.Infof("Account key not yet shared with this device")
			return StateWaiting, nil
		case kerrors.ErrUnknownPublicKey, kerrors.ErrDeviceNotRegistered, kerrors.ErrAlreadyRegistered:
			return StateAnonymous, fmt.Errorf("failed to fetch account key: %w", de)
		}
	}
	if err != nil {
		return StateAnonymous, fmt.Errorf("failed to fetch account key: %w", err)
	}

	symKey, err := secrets.UnwrapSymmetricKey(wrapped, pair.Private)
	if err != nil {
		return StateAnonymous, err
	}

	c.mu.Lock()
	c.sess.symKey = symKey
	c.sess.state = StateSynced
	c.mu.Unlock()
	c.log.Infof("Received the account key")
	return StateSynced, nil
}

// TrySync retries the fetch from StateWaiting. It reports whether the session
// is synced afterwards.
func (c *Coordinator) TrySync(ctx context.Context) (bool, error) {
	switch c.State() {
	case StateSynced:
		return true, nil
	case StateWaiting:
		state, err := c.fetch(ctx)
		if err != nil {
			c.reset()
			return false, err
		}
		return state == StateSynced, nil
	default:
		return false, kerrors.ErrNotSynced
	}
}

// WaitForSync polls TrySync every interval until the session is synced, an
// error occurs, or ctx is done.
func (c *Coordinator) WaitForSync(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		synced, err := c.TrySync(ctx)
		if err != nil {
			return err
		}
		if synced {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Logout stops the convergence task, clears the device key pair and alias and
// drops the account key. It does nothing unless the session is synced.
// No convergence tick runs after Logout returns.
func (c *Coordinator) Logout() error {
	c.mu.Lock()
	if c.sess.state != StateSynced {
		c.mu.Unlock()
		return nil
	}
	// Leave StateSynced before releasing the lock so StartConvergence
	// cannot install a task that outlives the logout.
	c.sess.state = StateAnonymous
	task := c.task
	c.task = nil
	c.mu.Unlock()

	if task != nil {
		task.Stop()
	}

	c.reset()
	if err := c.keys.Clear(); err != nil {
		return fmt.Errorf("failed to clear device identity: %w", err)
	}
	c.log.Infof("Logged out and cleared device keys")
	return nil
}

// reset drops all in-memory key material and returns to StateAnonymous.
func (c *Coordinator) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.symKey != nil {
		secrets.Wipe(c.sess.symKey)
	}
	c.sess = session{state: StateAnonymous}
}

// symmetricKey returns a copy of the account key, or nil if none is held.
func (c *Coordinator) symmetricKey() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.symKey == nil {
		return nil
	}
	return append([]byte(nil), c.sess.symKey...)
}

// Encrypt seals a note under the account key.
func (c *Coordinator) Encrypt(plaintext string) (string, error) {
	key := c.symmetricKey()
	if key == nil {
		return "", kerrors.ErrNoSymmetricKey
	}
	defer secrets.Wipe(key)
	return secrets.EncryptNote(plaintext, key)
}

// Decrypt opens a note sealed by any device of the account.
func (c *Coordinator) Decrypt(data string) (string, error) {
	key := c.symmetricKey()
	if key == nil {
		return "", kerrors.ErrNoSymmetricKey
	}
	defer secrets.Wipe(key)
	return secrets.DecryptNote(data, key)
}
