package workflows

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PolarWolf314/kanuka-notes/internal/api"
	"github.com/PolarWolf314/kanuka-notes/internal/audit"
	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	"github.com/PolarWolf314/kanuka-notes/internal/keysync"
	"github.com/PolarWolf314/kanuka-notes/internal/secrets"
)

func TestLogin_FirstDeviceBootstraps(t *testing.T) {
	store := backend.NewMemoryStore()
	a := newTestDevice(t, store.ForAccount(testAccount), 0)

	result := a.login(t)
	if result.State != keysync.StateSynced || !result.Bootstrapped {
		t.Fatalf("Login = %+v, want synced bootstrap", result)
	}
	if result.Alias == "" {
		t.Fatal("expected a device alias")
	}

	config := a.config(t)
	if config.Account.Token != testAccount {
		t.Errorf("token = %q, want %q", config.Account.Token, testAccount)
	}
	if config.Device.Alias != result.Alias {
		t.Errorf("config alias = %q, want %q", config.Device.Alias, result.Alias)
	}

	pk, err := secrets.ExportPublicKeyBase64(&testKey(t, 0).PublicKey)
	if err != nil {
		t.Fatalf("ExportPublicKeyBase64: %v", err)
	}
	if result.Fingerprint != secrets.Fingerprint(pk) {
		t.Errorf("fingerprint = %q, want %q", result.Fingerprint, secrets.Fingerprint(pk))
	}

	entries, err := audit.ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "login" || entries[0].State != "SYNCED" {
		t.Fatalf("audit entries = %+v", entries)
	}
	if entries[0].Alias != result.Alias {
		t.Errorf("audit alias = %q, want %q", entries[0].Alias, result.Alias)
	}
}

func TestLogin_RequiresToken(t *testing.T) {
	store := backend.NewMemoryStore()
	a := newTestDevice(t, store.ForAccount(testAccount), 0)
	a.use()

	_, err := Login(context.Background(), LoginOptions{SessionOptions: a.opts})
	if !errors.Is(err, kerrors.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestLogin_KeepsTokenOnRepeat(t *testing.T) {
	store := backend.NewMemoryStore()
	a := newTestDevice(t, store.ForAccount(testAccount), 0)
	first := a.login(t)

	a.use()
	second, err := Login(context.Background(), LoginOptions{SessionOptions: a.opts, DeviceName: "laptop"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if second.Alias != first.Alias || second.State != keysync.StateSynced || second.Bootstrapped {
		t.Fatalf("second Login = %+v, first = %+v", second, first)
	}
	if name := a.config(t).Device.Name; name != "laptop" {
		t.Errorf("device name = %q, want laptop", name)
	}
}

func TestLogin_SecondDeviceWaitsUntilServed(t *testing.T) {
	_, a, b := twoDevices(t)

	b.use()
	waiting, err := Login(context.Background(), LoginOptions{SessionOptions: b.opts})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if waiting.State != keysync.StateWaiting {
		t.Fatalf("B state = %s, want WAITING", waiting.State)
	}

	// Any command on a synced device serves waiting devices.
	id := a.addNote(t, "from A")

	synced := b.login(t)
	if synced.State != keysync.StateSynced || synced.Bootstrapped {
		t.Fatalf("B Login = %+v, want synced without bootstrap", synced)
	}

	b.use()
	note, err := ShowNote(context.Background(), NoteOptions{SessionOptions: b.opts, ID: id})
	if err != nil {
		t.Fatalf("ShowNote: %v", err)
	}
	if note.Text != "from A" {
		t.Errorf("note text = %q, want %q", note.Text, "from A")
	}
}

func TestLogin_WaitReturnsOnContextDone(t *testing.T) {
	_, _, b := twoDevices(t)
	b.setSyncInterval(t, "10ms")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	b.use()
	_, err := Login(ctx, LoginOptions{SessionOptions: b.opts, Wait: true})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestLogin_OverHTTP(t *testing.T) {
	cfg := api.DefaultServerConfig()
	cfg.RateLimit.RPS = 0
	ts := httptest.NewServer(api.NewServer(cfg, backend.NewMemoryStore(), quiet).Handler())
	t.Cleanup(ts.Close)

	a := newTestDevice(t, nil, 0)
	a.use()
	result, err := Login(context.Background(), LoginOptions{
		SessionOptions: a.opts,
		Token:          testAccount,
		BackendURL:     ts.URL,
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.State != keysync.StateSynced {
		t.Fatalf("state = %s, want SYNCED", result.State)
	}
	if got := a.config(t).BackendURL(); got != ts.URL {
		t.Errorf("backend URL = %q, want %q", got, ts.URL)
	}

	id := a.addNote(t, "over the wire")
	a.use()
	listed, err := ListNotes(context.Background(), a.opts)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(listed.Notes) != 1 || listed.Notes[0].ID != id || listed.Notes[0].Text != "over the wire" {
		t.Fatalf("ListNotes = %+v", listed.Notes)
	}
}
