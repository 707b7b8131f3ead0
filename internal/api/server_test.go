package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
)

func newTestServer(t *testing.T, cfg ServerConfig) (*httptest.Server, *backend.MemoryStore) {
	t.Helper()
	store := backend.NewMemoryStore()
	srv := NewServer(cfg, store, logger.Logger{Out: io.Discard, Err: io.Discard})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func unlimitedConfig() ServerConfig {
	cfg := DefaultServerConfig()
	cfg.RateLimit.RPS = 0
	return cfg
}

func TestClient_KeyDistributionRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, unlimitedConfig())
	ctx := context.Background()
	c := NewClient(ts.URL, "token-1")

	if err := c.RegisterDevice(ctx, "laptop", "pk-a"); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if err := c.RegisterDevice(ctx, "laptop", "pk-a"); err != nil {
		t.Fatalf("repeated RegisterDevice: %v", err)
	}
	if err := c.RegisterDevice(ctx, "phone", "pk-b"); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}

	registered, err := c.IsEncryptedSymmetricKeyRegistered(ctx)
	if err != nil || registered {
		t.Fatalf("IsEncryptedSymmetricKeyRegistered = %v, %v", registered, err)
	}
	if err := c.RegisterEncryptedSymmetricKey(ctx, "pk-a", "wa"); err != nil {
		t.Fatalf("RegisterEncryptedSymmetricKey: %v", err)
	}
	err = c.RegisterEncryptedSymmetricKey(ctx, "pk-b", "wb")
	if !errors.Is(err, kerrors.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}

	if _, err := c.GetEncryptedSymmetricKey(ctx, "pk-b"); !errors.Is(err, kerrors.ErrKeyNotSynchronized) {
		t.Fatalf("expected ErrKeyNotSynchronized, got %v", err)
	}
	if _, err := c.GetEncryptedSymmetricKey(ctx, "pk-zzz"); !errors.Is(err, kerrors.ErrUnknownPublicKey) {
		t.Fatalf("expected ErrUnknownPublicKey, got %v", err)
	}

	unsynced, err := c.GetUnsyncedPublicKeys(ctx)
	if err != nil || !reflect.DeepEqual(unsynced, []string{"pk-b"}) {
		t.Fatalf("GetUnsyncedPublicKeys = %v, %v", unsynced, err)
	}
	if err := c.UploadEncryptedSymmetricKeys(ctx, []backend.WrappedKey{{PublicKey: "pk-b", WrappedKey: "wb"}}); err != nil {
		t.Fatalf("UploadEncryptedSymmetricKeys: %v", err)
	}
	wrapped, err := c.GetEncryptedSymmetricKey(ctx, "pk-b")
	if err != nil || wrapped != "wb" {
		t.Fatalf("GetEncryptedSymmetricKey = %q, %v", wrapped, err)
	}

	aliases, err := c.GetDeviceAliases(ctx)
	if err != nil || !reflect.DeepEqual(aliases, []string{"laptop", "phone"}) {
		t.Fatalf("GetDeviceAliases = %v, %v", aliases, err)
	}
	if err := c.DeleteDevice(ctx, "phone"); err != nil {
		t.Fatalf("DeleteDevice: %v", err)
	}
	if err := c.DeleteDevice(ctx, "laptop"); !errors.Is(err, kerrors.ErrLastDevice) {
		t.Fatalf("expected ErrLastDevice, got %v", err)
	}
	if err := c.DeleteDevice(ctx, "ghost"); !errors.Is(err, kerrors.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestClient_UnregisteredAccount(t *testing.T) {
	ts, _ := newTestServer(t, unlimitedConfig())
	c := NewClient(ts.URL, "fresh")

	_, err := c.GetEncryptedSymmetricKey(context.Background(), "pk")
	if !errors.Is(err, kerrors.ErrDeviceNotRegistered) {
		t.Fatalf("expected ErrDeviceNotRegistered, got %v", err)
	}
	aliases, err := c.GetDeviceAliases(context.Background())
	if err != nil || len(aliases) != 0 {
		t.Fatalf("GetDeviceAliases = %v, %v", aliases, err)
	}
}

func TestClient_Notes(t *testing.T) {
	ts, _ := newTestServer(t, unlimitedConfig())
	ctx := context.Background()
	c := NewClient(ts.URL+"/", "token-1")

	id, err := c.AddNote(ctx, "blob-1")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if err := c.UpdateNote(ctx, id, "blob-2"); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	notes, err := c.GetNotes(ctx)
	if err != nil || !reflect.DeepEqual(notes, []backend.Note{{ID: id, Data: "blob-2"}}) {
		t.Fatalf("GetNotes = %+v, %v", notes, err)
	}

	other := NewClient(ts.URL, "token-2")
	if err := other.DeleteNote(ctx, id); !errors.Is(err, kerrors.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound across accounts, got %v", err)
	}
	if err := c.DeleteNote(ctx, id); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if err := c.UpdateNote(ctx, id, "x"); !errors.Is(err, kerrors.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestServer_RejectsAnonymous(t *testing.T) {
	ts, _ := newTestServer(t, unlimitedConfig())

	resp, err := http.Get(ts.URL + "/v1/notes")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	c := NewClient(ts.URL, "")
	if _, err := c.GetNotes(context.Background()); !errors.Is(err, kerrors.ErrAnonymousAccount) {
		t.Fatalf("expected ErrAnonymousAccount, got %v", err)
	}
}

func TestServer_ProtocolErrorWireFormat(t *testing.T) {
	ts, _ := newTestServer(t, unlimitedConfig())

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/keys/fetch", strings.NewReader(`{"public_key":"pk"}`))
	req.Header.Set("Authorization", "Bearer acct")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"error":"DeviceNotRegistered"`)) {
		t.Fatalf("body = %s", body)
	}
}

func TestServer_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t, unlimitedConfig())

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/v1/devices", "not json", http.StatusBadRequest},
		{http.MethodPost, "/v1/devices", `{"alias":""}`, http.StatusBadRequest},
		{http.MethodPut, "/v1/notes/abc", `{"data":"x"}`, http.StatusBadRequest},
		{http.MethodPatch, "/v1/notes", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		req, _ := http.NewRequest(tc.method, ts.URL+tc.path, strings.NewReader(tc.body))
		req.Header.Set("Authorization", "Bearer acct")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%s %s: status = %d, want %d", tc.method, tc.path, resp.StatusCode, tc.want)
		}
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.RateLimit = RateLimitConfig{RPS: 0.001, Burst: 2}
	ts, _ := newTestServer(t, cfg)
	ctx := context.Background()

	limited := NewClient(ts.URL, "busy")
	for i := 0; i < 2; i++ {
		if _, err := limited.GetNotes(ctx); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if _, err := limited.GetNotes(ctx); !errors.Is(err, kerrors.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// Buckets are per account.
	if _, err := NewClient(ts.URL, "idle").GetNotes(ctx); err != nil {
		t.Fatalf("other account was limited: %v", err)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t, unlimitedConfig())

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	if _, err := NewClient(ts.URL, "acct").GetNotes(context.Background()); err != nil {
		t.Fatalf("GetNotes: %v", err)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Contains(body, []byte(`kanuka_notes_requests_total{code="200",route="get_notes"} 1`)) {
		t.Fatalf("metrics missing request counter:\n%s", body)
	}
	if !bytes.Contains(body, []byte("kanuka_notes_request_duration_seconds")) {
		t.Fatal("metrics missing duration histogram")
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := unlimitedConfig()
	cfg.Metrics = false
	ts, _ := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := unlimitedConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := NewServer(cfg, backend.NewMemoryStore(), logger.Logger{Out: io.Discard, Err: io.Discard})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
