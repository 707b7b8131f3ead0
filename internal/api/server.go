package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
)

// Store is the multi-account backend the server exposes.
type Store interface {
	ForAccount(account string) backend.Service
}

const maxBodyBytes = 1 << 20

type Server struct {
	httpServer *http.Server
	store      Store
	limiter    *accountLimiter
	metrics    *metrics
	log        logger.Logger
}

func NewServer(cfg ServerConfig, store Store, log logger.Logger) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		store:   store,
		limiter: newAccountLimiter(cfg.RateLimit),
		log:     log,
	}
	if cfg.Metrics {
		s.metrics = newMetrics()
		mux.Handle("GET /metrics", s.metrics.handler())
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.route(mux, "POST /v1/devices", "register_device", s.handleRegisterDevice)
	s.route(mux, "GET /v1/devices", "get_device_aliases", s.handleGetDeviceAliases)
	s.route(mux, "DELETE /v1/devices/{alias}", "delete_device", s.handleDeleteDevice)

	s.route(mux, "GET /v1/keys/registered", "is_key_registered", s.handleIsKeyRegistered)
	s.route(mux, "POST /v1/keys", "register_key", s.handleRegisterKey)
	s.route(mux, "POST /v1/keys/fetch", "get_key", s.handleGetKey)
	s.route(mux, "GET /v1/keys/unsynced", "get_unsynced_keys", s.handleGetUnsyncedKeys)
	s.route(mux, "POST /v1/keys/batch", "upload_keys", s.handleUploadKeys)

	s.route(mux, "GET /v1/notes", "get_notes", s.handleGetNotes)
	s.route(mux, "POST /v1/notes", "add_note", s.handleAddNote)
	s.route(mux, "PUT /v1/notes/{id}", "update_note", s.handleUpdateNote)
	s.route(mux, "DELETE /v1/notes/{id}", "delete_note", s.handleDeleteNote)
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

type accountHandler func(w http.ResponseWriter, r *http.Request, svc backend.Service)

// route wraps h with authentication, rate limiting and metrics.
func (s *Server) route(mux *http.ServeMux, pattern, name string, h accountHandler) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		defer func() { s.metrics.observe(name, rec.code, time.Since(start)) }()

		account := bearerToken(r)
		if account == "" {
			s.writeError(rec, kerrors.ErrAnonymousAccount)
			return
		}
		if !s.limiter.allow(account, start) {
			s.writeError(rec, kerrors.ErrRateLimited)
			return
		}
		r.Body = http.MaxBytesReader(rec, r.Body, maxBodyBytes)
		h(rec, r, s.store.ForAccount(account))
	})
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	var req registerDeviceRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Alias == "" || req.PublicKey == "" {
		http.Error(w, "alias and public_key are required", http.StatusBadRequest)
		return
	}
	if err := svc.RegisterDevice(r.Context(), req.Alias, req.PublicKey); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDeviceAliases(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	aliases, err := svc.GetDeviceAliases(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aliasesResponse{Aliases: aliases})
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	if err := svc.DeleteDevice(r.Context(), r.PathValue("alias")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIsKeyRegistered(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	registered, err := svc.IsEncryptedSymmetricKeyRegistered(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registeredResponse{Registered: registered})
}

func (s *Server) handleRegisterKey(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	var req registerKeyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := svc.RegisterEncryptedSymmetricKey(r.Context(), req.PublicKey, req.WrappedKey); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	var req publicKeyRequest
	if !s.decode(w, r, &req) {
		return
	}
	wrapped, err := svc.GetEncryptedSymmetricKey(r.Context(), req.PublicKey)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wrappedKeyResponse{WrappedKey: wrapped})
}

func (s *Server) handleGetUnsyncedKeys(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	keys, err := svc.GetUnsyncedPublicKeys(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publicKeysResponse{PublicKeys: keys})
}

func (s *Server) handleUploadKeys(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	var req uploadKeysRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := svc.UploadEncryptedSymmetricKeys(r.Context(), req.Keys); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetNotes(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	notes, err := svc.GetNotes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notesResponse{Notes: notes})
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	var req noteRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := svc.AddNote(r.Context(), req.Data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteIDResponse{ID: id})
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := svc.UpdateNote(r.Context(), id, req.Data); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, svc backend.Service) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	if err := svc.DeleteNote(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func noteID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid note id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.log.Debugf("Rejected request body for %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code, name := encodeError(err)
	if code == http.StatusInternalServerError {
		s.log.WarnfAlways("Backend request failed: %v", err)
	} else {
		s.log.Debugf("Backend request returned %s", name)
	}
	writeJSON(w, code, errorResponse{Error: name})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
