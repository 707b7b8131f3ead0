package api

import (
	"errors"
	"net/http"

	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
)

type registerDeviceRequest struct {
	Alias     string `json:"alias"`
	PublicKey string `json:"public_key"`
}

type publicKeyRequest struct {
	PublicKey string `json:"public_key"`
}

type registerKeyRequest struct {
	PublicKey  string `json:"public_key"`
	WrappedKey string `json:"wrapped_key"`
}

type wrappedKeyResponse struct {
	WrappedKey string `json:"wrapped_key"`
}

type uploadKeysRequest struct {
	Keys []backend.WrappedKey `json:"keys"`
}

type registeredResponse struct {
	Registered bool `json:"registered"`
}

type aliasesResponse struct {
	Aliases []string `json:"aliases"`
}

type publicKeysResponse struct {
	PublicKeys []string `json:"public_keys"`
}

type notesResponse struct {
	Notes []backend.Note `json:"notes"`
}

type noteRequest struct {
	Data string `json:"data"`
}

type noteIDResponse struct {
	ID uint64 `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// namedErrors are the non-protocol errors that cross the wire by name.
var namedErrors = map[string]error{
	"AnonymousAccount": kerrors.ErrAnonymousAccount,
	"NoteNotFound":     kerrors.ErrNoteNotFound,
	"DeviceNotFound":   kerrors.ErrDeviceNotFound,
	"LastDevice":       kerrors.ErrLastDevice,
	"RateLimited":      kerrors.ErrRateLimited,
}

// encodeError maps err to an HTTP status and wire name.
func encodeError(err error) (int, string) {
	if de, ok := kerrors.AsDeviceError(err); ok {
		return http.StatusConflict, de.String()
	}
	for name, sentinel := range namedErrors {
		if errors.Is(err, sentinel) {
			return statusFor(sentinel), name
		}
	}
	return http.StatusInternalServerError, "Internal"
}

func statusFor(sentinel error) int {
	switch sentinel {
	case kerrors.ErrAnonymousAccount:
		return http.StatusUnauthorized
	case kerrors.ErrNoteNotFound, kerrors.ErrDeviceNotFound:
		return http.StatusNotFound
	case kerrors.ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusConflict
	}
}

// decodeError reverses encodeError. It returns nil if name is unknown.
func decodeError(name string) error {
	if de, ok := kerrors.ParseDeviceError(name); ok {
		return de
	}
	if err, ok := namedErrors[name]; ok {
		return err
	}
	return nil
}
