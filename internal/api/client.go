package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PolarWolf314/kanuka-notes/internal/backend"
)

// Client talks to a Server on behalf of one account. It sets no timeout of
// its own; callers bound requests through the context.
type Client struct {
	Base  string
	Token string
	HTTP  *http.Client
}

func NewClient(base, token string) *Client {
	return &Client{
		Base:  strings.TrimRight(base, "/"),
		Token: token,
		HTTP:  http.DefaultClient,
	}
}

var _ backend.Service = (*Client)(nil)

func (c *Client) RegisterDevice(ctx context.Context, alias, publicKey string) error {
	return c.do(ctx, http.MethodPost, "/v1/devices", registerDeviceRequest{Alias: alias, PublicKey: publicKey}, nil)
}

func (c *Client) GetDeviceAliases(ctx context.Context) ([]string, error) {
	var out aliasesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/devices", nil, &out); err != nil {
		return nil, err
	}
	return out.Aliases, nil
}

func (c *Client) DeleteDevice(ctx context.Context, alias string) error {
	return c.do(ctx, http.MethodDelete, "/v1/devices/"+url.PathEscape(alias), nil, nil)
}

func (c *Client) IsEncryptedSymmetricKeyRegistered(ctx context.Context) (bool, error) {
	var out registeredResponse
	if err := c.do(ctx, http.MethodGet, "/v1/keys/registered", nil, &out); err != nil {
		return false, err
	}
	return out.Registered, nil
}

func (c *Client) RegisterEncryptedSymmetricKey(ctx context.Context, publicKey, wrappedKey string) error {
	return c.do(ctx, http.MethodPost, "/v1/keys", registerKeyRequest{PublicKey: publicKey, WrappedKey: wrappedKey}, nil)
}

func (c *Client) GetEncryptedSymmetricKey(ctx context.Context, publicKey string) (string, error) {
	var out wrappedKeyResponse
	if err := c.do(ctx, http.MethodPost, "/v1/keys/fetch", publicKeyRequest{PublicKey: publicKey}, &out); err != nil {
		return "", err
	}
	return out.WrappedKey, nil
}

func (c *Client) GetUnsyncedPublicKeys(ctx context.Context) ([]string, error) {
	var out publicKeysResponse
	if err := c.do(ctx, http.MethodGet, "/v1/keys/unsynced", nil, &out); err != nil {
		return nil, err
	}
	return out.PublicKeys, nil
}

func (c *Client) UploadEncryptedSymmetricKeys(ctx context.Context, keys []backend.WrappedKey) error {
	return c.do(ctx, http.MethodPost, "/v1/keys/batch", uploadKeysRequest{Keys: keys}, nil)
}

func (c *Client) GetNotes(ctx context.Context) ([]backend.Note, error) {
	var out notesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/notes", nil, &out); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

func (c *Client) AddNote(ctx context.Context, data string) (uint64, error) {
	var out noteIDResponse
	if err := c.do(ctx, http.MethodPost, "/v1/notes", noteRequest{Data: data}, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdateNote(ctx context.Context, id uint64, data string) error {
	return c.do(ctx, http.MethodPut, "/v1/notes/"+strconv.FormatUint(id, 10), noteRequest{Data: data}, nil)
}

func (c *Client) DeleteNote(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, "/v1/notes/"+strconv.FormatUint(id, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e errorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			if known := decodeError(e.Error); known != nil {
				return known
			}
		}
		return fmt.Errorf("backend %s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
