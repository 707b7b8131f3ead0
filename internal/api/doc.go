// Package api carries the backend service over HTTP.
//
// Server exposes a Store (normally a backend.MemoryStore) as a small JSON API
// authenticated by a bearer account token. Client is the matching
// backend.Service implementation used by the CLI.
//
// Protocol outcomes travel as HTTP 409 with {"error": "<name>"}, where name is
// the kerrors.DeviceError wire name, and are decoded back into the same value
// on the client side.
package api
