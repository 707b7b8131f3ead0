// Package backend defines the remote service a device session talks to and
// ships an in-memory reference implementation of it.
//
// The service is untrusted: it only ever sees device aliases, exported public
// keys, wrapped symmetric keys and note ciphertext. Protocol outcomes are
// reported as kerrors.DeviceError values.
//
// MemoryStore holds every account. ForAccount binds it to one account and
// returns a Service, which is also what the HTTP client in package api
// implements.
package backend
