// Package keysync distributes one account-wide symmetric key to every device
// of the account through an untrusted backend.
//
// A Coordinator drives one device session:
//
//	ANONYMOUS -> REGISTERING -> BOOTSTRAPPING | FETCHING -> SYNCED
//
// The first device to find no key registered bootstraps one and wraps it for
// itself. Every other device fetches the copy wrapped for its public key,
// waiting (StateWaiting) until a synced device has served it. Synced devices
// run a ConvergenceTask that wraps the key for newly registered devices.
//
// The key is held in memory only. Logout stops the convergence task, clears
// the device key pair and alias, and drops the key.
package keysync
