// Package audit records local note and device operations.
//
// Entries are stored as JSON Lines (one JSON object per line) in the user
// config directory:
//
//	<config dir>/audit.jsonl
//
// Each entry carries a UTC timestamp, the device alias and the operation
// name, plus operation-specific details such as the note id. Note contents,
// plaintext or ciphertext, are never logged.
//
// Usage:
//
//	entry := audit.LogWithDevice("add").WithNote(id)
//	audit.Log(entry)
//
// Audit logging is best-effort. If a write fails the operation continues.
// ReadEntries skips malformed lines so a partial write does not hide the
// rest of the log.
package audit
