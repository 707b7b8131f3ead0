package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/kanuka-notes/internal/configs"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`    // RFC3339 with microseconds.
	Alias     string `json:"alias"` // Alias of the device performing the action.
	Operation string `json:"op"`    // Operation name.

	// Optional fields depending on operation.
	NoteID       *uint64 `json:"note_id,omitempty"`       // For add/edit/rm.
	DevicesCount int     `json:"devices_count,omitempty"` // For devices list.
	State        string  `json:"state,omitempty"`         // Session state after login.
	TargetAlias  string  `json:"target_alias,omitempty"`  // For devices rm.
}

// WithNote sets the note id of the entry.
func (e Entry) WithNote(id uint64) Entry {
	e.NoteID = &id
	return e
}

// Log appends an entry to the audit log.
// If logging fails, the operation continues; audit logging never returns an error.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if logPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogWithDevice returns an entry with the alias populated from the user config.
func LogWithDevice(op string) Entry {
	entry := Entry{Operation: op}

	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return entry
	}
	entry.Alias = userConfig.Device.Alias
	return entry
}

// LogPath returns the path to the audit log file.
func LogPath() string {
	if configs.UserNotesSettings == nil {
		return ""
	}
	return configs.UserNotesSettings.AuditLogPath
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
