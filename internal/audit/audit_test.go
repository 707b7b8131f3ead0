package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/kanuka-notes/internal/configs"
)

// withSettings points the user settings at a temporary home for one test.
func withSettings(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	original := configs.UserNotesSettings
	configs.UserNotesSettings = configs.SettingsForHome(home)
	t.Cleanup(func() { configs.UserNotesSettings = original })
	return home
}

func TestLog_CreatesFile(t *testing.T) {
	home := withSettings(t)

	Log(Entry{Alias: "device-a", Operation: "login", State: "SYNCED"})

	if _, err := os.Stat(filepath.Join(home, "audit.jsonl")); err != nil {
		t.Fatalf("Audit log file was not created: %v", err)
	}
}

func TestLog_AppendsEntries(t *testing.T) {
	withSettings(t)

	Log(Entry{Alias: "device-a", Operation: "add"}.WithNote(3))
	Log(Entry{Alias: "device-a", Operation: "edit"}.WithNote(3))
	Log(Entry{Alias: "device-b", Operation: "devices", DevicesCount: 2})

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Operation != "add" || entries[0].NoteID == nil || *entries[0].NoteID != 3 {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[2].DevicesCount != 2 || entries[2].NoteID != nil {
		t.Errorf("Unexpected third entry: %+v", entries[2])
	}
	for _, e := range entries {
		if e.Timestamp == "" {
			t.Errorf("Entry %q has no timestamp", e.Operation)
		}
	}
}

func TestLog_NoteIDZeroIsRecorded(t *testing.T) {
	home := withSettings(t)

	Log(Entry{Operation: "rm"}.WithNote(0))

	data, _ := os.ReadFile(filepath.Join(home, "audit.jsonl"))
	if !strings.Contains(string(data), `"note_id":0`) {
		t.Fatalf("note id 0 was dropped: %s", data)
	}
}

func TestLog_OmitsEmptyOptionalFields(t *testing.T) {
	home := withSettings(t)

	Log(Entry{Alias: "device-a", Operation: "logout"})

	data, _ := os.ReadFile(filepath.Join(home, "audit.jsonl"))
	for _, field := range []string{"note_id", "devices_count", "state", "target_alias"} {
		if strings.Contains(string(data), field) {
			t.Errorf("Empty field %s was written: %s", field, data)
		}
	}
}

func TestLog_KeepsExplicitTimestamp(t *testing.T) {
	withSettings(t)

	Log(Entry{Timestamp: "2024-01-02T03:04:05.000000Z", Operation: "status"})

	entries, _ := ReadEntries()
	if len(entries) != 1 || entries[0].Timestamp != "2024-01-02T03:04:05.000000Z" {
		t.Fatalf("Unexpected entries: %+v", entries)
	}
}

func TestLogWithDevice_UsesConfiguredAlias(t *testing.T) {
	withSettings(t)

	config := &configs.UserConfig{}
	config.Device.Alias = "my-laptop-alias"
	if err := configs.SaveUserConfig(config); err != nil {
		t.Fatalf("SaveUserConfig: %v", err)
	}

	entry := LogWithDevice("watch")
	if entry.Alias != "my-laptop-alias" || entry.Operation != "watch" {
		t.Fatalf("Unexpected entry: %+v", entry)
	}
}

func TestReadEntries_MissingLog(t *testing.T) {
	withSettings(t)

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("Expected no entries, got %d", len(entries))
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"ts":"t1","alias":"a","op":"add","note_id":1}
not json
{"ts":"t2","alias":"a","op":"rm"

{"ts":"t3","alias":"b","op":"login","state":"WAITING"}`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].State != "WAITING" {
		t.Errorf("Unexpected state: %q", entries[1].State)
	}
}

func TestParseEntries_Empty(t *testing.T) {
	entries, err := ParseEntries(nil)
	if err != nil || entries != nil {
		t.Fatalf("ParseEntries(nil) = %v, %v", entries, err)
	}
}
