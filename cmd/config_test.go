package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PolarWolf314/kanuka-notes/internal/configs"
)

func TestConfigInit_Prompts(t *testing.T) {
	setupTestEnvironment(t)

	input := "http://notes.example.com:8790/\nsecret-token\nworkstation\n10s\n"
	output := runCLIWithInput(t, input, "config", "init")
	if !strings.Contains(output, "Configuration saved") {
		t.Fatalf("config init output: %s", output)
	}

	config, err := configs.LoadUserConfig()
	if err != nil {
		t.Fatalf("LoadUserConfig: %v", err)
	}
	if config.BackendURL() != "http://notes.example.com:8790" {
		t.Errorf("backend = %q", config.BackendURL())
	}
	if config.Account.Token != "secret-token" || config.Device.Name != "workstation" || config.Sync.Interval != "10s" {
		t.Errorf("config = %+v", config)
	}
}

func TestConfigInit_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"backend", []string{"--backend", "notes.example.com", "--yes"}, "invalid backend URL"},
		{"interval", []string{"--interval", "soon", "--yes"}, "Invalid sync interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestEnvironment(t)
			output := runCLI(t, append([]string{"config", "init"}, tt.args...)...)
			if !strings.Contains(output, tt.want) {
				t.Fatalf("output missing %q: %s", tt.want, output)
			}
			if _, err := configs.LoadUserConfig(); err != nil {
				t.Fatalf("LoadUserConfig: %v", err)
			}
		})
	}
}

func TestConfigShow_MasksToken(t *testing.T) {
	setupTestEnvironment(t)
	runCLI(t, "config", "init", "--token", "account-token-1234", "--device", "laptop", "--yes")

	output := runCLI(t, "config", "show")
	if strings.Contains(output, "account-token-1234") || !strings.Contains(output, "****1234") {
		t.Fatalf("config show output: %s", output)
	}

	output = runCLI(t, "config", "show", "--json", "--show-token")
	var shown configOutput
	if err := json.Unmarshal([]byte(output), &shown); err != nil {
		t.Fatalf("config show --json is not JSON: %v\n%s", err, output)
	}
	if shown.Token != "account-token-1234" || shown.DeviceName != "laptop" {
		t.Fatalf("config show --json = %+v", shown)
	}
	if shown.BackendURL != configs.DefaultBackendURL {
		t.Errorf("backend = %q, want default", shown.BackendURL)
	}
}

func TestConfigSetBackend(t *testing.T) {
	setupTestEnvironment(t)

	output := runCLI(t, "config", "set-backend", "ftp://example.com")
	if !strings.Contains(output, "invalid backend URL") {
		t.Fatalf("set-backend output: %s", output)
	}

	runCLI(t, "config", "set-backend", "https://notes.example.com/")
	config, err := configs.LoadUserConfig()
	if err != nil {
		t.Fatalf("LoadUserConfig: %v", err)
	}
	if config.BackendURL() != "https://notes.example.com" {
		t.Fatalf("backend = %q", config.BackendURL())
	}
}

func TestDisplayToken(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"abc":        "****",
		"abcdefgh":   "****efgh",
		"tok-123456": "****3456",
	}
	for token, want := range tests {
		if got := displayToken(token); got != want {
			t.Errorf("displayToken(%q) = %q, want %q", token, got, want)
		}
	}
}
