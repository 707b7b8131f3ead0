// Package cmd contains testing utilities shared between the command tests.
// This file provides common functions for setting up test environments,
// running the CLI and capturing its output.
package cmd

import (
	"bytes"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/PolarWolf314/kanuka-notes/internal/api"
	"github.com/PolarWolf314/kanuka-notes/internal/backend"
	"github.com/PolarWolf314/kanuka-notes/internal/configs"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/spf13/cobra"
)

// setupTestEnvironment points all user state at a temporary directory and
// restores the original settings and command state after the test.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	originalUserSettings := configs.UserNotesSettings
	configs.UserNotesSettings = configs.SettingsForHome(home)
	t.Setenv("KANUKA_NOTES_PASSPHRASE", "")
	SetKeyBits(2048)

	t.Cleanup(func() {
		configs.UserNotesSettings = originalUserSettings
		SetKeyBits(0)
		resetAllCommandState()
	})
	resetAllCommandState()
	return home
}

func resetAllCommandState() {
	ResetGlobalState()
	ResetDevicesState()
	ResetConfigState()
}

// startTestBackend runs an in-process notes backend without rate limiting.
func startTestBackend(t *testing.T) (*httptest.Server, *backend.MemoryStore) {
	t.Helper()
	cfg := api.DefaultServerConfig()
	cfg.RateLimit.RPS = 0
	store := backend.NewMemoryStore()
	srv := api.NewServer(cfg, store, logger.Logger{Out: io.Discard, Err: io.Discard})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	// Save original stdout and stderr
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	// Create pipes to capture output
	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	// Replace stdout and stderr
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	// Channel to collect output
	outputChan := make(chan string, 2)

	// Start goroutines to read from pipes
	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	// Execute the function
	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	// Restore original stdout and stderr
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	// Collect output
	stdout := <-outputChan
	stderr := <-outputChan

	return stdout + stderr, err
}

// createTestCLI creates a complete CLI instance for testing with the given arguments.
func createTestCLI(args ...string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kanuka-notes",
		Short: "Kanuka Notes - end-to-end encrypted notes shared across your devices.",
	}
	rootCmd.AddCommand(NotesCmd)
	rootCmd.AddCommand(DevicesCmd)
	rootCmd.AddCommand(ConfigCmd)
	rootCmd.AddCommand(ServeCmd)
	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI runs the CLI with args and returns its combined output.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	resetAllCommandState()
	output, err := captureOutput(func() error {
		return createTestCLI(args...).Execute()
	})
	if err != nil {
		t.Fatalf("kanuka-notes %v failed: %v\nOutput: %s", args, err, output)
	}
	return output
}

// runCLIWithInput runs the CLI with stdin set to input.
func runCLIWithInput(t *testing.T, input string, args ...string) string {
	t.Helper()
	resetAllCommandState()
	output, err := captureOutput(func() error {
		root := createTestCLI(args...)
		root.SetIn(bytes.NewBufferString(input))
		return root.Execute()
	})
	if err != nil {
		t.Fatalf("kanuka-notes %v failed: %v\nOutput: %s", args, err, output)
	}
	return output
}
