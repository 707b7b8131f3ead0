package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	kerrors "github.com/PolarWolf314/kanuka-notes/internal/errors"
	logger "github.com/PolarWolf314/kanuka-notes/internal/logging"
	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/utils"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"
	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
// Uses the global debug flag from the notes command.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	return startSpinnerWithFlags(message, verbose, debug)
}

// startSpinnerWithFlags creates and starts a spinner with explicit verbose and debug flags.
// This is useful for commands that have their own flag variables (e.g., config commands).
func startSpinnerWithFlags(message string, verbose, debugFlag bool) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	if !verbose && !debugFlag {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	}

	cleanup := func() {
		// Restore log output first.
		if !verbose && !debugFlag {
			log.SetOutput(os.Stdout)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		// Stop the spinner first to clear the spinner line.
		if !verbose && !debugFlag {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// passphrase protects the device keys at rest. Empty falls back to
// KANUKA_NOTES_PASSPHRASE inside the workflows.
var passphrase string

// resolvePassphrase prompts for the key store passphrase when asked to.
func resolvePassphrase(ask bool) error {
	if !ask {
		return nil
	}
	value, err := utils.ReadPassphrase("Key passphrase: ")
	if err != nil {
		return err
	}
	passphrase = string(value)
	return nil
}

// sessionOptions builds the workflow options shared by all notes commands.
func sessionOptions(log logger.Logger) workflows.SessionOptions {
	return workflows.SessionOptions{
		KeyBits:    keyBits,
		Passphrase: passphrase,
		Log:        log,
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// failureMessage renders err with a hint for the conditions a user can fix.
func failureMessage(msg string, err error) string {
	out := ui.Failed(msg, err)
	switch {
	case errors.Is(err, kerrors.ErrNotLoggedIn):
		out += "\n" + ui.Hint("Run "+ui.Code.Sprint("kanuka-notes notes login --token <account token>")+" first")
	case errors.Is(err, kerrors.ErrNotSynced):
		out += "\n" + ui.Hint("Another device of this account must be online to share the key. Run "+
			ui.Code.Sprint("kanuka-notes notes login --wait")+" to wait for it")
	case errors.Is(err, kerrors.ErrWrongPassphrase):
		out += "\n" + ui.Hint("Set "+ui.Code.Sprint("KANUKA_NOTES_PASSPHRASE")+" to the passphrase that protects your keys")
	case errors.Is(err, kerrors.ErrRateLimited):
		out += "\n" + ui.Hint("The backend is rate limiting this account, try again shortly")
	}
	if de, ok := kerrors.AsDeviceError(err); ok && de.Fatal() {
		out += "\n" + ui.Hint("This device is no longer registered. Run "+ui.Code.Sprint("kanuka-notes notes login")+" again")
	}
	return out
}

// parseNoteID parses a note id argument.
func parseNoteID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q", arg)
	}
	return id, nil
}

// noteText joins args into the note text, or reads stdin when the only
// argument is "-".
func noteText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read note from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return "", errors.New("note text is empty")
	}
	return text, nil
}
