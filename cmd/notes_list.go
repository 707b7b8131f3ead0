package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	listJSONOutput bool
	listFull       bool
)

func init() {
	listCmd.Flags().BoolVar(&listJSONOutput, "json", false, "output in JSON format")
	listCmd.Flags().BoolVar(&listFull, "full", false, "print whole notes instead of a preview")
}

func resetListCommandState() {
	listJSONOutput = false
	listFull = false
}

// previewLength is the width of a note preview in the list.
const previewLength = 60

type noteOutput struct {
	ID    uint64 `json:"id"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List and decrypt all notes",
	Long: `Fetches every note of the account and decrypts it locally.

Notes that cannot be decrypted are listed with their error.

Use --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")

		ctx, cancel := signalContext()
		defer cancel()

		result, err := workflows.ListNotes(ctx, sessionOptions(Logger))
		if err != nil {
			if listJSONOutput {
				return Logger.ErrorfAndReturn("failed to list notes: %v", err)
			}
			fmt.Println(failureMessage("Failed to list notes", err))
			return nil
		}
		Logger.Debugf("Fetched %d notes, %d failed", len(result.Notes), result.Failed)

		if listJSONOutput {
			return printNotesJSON(result.Notes)
		}
		printNotes(result)
		return nil
	},
}

func printNotesJSON(notes []workflows.Note) error {
	out := make([]noteOutput, 0, len(notes))
	for _, n := range notes {
		o := noteOutput{ID: n.ID, Text: n.Text}
		if n.Err != nil {
			o.Error = n.Err.Error()
		}
		out = append(out, o)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printNotes(result *workflows.ListNotesResult) {
	if len(result.Notes) == 0 {
		fmt.Println(ui.Muted.Sprint("no notes"))
		return
	}
	for _, n := range result.Notes {
		if n.Err != nil {
			fmt.Printf("%6d  %s\n", n.ID, ui.Error.Sprint("cannot decrypt: "+n.Err.Error()))
			continue
		}
		text := n.Text
		if !listFull {
			text = ui.Shorten(text, previewLength)
		}
		fmt.Printf("%6d  %s\n", n.ID, text)
	}
	if result.Failed > 0 {
		fmt.Println()
		fmt.Println(ui.Warning.Sprintf("%d note(s) could not be decrypted", result.Failed))
	}
}
