package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id> <text>... | <id> -",
	Short: "Replace the content of a note",
	Long: `Encrypts the new text and replaces the stored note.

Pass "-" as the text to read it from stdin.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting edit command")
		id, err := parseNoteID(args[0])
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}
		text, err := noteText(args[1:], cmd.InOrStdin())
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		spinner, cleanup := startSpinner("Updating note...", verbose)
		defer cleanup()

		ctx, cancel := signalContext()
		defer cancel()

		err = workflows.EditNote(ctx, workflows.EditNoteOptions{
			SessionOptions: sessionOptions(Logger),
			ID:             id,
			Text:           text,
		})
		if err != nil {
			Logger.Errorf("Edit failed: %v", err)
			spinner.FinalMSG = failureMessage(fmt.Sprintf("Failed to update note %d", id), err)
			return nil
		}

		spinner.FinalMSG = ui.Succeeded(fmt.Sprintf("Updated note %s", ui.Highlight.Sprint(id)))
		return nil
	},
}
