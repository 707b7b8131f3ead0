package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <text>... | -",
	Short: "Encrypt and store a new note",
	Long: `Encrypts the note text with the account key and stores it.

Pass "-" to read the note from stdin.

Examples:
  kanuka-notes notes add buy milk
  echo "door code 1234" | kanuka-notes notes add -`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting add command")
		text, err := noteText(args, cmd.InOrStdin())
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		spinner, cleanup := startSpinner("Adding note...", verbose)
		defer cleanup()

		ctx, cancel := signalContext()
		defer cancel()

		result, err := workflows.AddNote(ctx, workflows.AddNoteOptions{
			SessionOptions: sessionOptions(Logger),
			Text:           text,
		})
		if err != nil {
			Logger.Errorf("Add failed: %v", err)
			spinner.FinalMSG = failureMessage("Failed to add note", err)
			return nil
		}

		spinner.FinalMSG = ui.Succeeded(fmt.Sprintf("Added note %s", ui.Highlight.Sprint(result.ID)))
		return nil
	},
}
