package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/ui"
	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rm command")
		id, err := parseNoteID(args[0])
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		spinner, cleanup := startSpinner("Deleting note...", verbose)
		defer cleanup()

		ctx, cancel := signalContext()
		defer cancel()

		err = workflows.RemoveNote(ctx, workflows.NoteOptions{
			SessionOptions: sessionOptions(Logger),
			ID:             id,
		})
		if err != nil {
			Logger.Errorf("Remove failed: %v", err)
			spinner.FinalMSG = failureMessage(fmt.Sprintf("Failed to delete note %d", id), err)
			return nil
		}

		spinner.FinalMSG = ui.Succeeded(fmt.Sprintf("Deleted note %s", ui.Highlight.Sprint(id)))
		return nil
	},
}
