package cmd

import (
	"fmt"

	"github.com/PolarWolf314/kanuka-notes/internal/workflows"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Decrypt and print one note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting show command")
		id, err := parseNoteID(args[0])
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		note, err := workflows.ShowNote(ctx, workflows.NoteOptions{
			SessionOptions: sessionOptions(Logger),
			ID:             id,
		})
		if err != nil {
			fmt.Println(failureMessage(fmt.Sprintf("Failed to show note %d", id), err))
			return nil
		}
		fmt.Println(note.Text)
		return nil
	},
}
