package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"todo-calendar/internal/importer"
)

func newImportCmd() *cobra.Command {
	var telegramID int64

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import tasks from a JSON dump",
		Long: `Import a JSON array of tasks for a user. Each record carries an id, a text,
a category, a completion flag and a day that may be a "YYYY-MM-DD" string, an
RFC 3339 timestamp, epoch milliseconds or null.

Records whose id was imported before are skipped, so the command can be
re-run on the same file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			user, err := a.lookupUser(ctx, telegramID, true)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			im := importer.New(a.taskService(), a.cfg.Location, a.log, nil)
			res, err := im.Import(ctx, user, f)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d, undated %d\n", res.Imported, res.Skipped, res.Undated)
			return nil
		},
	}

	cmd.Flags().Int64Var(&telegramID, "user", 0, "Telegram id of the user to import into")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
