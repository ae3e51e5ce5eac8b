package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"todo-calendar/internal/calendar"
)

func newCalendarCmd() *cobra.Command {
	var (
		telegramID int64
		month      string
		day        string
		undated    bool
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a user's month calendar",
		Long: `Print a month grid of a user's tasks to the terminal.

Without --month the current month in TIMEZONE is shown. --day lists the
tasks of a single day and --undated the tasks that have no day.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			user, err := a.lookupUser(ctx, telegramID, false)
			if err != nil {
				return err
			}
			svc := a.calendarService()
			out := cmd.OutOrStdout()

			if day != "" {
				d, err := calendar.ParseDate(day)
				if err != nil {
					return err
				}
				view, err := svc.Day(ctx, user, d)
				if err != nil {
					return err
				}
				return renderDay(out, view)
			}

			w := svc.CurrentWindow()
			if month != "" {
				if w, err = calendar.ParseWindow(month); err != nil {
					return err
				}
			}
			view, err := svc.Month(ctx, user, w, nil)
			if err != nil {
				return err
			}
			if err := renderMonth(out, view); err != nil {
				return err
			}

			if undated {
				tasks, err := svc.Undated(ctx, user)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				return renderUndated(out, tasks)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&telegramID, "user", 0, "Telegram id of the user")
	cmd.Flags().StringVar(&month, "month", "", "Month to show as YYYY-MM")
	cmd.Flags().StringVar(&day, "day", "", "List a single day as YYYY-MM-DD")
	cmd.Flags().BoolVar(&undated, "undated", false, "Also list tasks without a day")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
