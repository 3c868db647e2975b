package calendar

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/solace/adapter/cli"
	calendarApp "github.com/felixgeelhaar/solace/internal/calendar/application"
	"github.com/spf13/cobra"
)

var pushDeleteMissing bool

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Publish appointments to the CalDAV calendar",
	Long: `Upsert appointments into the configured CalDAV calendar.

With --delete-missing, Solace events on the server that are not part of
this push are removed. Events created by other tools are never touched.

Examples:
  solace calendar push
  solace calendar push --provider dr-lee --from 2025-03-01 --to 2025-03-31 --delete-missing`,
	Aliases: []string{"sync"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CalendarService == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Calendar commands require a configured store.")
			return nil
		}
		out := cmd.OutOrStdout()

		query, err := buildQuery(app)
		if err != nil {
			return err
		}

		result, err := app.CalendarService.Push(cmd.Context(), query, calendarApp.PushOptions{DeleteMissing: pushDeleteMissing})
		if errors.Is(err, calendarApp.ErrPushDisabled) {
			fmt.Fprintln(out, "CalDAV push is not configured.")
			fmt.Fprintln(out, "Set CALDAV_URL, CALDAV_USERNAME and CALDAV_PASSWORD.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to push calendar: %w", err)
		}

		fmt.Fprintf(out, "Pushed: %d created, %d updated, %d deleted\n", result.Created, result.Updated, result.Deleted)
		if result.Failed > 0 {
			return fmt.Errorf("%d events failed to push", result.Failed)
		}
		return nil
	},
}

func init() {
	pushCmd.Flags().BoolVar(&pushDeleteMissing, "delete-missing", false, "remove Solace events not in this push")
}
