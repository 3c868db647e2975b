package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	bookService  string
	bookProvider string
	bookClient   string
	bookDate     string
	bookTime     string
	bookNotes    string
	bookRRule    string
	bookTimezone string
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book an appointment",
	Long: `Book a client into a service slot. The slot must be offered by the
provider's availability rules and free of other appointments and blocks.

Recurring series take an RRULE value. Instances that conflict are reported
while the rest of the series is kept.

Examples:
  solace booking book --service individual-50 --client c-42 --date 2025-03-03 --time 10:00
  solace booking book --service couples-80 --client c-7 --provider dr-lee --date 2025-03-04 --time 14:00 --notes "intake"
  solace booking book --service individual-50 --client c-42 --date 2025-03-03 --time 10:00 --rrule "FREQ=WEEKLY;COUNT=8"`,
	Aliases: []string{"new", "create"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateBookingHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Booking commands require a configured store.")
			fmt.Fprintln(cmd.OutOrStdout(), "Set DATABASE_URL, or leave it empty for the local SQLite file.")
			return nil
		}
		out := cmd.OutOrStdout()

		loc, err := app.ZoneFor(bookTimezone)
		if err != nil {
			return err
		}
		start, err := cli.ParseStart(bookDate, bookTime, loc)
		if err != nil {
			return err
		}
		pattern, err := cli.ParseRecurrence(bookRRule)
		if err != nil {
			return err
		}

		result, err := app.CreateBookingHandler.Handle(cmd.Context(), commands.CreateBookingCommand{
			ServiceID:  bookService,
			ProviderID: bookProvider,
			ClientID:   bookClient,
			Start:      start,
			Notes:      bookNotes,
			Recurrence: pattern,
			Timezone:   bookTimezone,
		})
		var partial *domain.PartialRecurrenceError
		if err != nil && !errors.As(err, &partial) {
			cli.PrintAlternatives(out, err, loc)
			return fmt.Errorf("failed to book appointment: %w", err)
		}
		defer app.Flush(cmd.Context())

		fmt.Fprintf(out, "Booked %s\n", result.Service.Name)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		cli.PrintAppointment(out, result.Appointment, loc)

		if report := result.Recurrence; report != nil {
			fmt.Fprintf(out, "\nSeries %s: %d of %d instances booked\n",
				report.GroupID, len(report.Created)+1, len(report.Dates))
			for _, f := range report.Failed {
				fmt.Fprintf(out, "  skipped %s: %s\n", f.Start.In(loc).Format("2006-01-02 15:04"), f.Reason)
			}
		}
		cli.PrintNotifications(out, result.Notifications)
		return nil
	},
}

func init() {
	bookCmd.Flags().StringVarP(&bookService, "service", "s", "", "service id (required)")
	bookCmd.Flags().StringVarP(&bookProvider, "provider", "p", "", "provider id (default: practice default)")
	bookCmd.Flags().StringVar(&bookClient, "client", "", "client id (required)")
	bookCmd.Flags().StringVarP(&bookDate, "date", "d", "", "appointment date (YYYY-MM-DD, default: today)")
	bookCmd.Flags().StringVarP(&bookTime, "time", "t", "", "start time (HH:MM, required)")
	bookCmd.Flags().StringVar(&bookNotes, "notes", "", "session notes")
	bookCmd.Flags().StringVar(&bookRRule, "rrule", "", "recurrence rule, e.g. FREQ=WEEKLY;COUNT=6")
	bookCmd.Flags().StringVar(&bookTimezone, "tz", "", "IANA timezone of --date and --time (default: practice timezone)")

	bookCmd.MarkFlagRequired("service")
	bookCmd.MarkFlagRequired("client")
	bookCmd.MarkFlagRequired("time")
}
