package booking

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var (
	rescheduleDate     string
	rescheduleTime     string
	rescheduleTimezone string
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <id|code>",
	Short: "Move an appointment to a new start",
	Long: `Move an appointment. The original is marked rescheduled and a
replacement with a new confirmation code is booked at the new start.

Examples:
  solace booking reschedule 7K3M9QXA --date 2025-03-10 --time 11:00`,
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"move"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RescheduleAppointmentHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Booking commands require a configured store.")
			return nil
		}
		out := cmd.OutOrStdout()

		loc, err := app.ZoneFor(rescheduleTimezone)
		if err != nil {
			return err
		}
		newStart, err := cli.ParseStart(rescheduleDate, rescheduleTime, loc)
		if err != nil {
			return err
		}
		id, err := app.ResolveAppointmentID(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		result, err := app.RescheduleAppointmentHandler.Handle(cmd.Context(), commands.RescheduleAppointmentCommand{
			AppointmentID: id,
			NewStart:      newStart,
			Timezone:      rescheduleTimezone,
		})
		if err != nil {
			cli.PrintAlternatives(out, err, loc)
			return fmt.Errorf("failed to reschedule appointment: %w", err)
		}
		defer app.Flush(cmd.Context())

		fmt.Fprintf(out, "Rescheduled %s\n", result.Previous.ConfirmationCode())
		fmt.Fprintln(out, strings.Repeat("-", 40))
		cli.PrintAppointment(out, result.Replacement, loc)
		cli.PrintNotifications(out, result.Notifications)
		return nil
	},
}

func init() {
	rescheduleCmd.Flags().StringVarP(&rescheduleDate, "date", "d", "", "new date (YYYY-MM-DD, default: today)")
	rescheduleCmd.Flags().StringVarP(&rescheduleTime, "time", "t", "", "new start time (HH:MM, required)")
	rescheduleCmd.Flags().StringVar(&rescheduleTimezone, "tz", "", "IANA timezone of --date and --time")

	rescheduleCmd.MarkFlagRequired("time")
}
