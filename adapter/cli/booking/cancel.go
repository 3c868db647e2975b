package booking

import (
	"fmt"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var cancelReason string

var cancelCmd = &cobra.Command{
	Use:   "cancel <id|code>",
	Short: "Cancel an appointment",
	Long: `Cancel an appointment. Cancellations inside the practice notice
window are refused.

Examples:
  solace booking cancel 7K3M9QXA --reason "client unwell"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CancelAppointmentHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Booking commands require a configured store.")
			return nil
		}
		out := cmd.OutOrStdout()

		id, err := app.ResolveAppointmentID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		result, err := app.CancelAppointmentHandler.Handle(cmd.Context(), commands.CancelAppointmentCommand{
			AppointmentID: id,
			Reason:        cancelReason,
		})
		if err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}
		defer app.Flush(cmd.Context())

		fmt.Fprintf(out, "Cancelled appointment %s\n", result.Appointment.ConfirmationCode())
		cli.PrintNotifications(out, result.Notifications)
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVarP(&cancelReason, "reason", "r", "", "cancellation reason")
}
