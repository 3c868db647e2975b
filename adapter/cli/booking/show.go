package booking

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id|code>",
	Short: "Show an appointment",
	Long: `Show an appointment by id or confirmation code.

Examples:
  solace booking show 7K3M9QXA
  solace booking show 0b8f6c1e-5d8a-4f7b-9a57-2f1b0e3a9c44`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetAppointmentHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Booking commands require a configured store.")
			return nil
		}
		out := cmd.OutOrStdout()

		dto, err := app.GetAppointmentHandler.Handle(cmd.Context(), queries.GetAppointmentQuery{Reference: args[0]})
		if err != nil {
			return fmt.Errorf("failed to find appointment: %w", err)
		}

		loc := app.Location
		fmt.Fprintf(out, "Appointment %s\n", dto.ConfirmationCode)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  ID:       %s\n", dto.ID)
		fmt.Fprintf(out, "  Service:  %s\n", dto.ServiceID)
		fmt.Fprintf(out, "  Provider: %s\n", dto.ProviderID)
		fmt.Fprintf(out, "  Client:   %s\n", dto.ClientID)
		fmt.Fprintf(out, "  When:     %s - %s\n", dto.Start.In(loc).Format("Mon Jan 2, 2006 15:04"), dto.End.In(loc).Format("15:04"))
		fmt.Fprintf(out, "  Status:   %s\n", dto.Status)
		if dto.Notes != "" {
			fmt.Fprintf(out, "  Notes:    %s\n", dto.Notes)
		}
		if dto.CancellationReason != "" {
			fmt.Fprintf(out, "  Reason:   %s\n", dto.CancellationReason)
		}
		if dto.RecurringGroupID != nil {
			fmt.Fprintf(out, "  Series:   %s\n", *dto.RecurringGroupID)
		}
		if dto.RescheduledFrom != nil && *dto.RescheduledFrom != uuid.Nil {
			fmt.Fprintf(out, "  Moved from: %s\n", *dto.RescheduledFrom)
		}
		if dto.RescheduledTo != nil && *dto.RescheduledTo != uuid.Nil {
			fmt.Fprintf(out, "  Moved to:   %s\n", *dto.RescheduledTo)
		}
		return nil
	},
}
