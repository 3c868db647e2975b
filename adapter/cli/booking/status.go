package booking

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type transitionFunc func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.AppointmentResult, error)

// statusCommand builds a lifecycle command that resolves its argument and applies fn.
func statusCommand(use, short, verb string, fn transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id|code>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.GetApp()
			if app == nil || app.GetAppointmentHandler == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Booking commands require a configured store.")
				return nil
			}

			id, err := app.ResolveAppointmentID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := fn(cmd.Context(), app, id)
			if err != nil {
				return fmt.Errorf("failed to %s appointment: %w", use, err)
			}
			defer app.Flush(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "%s appointment %s (%s)\n",
				verb, result.Appointment.ConfirmationCode(), result.Appointment.Status())
			return nil
		},
	}
}

var approveCmd = statusCommand("approve", "Approve a pending appointment", "Approved",
	func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.AppointmentResult, error) {
		return app.ApproveAppointmentHandler.Handle(ctx, commands.ApproveAppointmentCommand{AppointmentID: id})
	})

var confirmCmd = statusCommand("confirm", "Record that the client confirmed attendance", "Confirmed",
	func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.AppointmentResult, error) {
		return app.ConfirmAppointmentHandler.Handle(ctx, commands.ConfirmAppointmentCommand{AppointmentID: id})
	})

var completeCmd = statusCommand("complete", "Mark an appointment as held", "Completed",
	func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.AppointmentResult, error) {
		return app.RecordOutcomeHandler.Handle(ctx, commands.RecordOutcomeCommand{AppointmentID: id, Outcome: commands.OutcomeCompleted})
	})

var noShowCmd = statusCommand("no-show", "Mark that the client did not attend", "Recorded no-show for",
	func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.AppointmentResult, error) {
		return app.RecordOutcomeHandler.Handle(ctx, commands.RecordOutcomeCommand{AppointmentID: id, Outcome: commands.OutcomeNoShow})
	})
