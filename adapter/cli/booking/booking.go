package booking

import (
	"github.com/spf13/cobra"
)

// Cmd is the booking command group
var Cmd = &cobra.Command{
	Use:     "booking",
	Short:   "Book and manage appointments",
	Long:    `Create, look up, cancel and reschedule client appointments, and move them through their lifecycle.`,
	Aliases: []string{"appt"},
}

func init() {
	Cmd.AddCommand(bookCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(rescheduleCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(confirmCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(noShowCmd)
}
