package availability

import (
	"github.com/spf13/cobra"
)

// Cmd is the availability command group
var Cmd = &cobra.Command{
	Use:     "availability",
	Short:   "Inspect and shape provider availability",
	Long:    `List bookable slots, block out provider time, and browse the service catalog.`,
	Aliases: []string{"avail"},
}

func init() {
	Cmd.AddCommand(slotsCmd)
	Cmd.AddCommand(blockCmd)
	Cmd.AddCommand(unblockCmd)
	Cmd.AddCommand(servicesCmd)
}
