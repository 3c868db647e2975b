package availability

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	blockProvider string
	blockDate     string
	blockStart    string
	blockEnd      string
	blockReason   string
	blockRRule    string
	blockTimezone string
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Block provider time",
	Long: `Remove time from availability. Without --provider the block applies
to every provider. Existing appointments inside the block are listed but
left in place.

Examples:
  solace availability block --provider dr-lee --date 2025-03-03 --start 12:00 --end 13:00 --reason lunch
  solace availability block --date 2025-12-24 --start 00:00 --end 23:59 --reason "practice closed"
  solace availability block --provider dr-lee --start 08:00 --end 09:00 --rrule "FREQ=WEEKLY;BYDAY=FR"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BlockTimeHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Availability commands require a configured store.")
			return nil
		}
		out := cmd.OutOrStdout()

		loc, err := app.ZoneFor(blockTimezone)
		if err != nil {
			return err
		}
		start, err := cli.ParseStart(blockDate, blockStart, loc)
		if err != nil {
			return err
		}
		end, err := cli.ParseStart(blockDate, blockEnd, loc)
		if err != nil {
			return err
		}
		pattern, err := cli.ParseRecurrence(blockRRule)
		if err != nil {
			return err
		}

		result, err := app.BlockTimeHandler.Handle(cmd.Context(), commands.BlockTimeCommand{
			ProviderID: blockProvider,
			Start:      start,
			End:        end,
			Reason:     blockReason,
			Recurrence: pattern,
			Timezone:   blockTimezone,
		})
		if err != nil {
			return fmt.Errorf("failed to block time: %w", err)
		}

		scope := blockProvider
		if scope == "" {
			scope = "all providers"
		}
		fmt.Fprintf(out, "Blocked %s - %s for %s\n", start.Format("2006-01-02 15:04"), end.Format("15:04"), scope)
		fmt.Fprintf(out, "  Block ID: %s\n", result.Block.ID)
		if len(result.Conflicts) > 0 {
			fmt.Fprintln(out, strings.Repeat("-", 40))
			fmt.Fprintf(out, "%d existing appointments overlap this block:\n", len(result.Conflicts))
			for _, a := range result.Conflicts {
				fmt.Fprintf(out, "  %s %s client %s\n", a.ConfirmationCode(), a.StartTime().In(loc).Format("2006-01-02 15:04"), a.ClientID())
			}
		}
		return nil
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <block-id>",
	Short: "Remove a time block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UnblockTimeHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Availability commands require a configured store.")
			return nil
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid block ID: %w", err)
		}
		if err := app.UnblockTimeHandler.Handle(cmd.Context(), commands.UnblockTimeCommand{BlockID: id}); err != nil {
			return fmt.Errorf("failed to remove block: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed block %s\n", id)
		return nil
	},
}

func init() {
	blockCmd.Flags().StringVarP(&blockProvider, "provider", "p", "", "provider id (default: all providers)")
	blockCmd.Flags().StringVarP(&blockDate, "date", "d", "", "date (YYYY-MM-DD, default: today)")
	blockCmd.Flags().StringVar(&blockStart, "start", "", "start time (HH:MM, required)")
	blockCmd.Flags().StringVar(&blockEnd, "end", "", "end time (HH:MM, required)")
	blockCmd.Flags().StringVarP(&blockReason, "reason", "r", "", "reason shown to staff")
	blockCmd.Flags().StringVar(&blockRRule, "rrule", "", "recurrence rule, e.g. FREQ=WEEKLY;BYDAY=FR")
	blockCmd.Flags().StringVar(&blockTimezone, "tz", "", "IANA timezone of the block")

	blockCmd.MarkFlagRequired("start")
	blockCmd.MarkFlagRequired("end")
}
