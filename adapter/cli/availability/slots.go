package availability

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	slotsService  string
	slotsProvider string
	slotsDate     string
	slotsDuration int
	slotsTimezone string
	slotsAll      bool
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List bookable slots for a day",
	Long: `List the candidate starts a provider offers on one day.

Examples:
  solace availability slots --service individual-50 --date 2025-03-03
  solace availability slots --duration 30 --provider dr-lee --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ResolveSlotsHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Availability commands require a configured store.")
			return nil
		}
		out := cmd.OutOrStdout()

		loc, err := app.ZoneFor(slotsTimezone)
		if err != nil {
			return err
		}
		date, err := cli.ParseDate(slotsDate, loc)
		if err != nil {
			return err
		}

		slots, err := app.ResolveSlotsHandler.Handle(cmd.Context(), queries.ResolveSlotsQuery{
			ProviderID:      slotsProvider,
			ServiceID:       slotsService,
			Date:            date,
			DurationMinutes: slotsDuration,
			Timezone:        slotsTimezone,
			OnlyAvailable:   !slotsAll,
		})
		if err != nil {
			return fmt.Errorf("failed to resolve slots: %w", err)
		}

		fmt.Fprintf(out, "Slots for %s\n", date.Format("Monday, January 2, 2006"))
		fmt.Fprintln(out, strings.Repeat("-", 40))
		if len(slots) == 0 {
			fmt.Fprintln(out, "  No slots offered.")
			return nil
		}
		for _, s := range slots {
			mark := " "
			if !s.Available {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %s - %s  %s\n", mark,
				s.Start.In(loc).Format("15:04"), s.End.In(loc).Format("15:04"), s.ProviderID)
		}
		return nil
	},
}

func init() {
	slotsCmd.Flags().StringVarP(&slotsService, "service", "s", "", "service id; sets the slot length")
	slotsCmd.Flags().StringVarP(&slotsProvider, "provider", "p", "", "provider id (default: practice default)")
	slotsCmd.Flags().StringVarP(&slotsDate, "date", "d", "", "date (YYYY-MM-DD, default: today)")
	slotsCmd.Flags().IntVar(&slotsDuration, "duration", 0, "slot length in minutes when no service is given")
	slotsCmd.Flags().StringVar(&slotsTimezone, "tz", "", "IANA timezone for the date")
	slotsCmd.Flags().BoolVarP(&slotsAll, "all", "a", false, "include taken slots")
}
