package calendar

import (
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write appointments as an .ics file",
	Long: `Write appointments as iCalendar data. Each appointment becomes one
VEVENT with its confirmation code and status.

Examples:
  solace calendar export > practice.ics
  solace calendar export --provider dr-lee --from 2025-03-01 --to 2025-03-31 -o march.ics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CalendarService == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Calendar commands require a configured store.")
			return nil
		}

		query, err := buildQuery(app)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOutput, err)
			}
			defer f.Close()
			w = f
		}

		n, err := app.CalendarService.Export(cmd.Context(), w, query)
		if err != nil {
			return fmt.Errorf("failed to export calendar: %w", err)
		}
		if w != cmd.OutOrStdout() {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d appointments to %s\n", n, exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
}
