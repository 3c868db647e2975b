package cli

import (
	"fmt"

	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backing services",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		out := cmd.OutOrStdout()
		if app.Health == nil {
			fmt.Fprintln(out, "ok")
			return nil
		}

		health := app.Health.Check(cmd.Context())
		fmt.Fprintln(out, health.Status)
		for _, name := range app.Health.Names() {
			result := health.Checks[name]
			line := fmt.Sprintf("  %-10s %s", name, result.Status)
			if result.Message != "" {
				line += " (" + result.Message + ")"
			}
			fmt.Fprintln(out, line)
		}
		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
