package availability

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the service catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Catalog == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No service catalog loaded. Set SOLACE_CATALOG_PATH.")
			return nil
		}
		out := cmd.OutOrStdout()

		services, err := app.Catalog.ListServices(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list services: %w", err)
		}
		if len(services) == 0 {
			fmt.Fprintln(out, "No services configured.")
			return nil
		}

		fmt.Fprintf(out, "%-18s %-28s %6s %9s\n", "ID", "NAME", "MIN", "PRICE")
		fmt.Fprintln(out, strings.Repeat("-", 64))
		for _, s := range services {
			name := s.Name
			if s.RequiresConsultation {
				name += " *"
			}
			fmt.Fprintf(out, "%-18s %-28s %6d %9s\n", s.ID, name, s.DurationMinutes, s.Price.StringFixed(2))
		}
		return nil
	},
}
