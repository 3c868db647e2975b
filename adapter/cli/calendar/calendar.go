package calendar

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

// Cmd is the calendar command group
var Cmd = &cobra.Command{
	Use:     "calendar",
	Short:   "Export and publish the appointment calendar",
	Long:    `Write appointments as iCalendar data or push them to a CalDAV calendar.`,
	Aliases: []string{"cal"},
}

var (
	calProvider string
	calClient   string
	calFrom     string
	calTo       string
)

func init() {
	Cmd.PersistentFlags().StringVarP(&calProvider, "provider", "p", "", "only this provider")
	Cmd.PersistentFlags().StringVar(&calClient, "client", "", "only this client")
	Cmd.PersistentFlags().StringVar(&calFrom, "from", "", "first day (YYYY-MM-DD)")
	Cmd.PersistentFlags().StringVar(&calTo, "to", "", "last day, inclusive (YYYY-MM-DD)")

	Cmd.AddCommand(exportCmd)
	Cmd.AddCommand(pushCmd)
}

// buildQuery turns the shared flags into a projection query. Open ends stay zero.
func buildQuery(app *cli.App) (queries.ProjectEventsQuery, error) {
	q := queries.ProjectEventsQuery{ProviderID: calProvider, ClientID: calClient}
	if calFrom == "" && calTo == "" {
		return q, nil
	}
	if calFrom == "" || calTo == "" {
		return q, fmt.Errorf("--from and --to must be given together")
	}
	from, err := cli.ParseDate(calFrom, app.Location)
	if err != nil {
		return q, err
	}
	to, err := cli.ParseDate(calTo, app.Location)
	if err != nil {
		return q, err
	}
	r, err := domain.NewInterval(from, to.Add(24*time.Hour))
	if err != nil {
		return q, err
	}
	q.Range = r
	return q, nil
}
