package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/solace/adapter/cli"
	internalApp "github.com/felixgeelhaar/solace/internal/app"
	scheduleCommands "github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/services"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
services:
  - id: individual-50
    name: Individual therapy
    duration_minutes: 50
    price: "120"
providers:
  - id: default
    rules:
      - day: monday
        start: "09:00"
        end: "12:00"
`

func newTestApp(t *testing.T) *cli.App {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))

	container, err := internalApp.NewTestContainer(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return cli.NewApp(container)
}

func nextMonday() string {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format(dateLayout)
}

func TestRegisterCLITools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	app := &cli.App{}
	require.NoError(t, RegisterCLITools(srv, ToolDependencies{App: app}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools {
		if name, ok := tool["name"].(string); ok {
			names[name] = true
		}
	}
	for _, want := range []string{
		"cli.health",
		"slots.resolve",
		"services.list",
		"availability.block",
		"availability.unblock",
		"booking.create",
		"booking.get",
		"booking.cancel",
		"booking.reschedule",
		"booking.approve",
		"booking.confirm",
		"booking.outcome",
		"calendar.events",
		"calendar.export",
		"calendar.push",
	} {
		assert.True(t, names[want], "%s should be registered", want)
	}
}

func TestRegisterCLITools_RequiresApp(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})
	assert.Error(t, RegisterCLITools(srv, ToolDependencies{}))
	assert.Error(t, RegisterCLITools(nil, ToolDependencies{App: &cli.App{}}))
}

func TestCreateBooking_ThenSlotIsGone(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	date := nextMonday()

	out, err := createBooking(ctx, app, bookingCreateInput{
		ServiceID: "individual-50",
		ClientID:  "client-1",
		Date:      date,
		Time:      "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", out.Appointment.Status)
	assert.Len(t, out.Appointment.ConfirmationCode, services.ConfirmationCodeLength)
	require.Len(t, out.Notifications, 1)
	assert.Nil(t, out.Series)

	slots, err := resolveSlots(ctx, app, slotsInput{Date: date, ServiceID: "individual-50"})
	require.NoError(t, err)
	for _, s := range slots {
		assert.NotEqual(t, 9, s.Start.Hour(), "09:00 is booked")
	}

	_, err = createBooking(ctx, app, bookingCreateInput{
		ServiceID: "individual-50",
		ClientID:  "client-2",
		Date:      date,
		Time:      "09:00",
	})
	require.ErrorIs(t, err, domain.ErrSlotUnavailable)
	assert.Contains(t, err.Error(), "nearest available")
}

func TestCreateBooking_Series(t *testing.T) {
	app := newTestApp(t)
	out, err := createBooking(context.Background(), app, bookingCreateInput{
		ServiceID: "individual-50",
		ClientID:  "client-1",
		Date:      nextMonday(),
		Time:      "10:00",
		RRule:     "FREQ=WEEKLY;COUNT=4",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Series)
	assert.Equal(t, 4, out.Series.Planned)
	assert.Equal(t, 4, out.Series.Booked)
	assert.Empty(t, out.Series.Failed)
	require.NotNil(t, out.Appointment.RecurringGroupID)
	assert.Equal(t, out.Series.GroupID, out.Appointment.RecurringGroupID.String())
}

func TestCreateBooking_ValidatesInput(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := createBooking(ctx, app, bookingCreateInput{ServiceID: "individual-50", ClientID: "c", Time: "09:00"})
	assert.ErrorContains(t, err, "date is required")

	_, err = createBooking(ctx, app, bookingCreateInput{ServiceID: "individual-50", ClientID: "c", Date: nextMonday()})
	assert.ErrorContains(t, err, "time is required")

	_, err = createBooking(ctx, app, bookingCreateInput{ServiceID: "individual-50", ClientID: "c", Date: nextMonday(), Time: "09:00", RRule: "FREQ=YEARLY"})
	assert.ErrorContains(t, err, "invalid recurrence")
}

func TestBookingLifecycle(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	date := nextMonday()

	created, err := createBooking(ctx, app, bookingCreateInput{
		ServiceID: "individual-50",
		ClientID:  "client-1",
		Date:      date,
		Time:      "09:00",
	})
	require.NoError(t, err)
	code := created.Appointment.ConfirmationCode

	moved, err := rescheduleBooking(ctx, app, bookingRescheduleInput{Reference: code, Date: date, Time: "11:00"})
	require.NoError(t, err)
	require.NotNil(t, moved.Replaced)
	assert.Equal(t, "rescheduled", moved.Replaced.Status)
	assert.NotEqual(t, code, moved.Appointment.ConfirmationCode)
	assert.Equal(t, 11, moved.Appointment.Start.Hour())

	confirmed, err := changeStatus(ctx, app, moved.Appointment.ConfirmationCode, confirmFunc(app))
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Appointment.Status)

	_, err = changeStatus(ctx, app, code, outcomeFunc(app, scheduleCommands.OutcomeCompleted))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	cancelled, err := cancelBooking(ctx, app, bookingCancelInput{Reference: moved.Appointment.ID.String(), Reason: "moved away"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Appointment.Status)
	assert.Equal(t, "moved away", cancelled.Appointment.CancellationReason)

	_, err = cancelBooking(ctx, app, bookingCancelInput{Reference: code})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBlockTime_ReportsConflicts(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	date := nextMonday()

	_, err := createBooking(ctx, app, bookingCreateInput{ServiceID: "individual-50", ClientID: "client-1", Date: date, Time: "10:00"})
	require.NoError(t, err)

	out, err := blockTime(ctx, app, blockInput{ProviderID: "default", Date: date, Start: "09:30", End: "10:30", Reason: "training"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.BlockID)
	require.Len(t, out.Conflicts, 1)
	assert.Equal(t, "client-1", out.Conflicts[0].ClientID)

	_, err = blockTime(ctx, app, blockInput{Date: date, Start: "10:30", End: "09:30"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExportCalendar(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	date := nextMonday()

	_, err := createBooking(ctx, app, bookingCreateInput{ServiceID: "individual-50", ClientID: "client-1", Date: date, Time: "09:00"})
	require.NoError(t, err)

	out, err := exportCalendar(ctx, app, calendarRangeInput{From: date, To: date})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "text/calendar", out.MimeType)
	assert.Contains(t, out.ICS, "BEGIN:VEVENT")

	_, err = exportCalendar(ctx, app, calendarRangeInput{From: date})
	assert.ErrorContains(t, err, "from and to")
}

func TestListServices(t *testing.T) {
	catalog, err := listServices(context.Background(), newTestApp(t))
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "120.00", catalog[0].Price)

	empty, err := listServices(context.Background(), &cli.App{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
