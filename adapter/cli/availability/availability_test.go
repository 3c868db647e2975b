package availability

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/adapter/cli"
	internalApp "github.com/felixgeelhaar/solace/internal/app"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
services:
  - id: individual-50
    name: Individual therapy
    duration_minutes: 50
    price: "120"
  - id: intake-30
    name: Intake
    duration_minutes: 30
    requires_consultation: true
providers:
  - id: default
    rules:
      - day: monday
        start: "09:00"
        end: "11:00"
`

func setupTestApp(t *testing.T) *internalApp.Container {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))

	container, err := internalApp.NewTestContainer(context.Background(), path, nil)
	require.NoError(t, err)

	cli.SetApp(cli.NewApp(container))
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})
	return container
}

func nextMonday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func resetSlotFlags(date time.Time) {
	slotsService = "individual-50"
	slotsProvider = ""
	slotsDate = date.Format("2006-01-02")
	slotsDuration = 0
	slotsTimezone = ""
	slotsAll = false
}

func resetBlockFlags(date time.Time) {
	blockProvider = "default"
	blockDate = date.Format("2006-01-02")
	blockStart = "09:00"
	blockEnd = "09:30"
	blockReason = "supervision"
	blockRRule = ""
	blockTimezone = ""
}

func TestSlotsCmd_ListsOfferedStarts(t *testing.T) {
	setupTestApp(t)
	monday := nextMonday()
	resetSlotFlags(monday)

	out, err := run(t, slotsCmd)
	require.NoError(t, err)
	// 09:00 to 11:00 on a 30 minute grid fits 50 minute sessions at 09:00, 09:30 and 10:00.
	assert.Contains(t, out, "09:00 - 09:50")
	assert.Contains(t, out, "10:00 - 10:50")
	assert.NotContains(t, out, "10:30")
}

func TestSlotsCmd_NoRulesThatDay(t *testing.T) {
	setupTestApp(t)
	resetSlotFlags(nextMonday().AddDate(0, 0, 1))

	out, err := run(t, slotsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No slots offered")
}

func TestSlotsCmd_InvalidDate(t *testing.T) {
	setupTestApp(t)
	resetSlotFlags(nextMonday())
	slotsDate = "03/03/2025"

	_, err := run(t, slotsCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date format")
}

func TestBlockCmd_RemovesSlotsAndReportsConflicts(t *testing.T) {
	c := setupTestApp(t)
	monday := nextMonday()

	_, err := c.CreateBookingHandler.Handle(context.Background(), commands.CreateBookingCommand{
		ServiceID: "individual-50",
		ClientID:  "client-1",
		Start:     monday.Add(10 * time.Hour),
	})
	require.NoError(t, err)

	resetBlockFlags(monday)
	blockStart = "10:00"
	blockEnd = "11:00"
	out, err := run(t, blockCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "1 existing appointments overlap this block")
	assert.Contains(t, out, "client client-1")

	resetSlotFlags(monday)
	slotsAll = true
	out, err = run(t, slotsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] 09:00 - 09:50")
	assert.Contains(t, out, "[x] 10:00 - 10:50")
}

func TestUnblockCmd_RestoresSlots(t *testing.T) {
	setupTestApp(t)
	monday := nextMonday()

	resetBlockFlags(monday)
	out, err := run(t, blockCmd)
	require.NoError(t, err)

	id := regexp.MustCompile(`Block ID: (\S+)`).FindStringSubmatch(out)
	require.Len(t, id, 2)

	resetSlotFlags(monday)
	out, err = run(t, slotsCmd)
	require.NoError(t, err)
	assert.NotContains(t, out, "09:00 - 09:50")

	_, err = run(t, unblockCmd, id[1])
	require.NoError(t, err)

	out, err = run(t, slotsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "09:00 - 09:50")
}

func TestUnblockCmd_InvalidID(t *testing.T) {
	setupTestApp(t)
	_, err := run(t, unblockCmd, "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid block ID")
}

func TestServicesCmd(t *testing.T) {
	setupTestApp(t)
	out, err := run(t, servicesCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "individual-50")
	assert.Contains(t, out, "120.00")
	assert.Contains(t, out, "Intake *")
}
