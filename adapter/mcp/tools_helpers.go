package mcp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var errStoreRequired = errors.New("booking tools require a configured store")

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("date is required")
	}
	return cli.ParseDate(value, loc)
}

func parseStart(date, clock string, loc *time.Location) (time.Time, error) {
	if clock == "" {
		return time.Time{}, errors.New("time is required")
	}
	if _, err := parseDate(date, loc); err != nil {
		return time.Time{}, err
	}
	return cli.ParseStart(date, clock, loc)
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// withAlternatives folds the nearest free starts of a slot conflict into the
// error text so an agent can offer them.
func withAlternatives(err error, loc *time.Location) error {
	var conflict *domain.SlotUnavailableError
	if !errors.As(err, &conflict) || len(conflict.Alternatives) == 0 {
		return err
	}
	starts := make([]string, 0, len(conflict.Alternatives))
	for _, s := range conflict.Alternatives {
		starts = append(starts, s.Start.In(loc).Format(dateLayout+" "+timeLayout))
	}
	return fmt.Errorf("%w; nearest available: %s", err, strings.Join(starts, ", "))
}
