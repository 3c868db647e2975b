package services

import (
	"context"
	"fmt"

	sharedApplication "github.com/felixgeelhaar/solace/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/outbox"
)

// SaveEvents stamps metadata on events and appends them to the outbox in the
// caller's unit of work.
func SaveEvents(ctx context.Context, repo outbox.Repository, events []sharedDomain.DomainEvent, md sharedDomain.EventMetadata) error {
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, md)
	msgs, err := outbox.FromEvents(events)
	if err != nil {
		return err
	}
	if err := repo.SaveBatch(ctx, msgs); err != nil {
		return fmt.Errorf("save outbox messages: %w", err)
	}
	return nil
}
