package outbox

import (
	"context"
	"time"
)

// Repository stores outbox messages. SaveBatch joins the caller's unit of work.
type Repository interface {
	SaveBatch(ctx context.Context, msgs []*Message) error

	// FetchDue returns up to limit messages due at now, oldest first.
	FetchDue(ctx context.Context, now time.Time, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string, at time.Time) error

	// DeletePublishedBefore removes delivered messages older than cutoff.
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
