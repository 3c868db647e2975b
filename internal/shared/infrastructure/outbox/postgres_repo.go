package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
)

// PostgresRepository stores messages in PostgreSQL.
type PostgresRepository struct {
	conn database.Connection
}

// NewPostgresRepository creates a repository on conn.
func NewPostgresRepository(conn database.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	for _, m := range msgs {
		err := exec.QueryRow(ctx, `
			INSERT INTO outbox (event_id, aggregate_type, aggregate_id, routing_key, payload, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			m.EventID, m.AggregateType, m.AggregateID, m.RoutingKey, []byte(m.Payload), []byte(m.Metadata), m.CreatedAt,
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", m.EventID, err)
		}
	}
	return nil
}

func (r *PostgresRepository) FetchDue(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, metadata,
		       created_at, next_retry_at, retry_count, last_error
		FROM outbox
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)
		ORDER BY id
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due outbox messages: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		var payload, metadata []byte
		if err := rows.Scan(&m.ID, &m.EventID, &m.AggregateType, &m.AggregateID, &m.RoutingKey, &payload, &metadata,
			&m.CreatedAt, &m.NextRetryAt, &m.RetryCount, &m.LastError); err != nil {
			return nil, err
		}
		m.Payload = payload
		m.Metadata = metadata
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE outbox SET published_at = $1 WHERE id = $2`, at, id)
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error {
	return r.exec(ctx, `UPDATE outbox SET retry_count = retry_count + 1, last_error = $1, next_retry_at = $2 WHERE id = $3`,
		reason, nextRetryAt, id)
}

func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	return r.exec(ctx, `UPDATE outbox SET retry_count = retry_count + 1, last_error = $1, dead_lettered_at = $2, dead_letter_reason = $1 WHERE id = $3`,
		reason, at, id)
}

func (r *PostgresRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}
