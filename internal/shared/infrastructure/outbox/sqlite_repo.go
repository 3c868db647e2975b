package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteRepository stores messages in the local SQLite database.
type SQLiteRepository struct {
	conn database.Connection
}

// NewSQLiteRepository creates a repository on conn.
func NewSQLiteRepository(conn database.Connection) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	for _, m := range msgs {
		var id int64
		err := exec.QueryRow(ctx, `
			INSERT INTO outbox (event_id, aggregate_type, aggregate_id, routing_key, payload, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			m.EventID.String(), m.AggregateType, m.AggregateID.String(), m.RoutingKey,
			string(m.Payload), string(m.Metadata), database.FormatTime(m.CreatedAt),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", m.EventID, err)
		}
		m.ID = id
	}
	return nil
}

func (r *SQLiteRepository) FetchDue(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, metadata,
		       created_at, next_retry_at, retry_count, last_error
		FROM outbox
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`, database.FormatTime(now), limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due outbox messages: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var (
			m                    Message
			eventID, aggregateID string
			payload              string
			metadata, lastError  sql.NullString
			createdAt            string
			nextRetryAt          sql.NullString
		)
		if err := rows.Scan(&m.ID, &eventID, &m.AggregateType, &aggregateID, &m.RoutingKey, &payload, &metadata,
			&createdAt, &nextRetryAt, &m.RetryCount, &lastError); err != nil {
			return nil, err
		}
		if m.EventID, err = uuid.Parse(eventID); err != nil {
			return nil, err
		}
		if m.AggregateID, err = uuid.Parse(aggregateID); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if m.NextRetryAt, err = database.ParseNullTime(nextRetryAt); err != nil {
			return nil, err
		}
		m.Payload = json.RawMessage(payload)
		if metadata.Valid {
			m.Metadata = json.RawMessage(metadata.String)
		}
		if lastError.Valid {
			m.LastError = &lastError.String
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE outbox SET published_at = ? WHERE id = ?`, database.FormatTime(at), id)
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error {
	return r.exec(ctx, `UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`,
		reason, database.FormatTime(nextRetryAt), id)
}

func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	return r.exec(ctx, `UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`,
		reason, database.FormatTime(at), reason, id)
}

func (r *SQLiteRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`, database.FormatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}
