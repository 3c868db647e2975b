package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresBlockedIntervalRepository implements domain.BlockedIntervalRepository on PostgreSQL.
type PostgresBlockedIntervalRepository struct {
	conn database.Connection
}

// NewPostgresBlockedIntervalRepository creates a repository on conn.
func NewPostgresBlockedIntervalRepository(conn database.Connection) *PostgresBlockedIntervalRepository {
	return &PostgresBlockedIntervalRepository{conn: conn}
}

func (r *PostgresBlockedIntervalRepository) Save(ctx context.Context, block *domain.BlockedInterval) error {
	pattern, err := encodePattern(block.Recurrence)
	if err != nil {
		return err
	}
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, `
		INSERT INTO blocked_intervals (`+blockedColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			provider_id = EXCLUDED.provider_id, start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time, reason = EXCLUDED.reason,
			recurrence = EXCLUDED.recurrence, timezone = EXCLUDED.timezone`,
		block.ID, block.ProviderID, block.Start, block.End, block.Reason, pattern, block.Timezone,
	)
	if err != nil {
		return fmt.Errorf("save blocked interval %s: %w", block.ID, err)
	}
	return nil
}

func (r *PostgresBlockedIntervalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	res, err := exec.Exec(ctx, `DELETE FROM blocked_intervals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blocked interval %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: blocked interval %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PostgresBlockedIntervalRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.BlockedInterval, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	b, err := scanPostgresBlock(exec.QueryRow(ctx, `SELECT `+blockedColumns+` FROM blocked_intervals WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: blocked interval %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return b, nil
}

func (r *PostgresBlockedIntervalRepository) ListForProvider(ctx context.Context, providerID string, window domain.Interval) ([]domain.BlockedInterval, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT `+blockedColumns+` FROM blocked_intervals
		WHERE (provider_id = $1 OR provider_id = '')
		  AND start_time < $2
		  AND (recurrence IS NOT NULL OR end_time > $3)
		ORDER BY start_time, id`,
		providerID, window.End, window.Start)
	if err != nil {
		return nil, fmt.Errorf("list blocked intervals: %w", err)
	}
	defer rows.Close()

	var out []domain.BlockedInterval
	for rows.Next() {
		b, err := scanPostgresBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanPostgresBlock(row database.Row) (*domain.BlockedInterval, error) {
	var (
		b          domain.BlockedInterval
		recurrence []byte
	)
	if err := row.Scan(&b.ID, &b.ProviderID, &b.Start, &b.End, &b.Reason, &recurrence, &b.Timezone); err != nil {
		return nil, err
	}
	pattern, err := decodePattern(recurrence)
	if err != nil {
		return nil, err
	}
	b.Recurrence = pattern
	return &b, nil
}
