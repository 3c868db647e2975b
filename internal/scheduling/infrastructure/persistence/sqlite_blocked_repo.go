package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteBlockedIntervalRepository implements domain.BlockedIntervalRepository on SQLite.
type SQLiteBlockedIntervalRepository struct {
	conn database.Connection
}

// NewSQLiteBlockedIntervalRepository creates a repository on conn.
func NewSQLiteBlockedIntervalRepository(conn database.Connection) *SQLiteBlockedIntervalRepository {
	return &SQLiteBlockedIntervalRepository{conn: conn}
}

func (r *SQLiteBlockedIntervalRepository) Save(ctx context.Context, block *domain.BlockedInterval) error {
	pattern, err := encodePattern(block.Recurrence)
	if err != nil {
		return err
	}
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, `
		INSERT INTO blocked_intervals (`+blockedColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			provider_id = excluded.provider_id, start_time = excluded.start_time,
			end_time = excluded.end_time, reason = excluded.reason,
			recurrence = excluded.recurrence, timezone = excluded.timezone`,
		block.ID.String(), block.ProviderID, database.FormatTime(block.Start), database.FormatTime(block.End),
		block.Reason, pattern, block.Timezone, database.FormatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save blocked interval %s: %w", block.ID, err)
	}
	return nil
}

func (r *SQLiteBlockedIntervalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	res, err := exec.Exec(ctx, `DELETE FROM blocked_intervals WHERE id = ?`, id.String())
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

func (r *SQLiteBlockedIntervalRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.BlockedInterval, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	b, err := scanSQLiteBlock(exec.QueryRow(ctx, `SELECT `+blockedColumns+` FROM blocked_intervals WHERE id = ?`, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: blocked interval %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return b, nil
}

func (r *SQLiteBlockedIntervalRepository) ListForProvider(ctx context.Context, providerID string, window domain.Interval) ([]domain.BlockedInterval, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT `+blockedColumns+` FROM blocked_intervals
		WHERE (provider_id = ? OR provider_id = '')
		  AND start_time < ?
		  AND (recurrence IS NOT NULL OR end_time > ?)
		ORDER BY start_time, id`,
		providerID, database.FormatTime(window.End), database.FormatTime(window.Start))
	if err != nil {
		return nil, fmt.Errorf("list blocked intervals: %w", err)
	}
	defer rows.Close()

	var out []domain.BlockedInterval
	for rows.Next() {
		b, err := scanSQLiteBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanSQLiteBlock(row database.Row) (*domain.BlockedInterval, error) {
	var (
		b              domain.BlockedInterval
		id, start, end string
		recurrence     sql.NullString
	)
	if err := row.Scan(&id, &b.ProviderID, &start, &end, &b.Reason, &recurrence, &b.Timezone); err != nil {
		return nil, err
	}
	var errs []error
	var perr error
	b.ID, perr = uuid.Parse(id)
	errs = append(errs, perr)
	b.Start, perr = database.ParseTime(start)
	errs = append(errs, perr)
	b.End, perr = database.ParseTime(end)
	errs = append(errs, perr)
	if recurrence.Valid {
		b.Recurrence, perr = decodePattern([]byte(recurrence.String))
		errs = append(errs, perr)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("decode blocked interval %s: %w", id, err)
	}
	return &b, nil
}
